package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagsmith/pkg/cli/config"
	"github.com/m-mizutani/tagsmith/pkg/controller/action"
	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/infra/gitrepo"
	"github.com/m-mizutani/tagsmith/pkg/infra/signing"
	"github.com/m-mizutani/tagsmith/pkg/usecase"
)

// resolveTrigger builds the merge trigger, preferring the event payload file
// over the explicit flags.
func resolveTrigger(cfg *config.Trigger) (*model.MergeTrigger, error) {
	if cfg.EventPath != "" {
		return action.LoadEventPayload(cfg.EventPath)
	}
	if cfg.Branch == "" {
		return nil, goerr.New("either an event payload or a branch name is required")
	}
	return &model.MergeTrigger{
		Branch:     model.ReleaseBranchRef(cfg.Branch),
		Merged:     cfg.Merged,
		ReceivedAt: time.Now(),
	}, nil
}

func cmdPublish() *cli.Command {
	var (
		fileCfg    config.File
		gitCfg     config.Git
		signingCfg config.Signing
		retryCfg   config.Retry
		triggerCfg config.Trigger
	)

	flags := fileCfg.Flags()
	flags = append(flags, gitCfg.Flags()...)
	flags = append(flags, signingCfg.Flags()...)
	flags = append(flags, retryCfg.Flags()...)
	flags = append(flags, triggerCfg.Flags()...)

	return &cli.Command{
		Name:    "publish",
		Aliases: []string{"p"},
		Usage:   "Run the tag publication pipeline once",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			fileValues, err := fileCfg.Load()
			if err != nil {
				return err
			}
			fileValues.Apply(&gitCfg, &retryCfg)

			trigger, err := resolveTrigger(&triggerCfg)
			if err != nil {
				return err
			}

			repo, err := gitrepo.Open(gitCfg.RepoDir,
				gitrepo.WithTrunk(gitCfg.Trunk),
				gitrepo.WithToken(gitCfg.Token),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to open repository")
			}

			opts := []usecase.Option{
				usecase.WithRemote(gitCfg.Remote),
				usecase.WithPollAttempts(int(retryCfg.PollAttempts)),
				usecase.WithPollInterval(retryCfg.PollInterval),
			}
			if fileValues != nil && fileValues.TagMessage != "" {
				opts = append(opts, usecase.WithTagMessage(fileValues.TagMessage))
			}
			publisher := usecase.NewPublish(repo, signing.NewFactory(), opts...)

			out := action.NewOutputFromEnv()
			result, err := publisher.Publish(ctx, trigger, signingCfg.Secrets())
			if err != nil {
				out.WriteError(err)
				return err
			}

			if err := out.WriteResult(trigger, result); err != nil {
				return err
			}

			logger.Info("Publication run finished",
				slog.Bool("tag_created", result.TagCreated),
				slog.String("tag_name", string(result.TagName)),
				slog.Duration("elapsed", time.Since(trigger.ReceivedAt)),
			)
			return nil
		},
	}
}
