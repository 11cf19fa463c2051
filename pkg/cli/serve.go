package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagsmith/pkg/cli/config"
	controller "github.com/m-mizutani/tagsmith/pkg/controller/http"
	"github.com/m-mizutani/tagsmith/pkg/infra/gitrepo"
	"github.com/m-mizutani/tagsmith/pkg/infra/signing"
	"github.com/m-mizutani/tagsmith/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		gitCfg     config.Git
		signingCfg config.Signing
		retryCfg   config.Retry
	)

	flags := serverCfg.Flags()
	flags = append(flags, gitCfg.Flags()...)
	flags = append(flags, signingCfg.Flags()...)
	flags = append(flags, retryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server handling merge webhooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting tagsmith server",
				slog.String("addr", serverCfg.Addr),
				slog.String("repo_dir", gitCfg.RepoDir),
				slog.String("remote", gitCfg.Remote),
				slog.String("trunk", gitCfg.Trunk),
			)

			repo, err := gitrepo.Open(gitCfg.RepoDir,
				gitrepo.WithTrunk(gitCfg.Trunk),
				gitrepo.WithToken(gitCfg.Token),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to open repository")
			}

			publisher := usecase.NewPublish(repo, signing.NewFactory(),
				usecase.WithRemote(gitCfg.Remote),
				usecase.WithPollAttempts(int(retryCfg.PollAttempts)),
				usecase.WithPollInterval(retryCfg.PollInterval),
			)

			webhook := controller.NewWebhookHandler(
				serverCfg.WebhookSecret,
				publisher,
				signingCfg.Secrets,
			)

			server, err := controller.NewServer(
				ctx,
				webhook,
				controller.WithAddr(serverCfg.Addr),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
