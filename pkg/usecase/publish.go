package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/interfaces"
	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/domain/types"
)

const (
	// DefaultPollAttempts is the propagation confirmation retry budget.
	DefaultPollAttempts = 60
	// DefaultPollInterval is the fixed delay between confirmation attempts.
	DefaultPollInterval = time.Second
)

type publishUseCase struct {
	repo        interfaces.Repository
	provisioner interfaces.Provisioner

	remote       string
	tagMessage   string
	pollAttempts int
	pollInterval time.Duration
}

// Option configures the publish use case.
type Option func(*publishUseCase)

// WithRemote sets the remote name the tag is pushed to and confirmed against.
func WithRemote(remote string) Option {
	return func(uc *publishUseCase) {
		if remote != "" {
			uc.remote = remote
		}
	}
}

// WithTagMessage overrides the annotated tag message. The tag name is
// substituted for a %s verb when present.
func WithTagMessage(message string) Option {
	return func(uc *publishUseCase) {
		if message != "" {
			uc.tagMessage = message
		}
	}
}

// WithPollAttempts sets the propagation confirmation retry budget.
func WithPollAttempts(attempts int) Option {
	return func(uc *publishUseCase) {
		if attempts > 0 {
			uc.pollAttempts = attempts
		}
	}
}

// WithPollInterval sets the delay between confirmation attempts.
func WithPollInterval(interval time.Duration) Option {
	return func(uc *publishUseCase) {
		if interval > 0 {
			uc.pollInterval = interval
		}
	}
}

// NewPublish creates the tag publication use case.
func NewPublish(repo interfaces.Repository, provisioner interfaces.Provisioner, opts ...Option) interfaces.Publisher {
	uc := &publishUseCase{
		repo:         repo,
		provisioner:  provisioner,
		remote:       "origin",
		tagMessage:   "Release %s",
		pollAttempts: DefaultPollAttempts,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Publish runs the pipeline: validate, provision signing environment, create
// and verify the signed tag, push, confirm remote propagation. The signing
// environment is torn down and the secrets cleared on every exit path.
func (uc *publishUseCase) Publish(ctx context.Context, trigger *model.MergeTrigger, secrets *model.SigningSecrets) (*model.PublishResult, error) {
	logger := ctxlog.From(ctx)
	defer secrets.Clear()

	if !trigger.ShouldPublish() {
		logger.Info("Skipping event: not a completed release branch merge",
			"branch", string(trigger.Branch),
			"merged", trigger.Merged,
			"repository", trigger.Repository,
		)
		return &model.PublishResult{TagCreated: false}, nil
	}

	tag, err := uc.validate(ctx, trigger.Branch)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting tag publication",
		"branch", string(trigger.Branch),
		"tag", string(tag),
		"remote", uc.remote,
	)

	env, err := uc.provisioner.Provision(ctx, secrets)
	if err != nil {
		return nil, err
	}
	defer env.Teardown(ctx)

	if err := uc.repo.CreateSignedTag(ctx, tag, uc.messageFor(tag), env); err != nil {
		return nil, err
	}
	logger.Info("Created signed tag", "tag", string(tag))

	if err := uc.repo.PushTag(ctx, uc.remote, tag); err != nil {
		return nil, err
	}
	logger.Info("Pushed tag to remote", "tag", string(tag), "remote", uc.remote)

	if err := uc.confirmPropagation(ctx, tag); err != nil {
		return nil, err
	}

	return &model.PublishResult{
		TagCreated: true,
		TagName:    tag,
	}, nil
}

// validate derives the tag from the branch name and guards against
// republishing an already existing tag. Repository state is not modified.
func (uc *publishUseCase) validate(ctx context.Context, branch model.ReleaseBranchRef) (model.ReleaseTag, error) {
	tag, err := model.ParseReleaseBranch(branch)
	if err != nil {
		return "", err
	}
	exists, err := uc.repo.TagExists(ctx, tag)
	if err != nil {
		return "", err
	}
	if exists {
		return "", goerr.Wrap(types.ErrTagAlreadyExists, "tag was already published",
			goerr.V("tag", string(tag)))
	}
	return tag, nil
}

// confirmPropagation polls the remote until the tag is visible or the retry
// budget is exhausted. Remote visibility can lag the push acknowledgment, so
// a single check is not enough. Polling stops on the first positive
// observation. Query errors count as negative observations; the next attempt
// may still succeed.
func (uc *publishUseCase) confirmPropagation(ctx context.Context, tag model.ReleaseTag) error {
	logger := ctxlog.From(ctx)

	for attempt := 1; attempt <= uc.pollAttempts; attempt++ {
		found, err := uc.repo.RemoteTagExists(ctx, uc.remote, tag)
		if err != nil {
			logger.Warn("Remote tag query failed",
				"tag", string(tag),
				"attempt", attempt,
				"error", err,
			)
		} else if found {
			logger.Info("Tag confirmed on remote",
				"tag", string(tag),
				"attempts", attempt,
			)
			return nil
		}

		if attempt < uc.pollAttempts {
			select {
			case <-ctx.Done():
				return goerr.Wrap(ctx.Err(), "cancelled while waiting for tag propagation",
					goerr.V("tag", string(tag)), goerr.V("attempts", attempt))
			case <-time.After(uc.pollInterval):
			}
		}
	}

	return goerr.Wrap(types.ErrPropagationTimeout,
		"tag did not become visible on remote within retry budget; it may still exist remotely",
		goerr.V("tag", string(tag)), goerr.V("attempts", uc.pollAttempts))
}

func (uc *publishUseCase) messageFor(tag model.ReleaseTag) string {
	if containsVerb(uc.tagMessage) {
		return fmt.Sprintf(uc.tagMessage, tag)
	}
	return uc.tagMessage
}

func containsVerb(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '%' && s[i+1] == 's' {
			return true
		}
	}
	return false
}
