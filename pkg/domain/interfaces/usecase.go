package interfaces

import (
	"context"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

// Publisher defines the tag publication pipeline.
type Publisher interface {
	// Publish runs the full pipeline for a merge trigger: validation, signing
	// environment provisioning, signed tag creation, push, and remote
	// propagation confirmation. The signing environment is torn down on every
	// exit path. A trigger that is not a completed release branch merge is
	// skipped without error.
	Publish(ctx context.Context, trigger *model.MergeTrigger, secrets *model.SigningSecrets) (*model.PublishResult, error)
}
