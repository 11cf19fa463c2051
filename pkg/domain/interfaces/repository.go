package interfaces

import (
	"context"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

// Repository defines the git operations required by the publication pipeline.
type Repository interface {
	// TagExists reports whether the tag name already resolves to an object in
	// the local clone.
	TagExists(ctx context.Context, tag model.ReleaseTag) (bool, error)

	// CreateSignedTag creates an annotated tag at the trunk branch head,
	// signed through the given signer, and verifies the resulting signature
	// before returning.
	CreateSignedTag(ctx context.Context, tag model.ReleaseTag, message string, signer Signer) error

	// PushTag pushes the tag ref to the named remote.
	PushTag(ctx context.Context, remote string, tag model.ReleaseTag) error

	// RemoteTagExists queries the remote's advertised refs for the tag. Each
	// call is an independent read-only query.
	RemoteTagExists(ctx context.Context, remote string, tag model.ReleaseTag) (bool, error)
}
