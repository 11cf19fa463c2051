package gitrepo

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/domain/types"
)

// PushTag pushes only the tag ref to the named remote. A rejected push is
// fatal and not retried.
func (r *Repo) PushTag(ctx context.Context, remote string, tag model.ReleaseTag) error {
	refspec := config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag))
	err := r.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{refspec},
		Auth:       r.auth,
	})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(types.ErrPushFailed, "remote rejected tag push",
			goerr.V("remote", remote), goerr.V("tag", tag), goerr.V("cause", err))
	}
	return nil
}

// RemoteTagExists lists the remote's advertised refs and reports whether the
// tag is present. Each call contacts the remote independently.
func (r *Repo) RemoteTagExists(ctx context.Context, remote string, tag model.ReleaseTag) (bool, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		return false, goerr.Wrap(err, "failed to get remote", goerr.V("remote", remote))
	}
	refs, err := rem.ListContext(ctx, &gogit.ListOptions{Auth: r.auth})
	if err != nil {
		return false, goerr.Wrap(err, "failed to list remote refs", goerr.V("remote", remote))
	}
	want := plumbing.NewTagReferenceName(string(tag))
	for _, ref := range refs {
		if ref.Name() == want {
			return true, nil
		}
	}
	return false, nil
}
