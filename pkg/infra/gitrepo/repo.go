// Package gitrepo implements the repository operations of the publication
// pipeline on top of go-git.
package gitrepo

import (
	"context"
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

// Repo wraps a local git working copy of the repository being released.
type Repo struct {
	repo  *gogit.Repository
	auth  transport.AuthMethod
	trunk string
}

// Option configures a Repo.
type Option func(*Repo)

// WithAuth sets the transport authentication for push and remote queries.
func WithAuth(auth transport.AuthMethod) Option {
	return func(r *Repo) {
		r.auth = auth
	}
}

// WithTrunk pins tag creation to the head of the named branch. Without it the
// current HEAD is used, whatever ref the clone happens to have checked out.
func WithTrunk(branch string) Option {
	return func(r *Repo) {
		r.trunk = branch
	}
}

// WithToken sets HTTP token authentication in the form GitHub Actions uses.
// An empty token leaves the transport unauthenticated.
func WithToken(token string) Option {
	return func(r *Repo) {
		if token != "" {
			r.auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
		}
	}
}

// Open opens the repository containing path.
func Open(path string, opts ...Option) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open repository", goerr.V("path", path))
	}
	return New(repo, opts...), nil
}

// New wraps an already opened go-git repository.
func New(repo *gogit.Repository, opts ...Option) *Repo {
	r := &Repo{repo: repo}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TagExists reports whether the tag name resolves to a reference in the local
// clone. This is a read-only query.
func (r *Repo) TagExists(ctx context.Context, tag model.ReleaseTag) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewTagReferenceName(string(tag)), true)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, goerr.Wrap(err, "failed to look up tag reference", goerr.V("tag", tag))
}
