package gitrepo

import (
	"context"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/interfaces"
	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/domain/types"
)

// Fallback tagger identity, used when the signing key carries no user ID.
const (
	defaultTaggerName  = "tagsmith"
	defaultTaggerEmail = "tagsmith@localhost"
)

// CreateSignedTag creates an annotated tag at the trunk branch head (or the
// current HEAD when no trunk is configured), signed with the signer's key,
// and verifies the signature of the created tag object before returning. A
// tag that fails verification stays local and must never be pushed.
func (r *Repo) CreateSignedTag(ctx context.Context, tag model.ReleaseTag, message string, signer interfaces.Signer) error {
	target, err := r.tagTarget()
	if err != nil {
		return err
	}

	name, email := taggerIdentity(signer)
	ref, err := r.repo.CreateTag(string(tag), target, &gogit.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  name,
			Email: email,
			When:  time.Now(),
		},
		Message: message,
		SignKey: signer.SignKey(),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create annotated tag",
			goerr.V("tag", tag), goerr.V("target", target.String()))
	}

	tagObj, err := r.repo.TagObject(ref.Hash())
	if err != nil {
		return goerr.Wrap(types.ErrSignatureVerificationFailed, "created tag object not readable",
			goerr.V("tag", tag), goerr.V("cause", err))
	}
	if _, err := tagObj.Verify(signer.VerifyKeyring()); err != nil {
		return goerr.Wrap(types.ErrSignatureVerificationFailed, "tag signature did not verify",
			goerr.V("tag", tag), goerr.V("cause", err))
	}
	return nil
}

// tagTarget resolves the commit the tag points at. With a trunk branch
// configured the tag always targets that branch's head; the clone may have any
// other ref checked out, such as the just-merged release branch.
func (r *Repo) tagTarget() (plumbing.Hash, error) {
	if r.trunk == "" {
		head, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, goerr.Wrap(err, "failed to resolve HEAD")
		}
		return head.Hash(), nil
	}
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(r.trunk), true)
	if err != nil {
		return plumbing.ZeroHash, goerr.Wrap(err, "failed to resolve trunk branch",
			goerr.V("trunk", r.trunk))
	}
	return ref.Hash(), nil
}

// taggerIdentity derives the tagger from the signing key's first user ID.
func taggerIdentity(signer interfaces.Signer) (string, string) {
	entity := signer.SignKey()
	if entity != nil {
		for _, id := range entity.Identities {
			if id.UserId != nil && id.UserId.Email != "" {
				return id.UserId.Name, id.UserId.Email
			}
		}
	}
	return defaultTaggerName, defaultTaggerEmail
}
