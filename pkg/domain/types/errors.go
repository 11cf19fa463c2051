package types

import "github.com/m-mizutani/goerr/v2"

// Pipeline errors. Each fatal failure mode of the tag publication pipeline has
// its own sentinel so that callers can distinguish them with errors.Is.
var (
	// ErrInvalidBranchFormat is returned when the triggering branch name does
	// not match the release branch naming pattern.
	ErrInvalidBranchFormat = goerr.New("branch name does not match release branch format")

	// ErrEmptyTag is returned when no tag name can be derived from the branch.
	ErrEmptyTag = goerr.New("derived tag name is empty")

	// ErrTagTooLong is returned when the derived tag name exceeds the maximum
	// allowed length.
	ErrTagTooLong = goerr.New("derived tag name exceeds maximum length")

	// ErrTagAlreadyExists is returned when the derived tag already resolves to
	// an object in the local repository.
	ErrTagAlreadyExists = goerr.New("tag already exists in repository")

	// ErrSigningSetupFailed is returned when the isolated signing environment
	// cannot be provisioned or its signing self-test fails.
	ErrSigningSetupFailed = goerr.New("signing environment setup failed")

	// ErrSignatureVerificationFailed is returned when a locally created tag
	// fails its signature check. The tag must never be pushed in this state.
	ErrSignatureVerificationFailed = goerr.New("tag signature verification failed")

	// ErrPushFailed is returned when the remote rejects the tag push.
	ErrPushFailed = goerr.New("failed to push tag to remote")

	// ErrPropagationTimeout is returned when the push succeeded but the tag
	// did not become visible on the remote within the retry budget. The tag
	// may still exist remotely; callers must not assume it is absent.
	ErrPropagationTimeout = goerr.New("tag propagation could not be confirmed on remote")
)
