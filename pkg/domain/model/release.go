package model

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tagsmith/pkg/domain/types"
)

// ReleaseBranchPrefix is the literal prefix shared by all release branches.
const ReleaseBranchPrefix = "release/"

// MaxTagLength is the maximum allowed length of a release tag name.
const MaxTagLength = 50

// Release branches encode a timestamped release identifier:
// release/<year>.<month>.<YYYYMMDDHHIISS>, e.g. release/2024.03.20240315120000
var releaseBranchPattern = regexp.MustCompile(`^release/\d{4}\.\d{1,2}\.\d{14}$`)

// ReleaseBranchRef is the raw branch name received from the trigger event.
type ReleaseBranchRef string

// IsReleaseBranch reports whether the branch name carries the release prefix.
// This is only the cheap trigger gate; full validation happens in
// ParseReleaseBranch.
func (r ReleaseBranchRef) IsReleaseBranch() bool {
	return strings.HasPrefix(string(r), ReleaseBranchPrefix)
}

// ReleaseTag is the tag name derived from a release branch. It is used as both
// the local and the remote tag name.
type ReleaseTag string

func (t ReleaseTag) String() string { return string(t) }

// ParseReleaseBranch validates the branch name against the release naming
// pattern and derives the tag name from it. The tag is the substring after the
// first path separator.
func ParseReleaseBranch(branch ReleaseBranchRef) (ReleaseTag, error) {
	if !releaseBranchPattern.MatchString(string(branch)) {
		return "", goerr.Wrap(types.ErrInvalidBranchFormat, "unexpected branch name",
			goerr.V("branch", string(branch)))
	}

	_, name, _ := strings.Cut(string(branch), "/")
	tag := ReleaseTag(name)
	if err := ValidateTagName(tag); err != nil {
		return "", err
	}
	return tag, nil
}

// ValidateTagName checks structural constraints on a candidate tag name. The
// checks cannot fail for a tag derived from a pattern-matching branch, but are
// kept as invariant assertions.
func ValidateTagName(tag ReleaseTag) error {
	if tag == "" {
		return goerr.Wrap(types.ErrEmptyTag, "no tag name after branch prefix")
	}
	if len(tag) > MaxTagLength {
		return goerr.Wrap(types.ErrTagTooLong, "tag name rejected",
			goerr.V("tag", string(tag)), goerr.V("length", len(tag)), goerr.V("max", MaxTagLength))
	}
	return nil
}
