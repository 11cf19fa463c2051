package model

import "time"

// MergeTrigger represents a merge-completion event that may start a tag
// publication run.
type MergeTrigger struct {
	Branch     ReleaseBranchRef // Head branch of the merged pull request
	Merged     bool             // Merge-completion flag from the event
	Repository string           // Repository full name (owner/name)
	Sender     string           // User who triggered the event
	PRNumber   int              // Pull request number
	ReceivedAt time.Time        // Time when the event was received
}

// ShouldPublish reports whether the event is a completed merge of a release
// branch. Anything else is ignored without error.
func (t *MergeTrigger) ShouldPublish() bool {
	return t.Merged && t.Branch.IsReleaseBranch()
}
