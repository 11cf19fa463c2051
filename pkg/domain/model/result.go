package model

import "fmt"

// PublishResult is the outcome of a tag publication run. It is only produced
// when the run either completed fully or was skipped; failed runs return an
// error instead.
type PublishResult struct {
	TagCreated bool       // True when a tag was created and confirmed on the remote
	TagName    ReleaseTag // The published tag name
	TagURL     string     // Link to the created tag (optional)
	RunURL     string     // Link to the triggering workflow run (optional)
}

// Summary returns a human-readable one-liner for the run, with link-style
// references when URLs are available.
func (r *PublishResult) Summary() string {
	if !r.TagCreated {
		return "No release tag was created"
	}
	if r.TagURL != "" && r.RunURL != "" {
		return fmt.Sprintf("Created signed tag [`%s`](%s) from [workflow run](%s)", r.TagName, r.TagURL, r.RunURL)
	}
	return fmt.Sprintf("Created signed tag `%s`", r.TagName)
}
