// Package action adapts the pipeline to GitHub Actions: it reads the workflow
// event payload and writes step outputs, summaries, and error annotations.
package action

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

// ParseEventPayload extracts the merge trigger from a pull_request event
// payload. Only a closed-and-merged pull request counts as a completed merge.
func ParseEventPayload(data []byte) (*model.MergeTrigger, error) {
	var event github.PullRequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, goerr.Wrap(err, "invalid event payload")
	}

	pr := event.GetPullRequest()
	if pr == nil {
		return nil, goerr.New("event payload has no pull request")
	}

	return &model.MergeTrigger{
		Branch:     model.ReleaseBranchRef(pr.GetHead().GetRef()),
		Merged:     event.GetAction() == "closed" && pr.GetMerged(),
		Repository: event.GetRepo().GetFullName(),
		Sender:     event.GetSender().GetLogin(),
		PRNumber:   event.GetNumber(),
		ReceivedAt: time.Now(),
	}, nil
}

// LoadEventPayload reads the event payload file the runner provides via
// GITHUB_EVENT_PATH and parses it.
func LoadEventPayload(path string) (*model.MergeTrigger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read event payload", goerr.V("path", path))
	}
	return ParseEventPayload(data)
}
