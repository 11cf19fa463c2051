package action

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

// Output records the run's results for the invoking workflow: step outputs to
// the outputs file, a markdown summary to the summary file, and error
// annotations to the annotation stream. Missing file paths disable the
// corresponding output.
type Output struct {
	outputPath  string
	summaryPath string
	annotations io.Writer
	getenv      func(string) string
}

// NewOutput creates an Output with explicit destinations.
func NewOutput(outputPath, summaryPath string, annotations io.Writer) *Output {
	return &Output{
		outputPath:  outputPath,
		summaryPath: summaryPath,
		annotations: annotations,
		getenv:      os.Getenv,
	}
}

// NewOutputFromEnv creates an Output wired to the GitHub Actions runner
// environment.
func NewOutputFromEnv() *Output {
	return &Output{
		outputPath:  os.Getenv("GITHUB_OUTPUT"),
		summaryPath: os.Getenv("GITHUB_STEP_SUMMARY"),
		annotations: os.Stdout,
		getenv:      os.Getenv,
	}
}

// WriteResult records a completed run: step outputs plus the summary line.
// Nothing is written for a skipped run, and failed runs must go through
// WriteError instead.
func (o *Output) WriteResult(trigger *model.MergeTrigger, result *model.PublishResult) error {
	if !result.TagCreated {
		return nil
	}

	o.fillLinks(trigger, result)

	if o.outputPath != "" {
		outputs := fmt.Sprintf("tag_created=true\ntag_name=%s\n", result.TagName)
		if err := appendFile(o.outputPath, outputs); err != nil {
			return goerr.Wrap(err, "failed to write step outputs", goerr.V("path", o.outputPath))
		}
	}
	if o.summaryPath != "" {
		if err := appendFile(o.summaryPath, result.Summary()+"\n"); err != nil {
			return goerr.Wrap(err, "failed to write step summary", goerr.V("path", o.summaryPath))
		}
	}
	return nil
}

// WriteError emits an error annotation for the workflow log.
func (o *Output) WriteError(err error) {
	if o.annotations == nil || err == nil {
		return
	}
	fmt.Fprintf(o.annotations, "::error::%s\n", escapeAnnotation(err.Error()))
}

// fillLinks derives the tag and workflow-run links from the runner
// environment when available.
func (o *Output) fillLinks(trigger *model.MergeTrigger, result *model.PublishResult) {
	server := o.getenv("GITHUB_SERVER_URL")
	if server == "" {
		server = "https://github.com"
	}
	repo := trigger.Repository
	if repo == "" {
		repo = o.getenv("GITHUB_REPOSITORY")
	}
	if repo == "" {
		return
	}

	result.TagURL = fmt.Sprintf("%s/%s/releases/tag/%s", server, repo, result.TagName)
	if runID := o.getenv("GITHUB_RUN_ID"); runID != "" {
		result.RunURL = fmt.Sprintf("%s/%s/actions/runs/%s", server, repo, runID)
	}
}

// escapeAnnotation encodes the characters the workflow command syntax
// reserves.
func escapeAnnotation(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		"\r", "%0D",
		"\n", "%0A",
	)
	return r.Replace(s)
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}
