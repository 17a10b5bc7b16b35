package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/covreport/internal/application"
)

// ErrNotInActions is returned when the GitHub Actions environment is missing.
var ErrNotInActions = errors.New("not running in GitHub Actions")

type eventPayload struct {
	After       string `json:"after"`
	PullRequest *struct {
		ID     int64 `json:"id"`
		Number int   `json:"number"`
		Head   struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
}

// ContextFromEnv reads the run context from the GitHub Actions environment.
// getenv is usually os.Getenv.
func ContextFromEnv(getenv func(string) string) (application.CIContext, error) {
	repository := getenv("GITHUB_REPOSITORY")
	if repository == "" {
		return application.CIContext{}, fmt.Errorf("%w: GITHUB_REPOSITORY is not set", ErrNotInActions)
	}
	owner, name, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || name == "" {
		return application.CIContext{}, fmt.Errorf("invalid GITHUB_REPOSITORY %q", repository)
	}

	ci := application.CIContext{
		EventName:  getenv("GITHUB_EVENT_NAME"),
		Repository: application.Repository{Owner: owner, Name: name},
		SHA:        getenv("GITHUB_SHA"),
		Workspace:  getenv("GITHUB_WORKSPACE"),
	}

	if eventPath := getenv("GITHUB_EVENT_PATH"); eventPath != "" {
		raw, err := os.ReadFile(eventPath) // #nosec G304 - path is set by the runner
		if err != nil {
			return application.CIContext{}, fmt.Errorf("read event payload: %w", err)
		}
		var event eventPayload
		if err := json.Unmarshal(raw, &event); err != nil {
			return application.CIContext{}, fmt.Errorf("decode event payload: %w", err)
		}
		ci.After = event.After
		if event.PullRequest != nil {
			ci.PullRequestID = event.PullRequest.ID
			ci.PullRequestNumber = event.PullRequest.Number
			if ci.After == "" {
				ci.After = event.PullRequest.Head.SHA
			}
		}
	}
	if ci.After == "" {
		ci.After = ci.SHA
	}
	return ci, nil
}
