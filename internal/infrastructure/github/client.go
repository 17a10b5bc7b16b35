// Package github provides the GitHub API client used to publish reports.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/felixgeelhaar/covreport/internal/application"
)

const (
	// DefaultAPIURL is the default GitHub API endpoint
	DefaultAPIURL = "https://api.github.com"
	// commentsPerPage is the page size used when listing comments.
	commentsPerPage = 20
)

// Client implements application.PRClient for the GitHub REST API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewClient creates a new GitHub client.
// Token is read from GITHUB_TOKEN and the endpoint from GITHUB_API_URL when
// not provided.
func NewClient(token string) *Client {
	return NewClientWithHTTP(token, &http.Client{}, os.Getenv("GITHUB_API_URL"))
}

// NewClientWithHTTP creates a client with a custom HTTP client (for testing).
func NewClientWithHTTP(token string, httpClient *http.Client, apiURL string) *Client {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		token:      token,
	}
}

type comment struct {
	ID      int64  `json:"id"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

func (c comment) toComment() application.Comment {
	return application.Comment{ID: c.ID, Body: c.Body, URL: c.HTMLURL}
}

type checkRunOutput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type checkRunRequest struct {
	Name       string         `json:"name,omitempty"`
	HeadSHA    string         `json:"head_sha,omitempty"`
	Status     string         `json:"status"`
	Conclusion string         `json:"conclusion,omitempty"`
	Output     checkRunOutput `json:"output"`
}

type checkRun struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// ListComments returns every comment of the pull request, oldest first.
func (c *Client) ListComments(ctx context.Context, repo application.Repository, prNumber int) ([]application.Comment, error) {
	var all []application.Comment
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", fmt.Sprint(page))
		query.Set("per_page", fmt.Sprint(commentsPerPage))
		endpoint := fmt.Sprintf("%s/issues/%d/comments?%s", c.repoURL(repo), prNumber, query.Encode())

		var comments []comment
		if err := c.do(ctx, http.MethodGet, endpoint, nil, http.StatusOK, &comments); err != nil {
			return nil, err
		}
		for _, cm := range comments {
			all = append(all, cm.toComment())
		}
		if len(comments) < commentsPerPage {
			return all, nil
		}
	}
}

// CreateComment creates a new comment on a PR.
func (c *Client) CreateComment(ctx context.Context, repo application.Repository, prNumber int, body string) (application.Comment, error) {
	endpoint := fmt.Sprintf("%s/issues/%d/comments", c.repoURL(repo), prNumber)
	var created comment
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"body": body}, http.StatusCreated, &created); err != nil {
		return application.Comment{}, err
	}
	return created.toComment(), nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, repo application.Repository, commentID int64, body string) (application.Comment, error) {
	endpoint := fmt.Sprintf("%s/issues/comments/%d", c.repoURL(repo), commentID)
	var updated comment
	if err := c.do(ctx, http.MethodPatch, endpoint, map[string]string{"body": body}, http.StatusOK, &updated); err != nil {
		return application.Comment{}, err
	}
	return updated.toComment(), nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, repo application.Repository, commentID int64) error {
	endpoint := fmt.Sprintf("%s/issues/comments/%d", c.repoURL(repo), commentID)
	return c.do(ctx, http.MethodDelete, endpoint, nil, http.StatusNoContent, nil)
}

// CreateCommitComment comments on a commit.
func (c *Client) CreateCommitComment(ctx context.Context, repo application.Repository, sha, body string) (application.Comment, error) {
	endpoint := fmt.Sprintf("%s/commits/%s/comments", c.repoURL(repo), url.PathEscape(sha))
	var created comment
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"body": body}, http.StatusCreated, &created); err != nil {
		return application.Comment{}, err
	}
	return created.toComment(), nil
}

// CreateCheckRun starts an in-progress check run on headSHA.
func (c *Client) CreateCheckRun(ctx context.Context, repo application.Repository, name, headSHA string, output application.CheckRunOutput) (application.CheckRun, error) {
	payload := checkRunRequest{
		Name:    name,
		HeadSHA: headSHA,
		Status:  "in_progress",
		Output:  checkRunOutput(output),
	}
	var created checkRun
	if err := c.do(ctx, http.MethodPost, c.repoURL(repo)+"/check-runs", payload, http.StatusCreated, &created); err != nil {
		return application.CheckRun{}, err
	}
	return application.CheckRun{ID: created.ID, URL: created.HTMLURL}, nil
}

// CompleteCheckRun marks a check run completed with the given conclusion.
func (c *Client) CompleteCheckRun(ctx context.Context, repo application.Repository, checkRunID int64, conclusion string, output application.CheckRunOutput) error {
	payload := checkRunRequest{
		Status:     "completed",
		Conclusion: conclusion,
		Output:     checkRunOutput(output),
	}
	endpoint := fmt.Sprintf("%s/check-runs/%d", c.repoURL(repo), checkRunID)
	return c.do(ctx, http.MethodPatch, endpoint, payload, http.StatusOK, nil)
}

func (c *Client) repoURL(repo application.Repository) string {
	return fmt.Sprintf("%s/repos/%s/%s", c.apiURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
}

// do sends a JSON request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any, wantStatus int, out any) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub API error: %s - %s", resp.Status, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setHeaders sets common headers for GitHub API requests.
func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
