package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PublishHandler posts rendered coverage reports to the CI host.
type PublishHandler struct {
	Reports  *ReportHandler
	Renderer CommentRenderer
	Client   PRClient
	Logger   *log.Logger
	Tracer   trace.Tracer
	Now      func() time.Time
}

// Publish builds the reports, renders them and publishes the result: a check
// run plus a single up-to-date comment on pull requests, a commit comment on
// pushes. Publishing errors are logged and never fail the run; unmet
// requirements fail it only when FailOnUnmet is set.
func (h *PublishHandler) Publish(ctx context.Context, opts PublishOptions) (PublishResult, error) {
	if h.Renderer == nil {
		return PublishResult{}, fmt.Errorf("comment renderer not configured")
	}
	if !opts.DryRun && h.Client == nil {
		return PublishResult{}, fmt.Errorf("publishing client not configured")
	}

	ctx, span := h.tracer().Start(ctx, "covreport.publish",
		trace.WithAttributes(
			attribute.String("covreport.event", opts.CI.EventName),
			attribute.Bool("covreport.dry_run", opts.DryRun),
		))
	defer span.End()

	cfg, err := h.Reports.LoadConfig(opts.ReportOptions)
	if err != nil {
		return PublishResult{}, err
	}
	sources, err := h.Reports.ResolveSources(cfg)
	if err != nil {
		return PublishResult{}, err
	}

	title := checkTitle(cfg.Title)
	header := messageHeader(title, opts.CI.PullRequestID)
	publishing := !opts.DryRun
	isPR := opts.CI.IsPullRequest()

	result := PublishResult{Conclusion: ConclusionSuccess}

	var check CheckRun
	if publishing && isPR {
		h.logger().Info("setting check in progress", "name", title)
		check, err = h.Client.CreateCheckRun(ctx, opts.CI.Repository, title, opts.CI.SHA, CheckRunOutput{
			Title:   title,
			Summary: "In progress...",
		})
		if err != nil {
			h.logger().Warn("could not create check run", "err", err)
			if cfg.FailOnUnmet {
				result.Conclusion = ConclusionFailure
			}
		}
		result.CheckRunID = check.ID
	}

	report := h.Reports.Generate(ctx, cfg, sources)
	result.Report = report

	render, err := h.Renderer.Render(CommentView{
		Repository:   opts.CI.Repository,
		Commit:       opts.CI.After,
		Workspace:    opts.CI.Workspace,
		Reports:      report.Reports,
		Global:       report.Global,
		Requirements: report.Requirements,
	})
	if err != nil {
		h.logger().Warn("could not render report", "err", err)
		if cfg.FailOnUnmet {
			result.Conclusion = ConclusionFailure
		}
	}
	result.Body = header + render

	if publishing && !(opts.DisableComment || cfg.DisableComment) {
		if err := h.postComment(ctx, opts.CI, header, render, &result); err != nil {
			h.logger().Warn("error posting comment", "err", err)
		}
	}

	if cfg.FailOnUnmet && !report.Passed() {
		result.Conclusion = ConclusionFailure
	}

	if publishing && isPR && check.ID != 0 {
		h.concludeCheck(ctx, opts.CI.Repository, check.ID, title, render, result.Conclusion)
	}

	if cfg.FailOnUnmet && !report.Passed() {
		return result, fmt.Errorf("%w: %d unmet", ErrRequirementsNotMet, len(report.Unmet))
	}
	return result, nil
}

func (h *PublishHandler) postComment(ctx context.Context, ci CIContext, header, render string, result *PublishResult) error {
	switch ci.EventName {
	case EventPullRequest:
		return h.postPullRequestComment(ctx, ci, header, render, result)
	case EventPush:
		h.logger().Info("posting commit comment", "sha", ci.SHA)
		comment, err := h.Client.CreateCommitComment(ctx, ci.Repository, ci.SHA, header+render)
		if err != nil {
			return err
		}
		result.CommentID, result.CommentURL, result.Created = comment.ID, comment.URL, true
	}
	return nil
}

func (h *PublishHandler) postPullRequestComment(ctx context.Context, ci CIContext, header, render string, result *PublishResult) error {
	if ci.PullRequestNumber == 0 {
		return errors.New("pull request number not available")
	}
	previous, err := h.previousComments(ctx, ci, header)
	if err != nil {
		return err
	}

	var comment Comment
	if len(previous) == 0 {
		h.logger().Info("no previous comments found, creating a new one")
		comment, err = h.Client.CreateComment(ctx, ci.Repository, ci.PullRequestNumber, header+render)
		result.Created = true
	} else {
		h.logger().Info("previous comment found, updating", "id", previous[0].ID)
		comment, err = h.Client.UpdateComment(ctx, ci.Repository, previous[0].ID, header+render+h.updateFooter())
	}
	if err != nil {
		return err
	}
	result.CommentID, result.CommentURL = comment.ID, comment.URL

	if surplus := previous[min(1, len(previous)):]; len(surplus) > 0 {
		h.logger().Info("removing surplus comments", "count", len(surplus))
		for _, c := range surplus {
			if err := h.Client.DeleteComment(ctx, ci.Repository, c.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// previousComments lists the comments on the pull request that carry the
// message header, oldest first.
func (h *PublishHandler) previousComments(ctx context.Context, ci CIContext, header string) ([]Comment, error) {
	comments, err := h.Client.ListComments(ctx, ci.Repository, ci.PullRequestNumber)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	matching := make([]Comment, 0, len(comments))
	for _, c := range comments {
		if containsHeader(c.Body, header) {
			matching = append(matching, c)
		}
	}
	return matching, nil
}

func (h *PublishHandler) concludeCheck(ctx context.Context, repo Repository, checkRunID int64, title, render, conclusion string) {
	summary, truncated := truncateSummary(render)
	if truncated {
		h.logger().Info("report exceeded GitHub size limit, truncating it", "bytes", len(render))
	}
	icon := "✔"
	if conclusion != ConclusionSuccess {
		icon = "❌"
	}
	output := CheckRunOutput{Title: title + " " + icon, Summary: summary}

	h.logger().Info("updating check run", "id", checkRunID, "conclusion", conclusion)
	if err := h.Client.CompleteCheckRun(ctx, repo, checkRunID, conclusion, output); err != nil {
		h.logger().Warn("there was an error posting check conclusion", "err", err)
		output.Summary = "There was an error posting check conclusion. See logs for more info."
		if err := h.Client.CompleteCheckRun(ctx, repo, checkRunID, conclusion, output); err != nil {
			h.logger().Error("could not conclude check run", "id", checkRunID, "err", err)
		}
	}
}

const footerTimeLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

func (h *PublishHandler) updateFooter() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return "<p>Last Update @ " + now().UTC().Format(footerTimeLayout) + "</p>"
}

func (h *PublishHandler) logger() *log.Logger {
	if h.Logger == nil {
		return log.New(io.Discard)
	}
	return h.Logger
}

func (h *PublishHandler) tracer() trace.Tracer {
	if h.Tracer == nil {
		return otel.Tracer(TracerName)
	}
	return h.Tracer
}

// checkTitle is the name of the check run and the text of the header.
func checkTitle(title string) string {
	if title == "" {
		return "Coverage Report"
	}
	return title + " | Coverage Report"
}

// messageHeader identifies comments posted by this tool. The data-id ties
// it to one pull request.
func messageHeader(title string, pullRequestID int64) string {
	if pullRequestID == 0 {
		return "<p>" + html.EscapeString(title) + "</p>"
	}
	return fmt.Sprintf(`<p data-id="%d">%s</p>`, pullRequestID, html.EscapeString(title))
}
