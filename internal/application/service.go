package application

import (
	"context"
	"fmt"
	"io"
)

// Service is the entry point used by the command line.
type Service struct {
	Reports   *ReportHandler
	Publisher *PublishHandler
	Reporter  Reporter
	Badges    BadgeWriter
	Out       io.Writer
}

// Report builds the reports and writes them in the requested format.
func (s *Service) Report(ctx context.Context, opts ReportOptions) (ReportResult, error) {
	result, err := s.Reports.ReportResult(ctx, opts)
	if err != nil {
		return ReportResult{}, err
	}
	if err := s.Reporter.Write(s.Out, result, opts.Output); err != nil {
		return result, err
	}
	return result, nil
}

// Check is Report followed by enforcement of the error-level requirements.
func (s *Service) Check(ctx context.Context, opts ReportOptions) error {
	result, err := s.Report(ctx, opts)
	if err != nil {
		return err
	}
	if !result.Passed() {
		return fmt.Errorf("%w: %d unmet", ErrRequirementsNotMet, len(result.Unmet))
	}
	return nil
}

// Comment publishes the reports to the CI host.
func (s *Service) Comment(ctx context.Context, opts PublishOptions) (PublishResult, error) {
	if s.Publisher == nil {
		return PublishResult{}, fmt.Errorf("publisher not configured")
	}
	return s.Publisher.Publish(ctx, opts)
}

// Badge renders an SVG badge for the headline statements percentage.
func (s *Service) Badge(ctx context.Context, opts BadgeOptions, w io.Writer) (BadgeResult, error) {
	result, err := s.Reports.ReportResult(ctx, opts.ReportOptions)
	if err != nil {
		return BadgeResult{}, err
	}
	report, requirement, ok := result.Headline()
	if !ok {
		return BadgeResult{}, ErrNoCoverageFiles
	}

	label := opts.Label
	if label == "" {
		label = "coverage"
	}
	percent := report.OverallReport().Statements.Percentage
	badge := BadgeResult{
		Label:   label,
		Percent: percent,
		Status:  requirement.Classify(percent),
	}
	if err := s.Badges.WriteBadge(w, badge, opts.Style); err != nil {
		return BadgeResult{}, err
	}
	return badge, nil
}

// Watch regenerates the reports whenever a report file changes.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	handler := &WatchHandler{Reports: s.Reports}
	return handler.Watch(ctx, opts, watcher, callback)
}
