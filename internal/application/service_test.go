package application

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/covreport/internal/domain"
)

func newService(cfg Config, files []string) (*Service, *fakeReporter, *fakeBadgeWriter, *bytes.Buffer) {
	reporter := &fakeReporter{}
	badges := &fakeBadgeWriter{}
	out := &bytes.Buffer{}
	return &Service{
		Reports:  newReportHandler(cfg, files, newFakeParser()),
		Reporter: reporter,
		Badges:   badges,
		Out:      out,
	}, reporter, badges, out
}

func TestServiceReportWritesResult(t *testing.T) {
	svc, reporter, _, _ := newService(Config{Title: "App", Files: []string{"*"}}, []string{"build/jacoco.xml"})

	result, err := svc.Report(context.Background(), ReportOptions{Output: OutputJSON})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reporter.format != OutputJSON || reporter.last.Title != "App" || len(reporter.last.Reports) != 1 {
		t.Fatalf("unexpected reporter input: %+v", reporter.last)
	}
	if len(result.Reports) != 1 {
		t.Fatalf("expected one report")
	}
}

func TestServiceReportWriterError(t *testing.T) {
	svc, reporter, _, _ := newService(Config{Files: []string{"*"}}, []string{"build/jacoco.xml"})
	reporter.err = errBoom
	if _, err := svc.Report(context.Background(), ReportOptions{}); !errors.Is(err, errBoom) {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestServiceCheck(t *testing.T) {
	cfg := Config{
		Files:        []string{"*"},
		Requirements: domain.CoverageRequirements{File: domain.CoverageRequirement{Error: 60}},
	}
	svc, _, _, _ := newService(cfg, []string{"build/jacoco.xml"})
	if err := svc.Check(context.Background(), ReportOptions{}); !errors.Is(err, ErrRequirementsNotMet) {
		t.Fatalf("expected ErrRequirementsNotMet, got %v", err)
	}

	svc, _, _, _ = newService(cfg, []string{"coverage/lcov.info"})
	if err := svc.Check(context.Background(), ReportOptions{}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestServiceCommentRequiresPublisher(t *testing.T) {
	svc, _, _, _ := newService(Config{Files: []string{"*"}}, []string{"build/jacoco.xml"})
	if _, err := svc.Comment(context.Background(), PublishOptions{DryRun: true}); err == nil {
		t.Fatalf("expected error without publisher")
	}
}

func TestServiceBadgeUsesGlobalReport(t *testing.T) {
	cfg := Config{
		Files:        []string{"*"},
		Requirements: domain.CoverageRequirements{Global: domain.CoverageRequirement{Error: 60, Warn: 90}},
	}
	svc, _, badges, _ := newService(cfg, []string{"build/jacoco.xml", "coverage/lcov.info"})

	var buf bytes.Buffer
	badge, err := svc.Badge(context.Background(), BadgeOptions{Style: "flat"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := BadgeResult{Label: "coverage", Percent: 82.22, Status: domain.StatusWarn}
	if badge != want || badges.last != want {
		t.Fatalf("expected %+v, got %+v", want, badge)
	}
	if badges.style != "flat" || buf.String() != "<svg/>" {
		t.Fatalf("badge not written")
	}
}

func TestServiceBadgeSingleReport(t *testing.T) {
	cfg := Config{
		Files:        []string{"*"},
		Requirements: domain.CoverageRequirements{Report: domain.CoverageRequirement{Error: 60}},
	}
	svc, _, _, _ := newService(cfg, []string{"build/jacoco.xml"})

	badge, err := svc.Badge(context.Background(), BadgeOptions{Label: "java"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if badge.Label != "java" || badge.Percent != 53.85 || badge.Status != domain.StatusFail {
		t.Fatalf("unexpected badge %+v", badge)
	}
}

func TestServiceBadgeWithoutReports(t *testing.T) {
	parser := newFakeParser()
	parser.errs["broken.info"] = errBoom
	svc := &Service{
		Reports: newReportHandler(Config{Files: []string{"*"}}, []string{"broken.info"}, parser),
		Badges:  &fakeBadgeWriter{},
	}
	if _, err := svc.Badge(context.Background(), BadgeOptions{}, &bytes.Buffer{}); !errors.Is(err, ErrNoCoverageFiles) {
		t.Fatalf("expected ErrNoCoverageFiles, got %v", err)
	}
}
