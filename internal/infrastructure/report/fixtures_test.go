package report

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
)

type stubParser map[string][]domain.FileRecord

func (p stubParser) Parse(_ context.Context, path string, _ domain.ReportType) ([]domain.FileRecord, error) {
	recs, ok := p[path]
	if !ok {
		return nil, errors.New("no such report")
	}
	return recs, nil
}

func raw(found, hit int) domain.RawSummary {
	return domain.RawSummary{Counter: domain.Counter{Found: found, Hit: hit}}
}

var fixtures = stubParser{
	"a.info": {
		{File: "/ws/src/a.go", Lines: raw(4, 2), Functions: raw(2, 2)},
	},
	"coverage/lcov.info": {
		{File: "src/coverage-report.ts", Lines: raw(43, 41), Functions: raw(10, 10), Branches: raw(12, 9)},
		{File: "src/renderer.ts", Lines: raw(15, 15), Functions: raw(7, 7), Branches: raw(42, 27)},
	},
	"build/jacoco.xml": {
		{File: "Utils.java", Lines: raw(7, 3), Functions: raw(7, 3)},
		{File: "Math.kt", Lines: raw(4, 2), Functions: raw(4, 2)},
	},
}

func buildReport(path, title string) *domain.CoverageReport {
	r, err := domain.NewCoverageReport(path, "", title)
	if err != nil {
		panic(err)
	}
	if err := r.Init(context.Background(), fixtures); err != nil {
		panic(err)
	}
	return r
}

func sampleResult() application.ReportResult {
	reports := []*domain.CoverageReport{
		buildReport("coverage/lcov.info", "Frontend"),
		buildReport("build/jacoco.xml", ""),
	}
	global := domain.GenerateGlobalReport(reports)
	reqs := domain.CoverageRequirements{
		File:   domain.CoverageRequirement{Error: 50, Warn: 80},
		Report: domain.CoverageRequirement{Error: 60, Warn: 90},
		Global: domain.CoverageRequirement{Error: 50, Warn: 90},
	}
	return application.ReportResult{
		Title:        "Nightly",
		Reports:      reports,
		Global:       global,
		Requirements: reqs,
		Unmet:        domain.UnmetRequirements(reports, global, reqs),
		Failures: []application.ReportFailure{
			{Path: "missing.info", Err: errors.New("open missing.info: no such file or directory")},
		},
	}
}
