package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// GlobalReportTitle is the title of the overall record of a global report.
const GlobalReportTitle = "Coverage"

// Report lifecycle errors.
var (
	ErrNotInitialized     = errors.New("report not initialized")
	ErrAlreadyInitialized = errors.New("report already initialized")
)

// ReportParser is a port that reads a coverage report file into raw
// per-file records. Implementations live in the infrastructure layer.
// The returned order is the display order and must be preserved.
type ReportParser interface {
	Parse(ctx context.Context, path string, reportType ReportType) ([]FileRecord, error)
}

// CoverageReport aggregates the file records of one input report, or the
// overall records of several reports in the global case.
type CoverageReport struct {
	path        string
	reportType  ReportType
	title       string
	filesReport []FileCoverageReport
	overall     FileCoverageReport
	initialized bool
}

// NewCoverageReport validates the report type and stores the configuration.
// No I/O happens until Init.
func NewCoverageReport(path string, reportType ReportType, title string) (*CoverageReport, error) {
	resolved, err := ResolveReportType(path, reportType)
	if err != nil {
		return nil, err
	}
	return &CoverageReport{
		path:       path,
		reportType: resolved,
		title:      title,
	}, nil
}

// Init parses the report, enhances every file record and computes the
// overall record. A report is unusable until Init succeeds.
func (r *CoverageReport) Init(ctx context.Context, parser ReportParser) error {
	if r.initialized {
		return ErrAlreadyInitialized
	}
	if r.reportType == ReportTypeGlobal {
		return fmt.Errorf("%w: global reports are aggregated, not parsed", ErrUnsupportedReport)
	}
	records, err := parser.Parse(ctx, r.path, r.reportType)
	if err != nil {
		return fmt.Errorf("parse %s: %w", r.path, err)
	}

	files := make([]FileCoverageReport, len(records))
	for i, rec := range records {
		files[i] = Enhance(rec)
	}
	r.filesReport = files
	r.overall = Overall(files)
	r.overall.Title = r.DisplayName()
	r.initialized = true
	return nil
}

// Path returns the source path of the report (empty for a global report).
func (r *CoverageReport) Path() string {
	return r.path
}

// Type returns the resolved report type.
func (r *CoverageReport) Type() ReportType {
	return r.reportType
}

// Title returns the explicit title given at construction, if any.
func (r *CoverageReport) Title() string {
	return r.title
}

// DisplayName is the explicit title, or the base name of the path.
func (r *CoverageReport) DisplayName() string {
	if r.title != "" {
		return r.title
	}
	return baseName(r.path)
}

// IsGlobal reports whether this is the synthetic cross-report aggregate.
func (r *CoverageReport) IsGlobal() bool {
	return r.reportType == ReportTypeGlobal
}

// IsInitialized reports whether Init completed.
func (r *CoverageReport) IsInitialized() bool {
	return r.initialized
}

// FilesReport returns a copy of the enhanced file records in display order.
func (r *CoverageReport) FilesReport() []FileCoverageReport {
	return slices.Clone(r.filesReport)
}

// OverallReport returns the enhanced sum of FilesReport.
func (r *CoverageReport) OverallReport() FileCoverageReport {
	return r.overall
}

// RequireInitialized returns ErrNotInitialized for the first non-nil report
// whose Init has not completed. Uninitialized reports read as empty.
func RequireInitialized(reports ...*CoverageReport) error {
	for _, r := range reports {
		if r != nil && !r.IsInitialized() {
			return fmt.Errorf("%w: %s", ErrNotInitialized, r.DisplayName())
		}
	}
	return nil
}

// GenerateGlobalReport aggregates the overall records of the given reports.
// It returns nil when fewer than two initialized reports are given.
func GenerateGlobalReport(reports []*CoverageReport) *CoverageReport {
	overalls := make([]FileCoverageReport, 0, len(reports))
	for _, r := range reports {
		if r == nil || !r.initialized {
			continue
		}
		overalls = append(overalls, r.overall)
	}
	if len(overalls) < 2 {
		return nil
	}

	global := &CoverageReport{
		reportType:  ReportTypeGlobal,
		filesReport: overalls,
		initialized: true,
	}
	global.overall = Overall(overalls)
	global.overall.Title = GlobalReportTitle
	return global
}
