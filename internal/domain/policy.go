package domain

import "fmt"

// Titles used for unmet requirements that do not belong to a single file.
const (
	GlobalCoverageTitle = "Global Coverage"
	ReportTitlePrefix   = "Report: "
)

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
)

// Icon returns the marker rendered next to a classified row.
func (s Status) Icon() string {
	switch s {
	case StatusFail:
		return "❌️"
	case StatusWarn:
		return "⚠️"
	default:
		return "✔️"
	}
}

// CoverageRequirement holds the minimum percentages of one tier.
// Error is expected to be <= Warn; 0 disables that level.
type CoverageRequirement struct {
	Error float64 `json:"error" yaml:"error"`
	Warn  float64 `json:"warn" yaml:"warn"`
}

// Classify returns FAIL below an active error threshold, WARN below an
// active warn threshold, and PASS otherwise.
func (r CoverageRequirement) Classify(percentage float64) Status {
	errorAt, warnAt := Threshold{value: r.Error}, Threshold{value: r.Warn}
	if errorAt.IsViolatedBy(percentage) {
		return StatusFail
	}
	if warnAt.IsViolatedBy(percentage) {
		return StatusWarn
	}
	return StatusPass
}

// Validate checks that both thresholds lie in [0, 100].
func (r CoverageRequirement) Validate() error {
	if _, err := NewThreshold(r.Error); err != nil {
		return fmt.Errorf("error %v: %w", r.Error, err)
	}
	if _, err := NewThreshold(r.Warn); err != nil {
		return fmt.Errorf("warn %v: %w", r.Warn, err)
	}
	return nil
}

// Classify is the free-function form of CoverageRequirement.Classify.
func Classify(percentage float64, requirement CoverageRequirement) Status {
	return requirement.Classify(percentage)
}

// CoverageRequirements bundles the requirement of each tier.
type CoverageRequirements struct {
	File   CoverageRequirement `json:"file" yaml:"file"`
	Report CoverageRequirement `json:"report" yaml:"report"`
	Global CoverageRequirement `json:"global" yaml:"global"`
}

// Validate checks every tier.
func (r CoverageRequirements) Validate() error {
	tiers := []struct {
		name string
		req  CoverageRequirement
	}{
		{"file", r.File},
		{"report", r.Report},
		{"global", r.Global},
	}
	for _, tier := range tiers {
		if err := tier.req.Validate(); err != nil {
			return fmt.Errorf("%s threshold %w", tier.name, err)
		}
	}
	return nil
}

// UnmetRequirement is one error-level threshold violation.
type UnmetRequirement struct {
	Title       string  `json:"title"`
	File        string  `json:"file,omitempty"`
	Requirement float64 `json:"requirement"`
	Coverage    float64 `json:"coverage"`
}

// UnmetRequirements walks the global report, then every report and its
// files in order, and returns one entry per node whose statements
// percentage is below the error threshold of its tier. Warn-level
// shortfalls are not reported here.
func UnmetRequirements(reports []*CoverageReport, global *CoverageReport, requirements CoverageRequirements) []UnmetRequirement {
	var unmet []UnmetRequirement

	if global != nil {
		coverage := global.overall.Statements.Percentage
		if requirements.Global.Classify(coverage) == StatusFail {
			// The reported requirement is the file tier's error threshold;
			// existing consumers of the violation list rely on it.
			unmet = append(unmet, UnmetRequirement{
				Title:       GlobalCoverageTitle,
				File:        GlobalCoverageTitle,
				Requirement: requirements.File.Error,
				Coverage:    coverage,
			})
		}
	}

	for _, report := range reports {
		if report == nil {
			continue
		}
		coverage := report.overall.Statements.Percentage
		if requirements.Report.Classify(coverage) == StatusFail {
			unmet = append(unmet, UnmetRequirement{
				Title:       ReportTitlePrefix + report.path,
				File:        report.path,
				Requirement: requirements.Report.Error,
				Coverage:    coverage,
			})
		}
		for _, file := range report.filesReport {
			coverage := file.Statements.Percentage
			if requirements.File.Classify(coverage) == StatusFail {
				unmet = append(unmet, UnmetRequirement{
					Title:       file.Title,
					File:        file.File,
					Requirement: requirements.File.Error,
					Coverage:    coverage,
				})
			}
		}
	}

	return unmet
}
