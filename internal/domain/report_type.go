package domain

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnsupportedReport is returned when a report's type cannot be inferred
// from its extension or is not one of the supported tags.
var ErrUnsupportedReport = errors.New("unsupported report")

// ReportType identifies the format of a coverage report.
type ReportType string

const (
	// ReportTypeJaCoCo is the JaCoCo XML format (inferred from .xml).
	ReportTypeJaCoCo ReportType = "jacoco"
	// ReportTypeLCOV is the LCOV tracefile format (inferred from .info).
	ReportTypeLCOV ReportType = "lcov"
	// ReportTypeCobertura is the Cobertura XML format (explicit only).
	ReportTypeCobertura ReportType = "cobertura"
	// ReportTypeGo is the Go cover profile format (explicit only).
	ReportTypeGo ReportType = "go"
	// ReportTypeGlobal tags the synthetic cross-report aggregate.
	ReportTypeGlobal ReportType = "global"
)

var supportedReportTypes = []ReportType{
	ReportTypeJaCoCo,
	ReportTypeLCOV,
	ReportTypeCobertura,
	ReportTypeGo,
	ReportTypeGlobal,
}

var extensionReportTypes = map[string]ReportType{
	"xml":  ReportTypeJaCoCo,
	"info": ReportTypeLCOV,
}

// IsSupported reports whether t is one of the supported tags.
func (t ReportType) IsSupported() bool {
	for _, s := range supportedReportTypes {
		if t == s {
			return true
		}
	}
	return false
}

// String returns the tag.
func (t ReportType) String() string {
	return string(t)
}

// ResolveReportType returns the explicit type when given, otherwise the type
// implied by the extension of path. Only "xml" and "info" are inferable.
func ResolveReportType(reportPath string, explicit ReportType) (ReportType, error) {
	if explicit != "" {
		t := ReportType(strings.ToLower(strings.TrimSpace(string(explicit))))
		if !t.IsSupported() {
			return "", fmt.Errorf("%w: type %q", ErrUnsupportedReport, explicit)
		}
		return t, nil
	}
	ext := strings.TrimPrefix(path.Ext(NormalizeSeparators(reportPath)), ".")
	if t, ok := extensionReportTypes[strings.ToLower(ext)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedReport, reportPath)
}
