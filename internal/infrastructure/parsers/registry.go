// Package parsers provides a unified registry for coverage report parsers.
//
// The registry dispatches on the report type and checks the content of the
// report against it before parsing.
package parsers

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/coverprofile"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/parsers/cobertura"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/parsers/detector"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/parsers/jacoco"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/parsers/lcov"
)

// ErrFormatMismatch is returned when the content of a report is recognized
// as a different format than its type.
var ErrFormatMismatch = errors.New("report content does not match its type")

// Parser reads one report format.
type Parser interface {
	Format() domain.ReportType
	Parse(ctx context.Context, path string) ([]domain.FileRecord, error)
}

// Registry manages the format parsers and implements domain.ReportParser.
type Registry struct {
	detector *detector.Detector
	parsers  map[domain.ReportType]Parser
}

// NewRegistry creates a new parser registry with all supported parsers.
func NewRegistry() *Registry {
	return NewRegistryWith(
		jacoco.New(),
		lcov.New(),
		cobertura.New(),
		coverprofile.Parser{},
	)
}

// NewRegistryWith creates a registry over the given parsers.
func NewRegistryWith(parsers ...Parser) *Registry {
	r := &Registry{
		detector: detector.New(),
		parsers:  make(map[domain.ReportType]Parser, len(parsers)),
	}
	for _, p := range parsers {
		r.parsers[p.Format()] = p
	}
	return r
}

// Parse reads the report at path with the parser of reportType.
func (r *Registry) Parse(ctx context.Context, path string, reportType domain.ReportType) ([]domain.FileRecord, error) {
	parser, ok := r.parsers[reportType]
	if !ok {
		return nil, fmt.Errorf("%w: no parser for type %q", domain.ErrUnsupportedReport, reportType)
	}

	detected, err := r.detector.DetectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if detected != "" && detected != reportType {
		return nil, fmt.Errorf("%w: %s looks like %s, not %s", ErrFormatMismatch, path, detected, reportType)
	}

	return parser.Parse(ctx, path)
}

// SupportedFormats returns the report types with a parser, sorted.
func (r *Registry) SupportedFormats() []domain.ReportType {
	formats := make([]domain.ReportType, 0, len(r.parsers))
	for format := range r.parsers {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// DetectLanguage detects the programming language of a project.
func (r *Registry) DetectLanguage(projectDir string) (detector.Language, error) {
	return r.detector.DetectLanguage(projectDir)
}

// DefaultPatterns returns the usual report locations for a language.
func (r *Registry) DefaultPatterns(lang detector.Language) []string {
	return r.detector.DefaultPatterns(lang)
}

// DefaultType returns the usual report type for a language.
func (r *Registry) DefaultType(lang detector.Language) domain.ReportType {
	return r.detector.DefaultType(lang)
}
