package application

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/pathutil"
)

// TracerName is the instrumentation scope of application spans.
const TracerName = "github.com/felixgeelhaar/covreport"

// ReportHandler builds coverage reports from report files.
type ReportHandler struct {
	ConfigLoader ConfigLoader
	Finder       FileFinder
	Parser       domain.ReportParser
	Logger       *log.Logger
	Tracer       trace.Tracer
}

// ReportResult loads configuration, resolves report files and builds every
// report, the global report and the list of unmet requirements.
func (h *ReportHandler) ReportResult(ctx context.Context, opts ReportOptions) (ReportResult, error) {
	cfg, err := h.LoadConfig(opts)
	if err != nil {
		return ReportResult{}, err
	}
	sources, err := h.ResolveSources(cfg)
	if err != nil {
		return ReportResult{}, err
	}
	return h.Generate(ctx, cfg, sources), nil
}

// LoadConfig reads the config file when present and applies the options.
// Files, types and titles given on the command line replace configured ones.
func (h *ReportHandler) LoadConfig(opts ReportOptions) (Config, error) {
	cfg := Config{}
	if h.ConfigLoader != nil {
		path := opts.ConfigPath
		if path != "" {
			exists, err := h.ConfigLoader.Exists(path)
			if err != nil {
				return Config{}, err
			}
			if !exists {
				// Environment and flag overrides still apply.
				path = ""
			}
		}
		loaded, err := h.ConfigLoader.Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if len(opts.Files) > 0 {
		cfg.Files = opts.Files
	}
	if len(opts.Types) > 0 {
		cfg.Types = make([]domain.ReportType, len(opts.Types))
		for i, t := range opts.Types {
			cfg.Types[i] = domain.ReportType(t)
		}
	}
	if len(opts.Titles) > 0 {
		cfg.Titles = opts.Titles
	}
	if err := cfg.Requirements.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveSources expands the configured patterns into report sources.
// Types and titles are paired with the resolved files by index.
func (h *ReportHandler) ResolveSources(cfg Config) ([]ReportSource, error) {
	patterns := make([]string, 0, len(cfg.Files))
	for _, p := range cfg.Files {
		if cfg.ReplaceBackslashes {
			p = pathutil.ReplaceBackslashes(p)
		}
		if strings.TrimSpace(p) != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: no patterns provided", ErrNoCoverageFiles)
	}

	files, err := h.Finder.Find(patterns)
	if err != nil {
		return nil, fmt.Errorf("search coverage files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoCoverageFiles
	}
	return pairSources(files, cfg.Types, cfg.Titles), nil
}

// Generate builds the reports of the given sources and derives the global
// report and unmet requirements.
func (h *ReportHandler) Generate(ctx context.Context, cfg Config, sources []ReportSource) ReportResult {
	reports, failures := h.GenerateFileReports(ctx, sources, cfg.Concurrency)
	global := domain.GenerateGlobalReport(reports)
	if global != nil {
		h.logger().Info("global report generated", "reports", len(reports))
	}
	return ReportResult{
		Title:        cfg.Title,
		Reports:      reports,
		Global:       global,
		Requirements: cfg.Requirements,
		Unmet:        domain.UnmetRequirements(reports, global, cfg.Requirements),
		Failures:     failures,
	}
}

// GenerateFileReports builds and initializes one report per source. Sources
// are processed concurrently; the returned reports keep the input order and
// failing sources are left out and recorded as failures.
func (h *ReportHandler) GenerateFileReports(ctx context.Context, sources []ReportSource, concurrency int) ([]*domain.CoverageReport, []ReportFailure) {
	ctx, span := h.tracer().Start(ctx, "covreport.generate_reports",
		trace.WithAttributes(attribute.Int("covreport.sources", len(sources))))
	defer span.End()

	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	built := make([]*domain.CoverageReport, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, src := range sources {
		g.Go(func() error {
			built[i], errs[i] = h.buildReport(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	reports := make([]*domain.CoverageReport, 0, len(sources))
	var failures []ReportFailure
	for i, src := range sources {
		if errs[i] != nil {
			h.logger().Warn("error generating report", "path", src.Path, "err", errs[i])
			failures = append(failures, ReportFailure{Path: src.Path, Err: errs[i]})
			continue
		}
		h.logger().Info("report generated", "path", src.Path)
		reports = append(reports, built[i])
	}
	if len(failures) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d reports failed", len(failures)))
	}
	return reports, failures
}

func (h *ReportHandler) buildReport(ctx context.Context, src ReportSource) (*domain.CoverageReport, error) {
	ctx, span := h.tracer().Start(ctx, "covreport.init_report",
		trace.WithAttributes(attribute.String("covreport.path", src.Path)))
	defer span.End()

	report, err := domain.NewCoverageReport(src.Path, src.Type, src.Title)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("covreport.type", report.Type().String()))

	if err := report.Init(ctx, h.Parser); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("covreport.files", len(report.FilesReport())))
	return report, nil
}

func (h *ReportHandler) logger() *log.Logger {
	if h.Logger == nil {
		return log.New(io.Discard)
	}
	return h.Logger
}

func (h *ReportHandler) tracer() trace.Tracer {
	if h.Tracer == nil {
		return otel.Tracer(TracerName)
	}
	return h.Tracer
}
