package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/badge"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/config"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/github"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/observability"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/parsers"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/report"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/resolver"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/covreport/internal/infrastructure/wizard"
)

// Exit codes.
const (
	exitOK      = 0
	exitUnmet   = 1
	exitUsage   = 2
	exitRuntime = 3
)

type Service interface {
	Report(ctx context.Context, opts application.ReportOptions) (application.ReportResult, error)
	Check(ctx context.Context, opts application.ReportOptions) error
	Comment(ctx context.Context, opts application.PublishOptions) (application.PublishResult, error)
	Badge(ctx context.Context, opts application.BadgeOptions, w io.Writer) (application.BadgeResult, error)
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
}

// Options is what a Service is built from once the command line is parsed.
type Options struct {
	Out    io.Writer
	Flags  *pflag.FlagSet
	Logger *log.Logger
}

// ServiceBuilder creates the service for the command being run.
type ServiceBuilder func(Options) Service

var (
	initWizard           = wizard.Run
	getenv               = os.Getenv
	stdin      io.Reader = os.Stdin
	newWatcher           = func(logger *log.Logger) (application.FileWatcher, error) {
		return watcher.New(watcher.WithDebounce(500*time.Millisecond), watcher.WithLogger(logger))
	}
)

// usageError marks errors caused by the invocation rather than the run.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type app struct {
	stdout, stderr io.Writer
	build          ServiceBuilder

	configPath string
	logLevel   string

	logger   *log.Logger
	svc      Service
	started  bool
	shutdown observability.ShutdownFunc
}

// Run executes the command line in args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer, build ServiceBuilder) int {
	a := &app{stdout: stdout, stderr: stderr, build: build}
	root := a.rootCommand()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := a.shutdown(ctx); serr != nil {
			a.log().Warn("trace shutdown failed", "err", serr)
		}
		cancel()
	}
	return a.exitCode(err)
}

// BuildService wires the production adapters.
func BuildService(opts Options) *application.Service {
	loader := config.NewLoader()
	if opts.Flags != nil {
		loader.BindFlags(opts.Flags)
	}
	reports := &application.ReportHandler{
		ConfigLoader: loader,
		Finder:       resolver.NewGlobFinder(""),
		Parser:       parsers.NewRegistry(),
		Logger:       opts.Logger,
	}
	return &application.Service{
		Reports: reports,
		Publisher: &application.PublishHandler{
			Reports:  reports,
			Renderer: report.CommentRenderer{},
			Client:   github.NewClient(""),
			Logger:   opts.Logger,
		},
		Reporter: report.Writer{},
		Badges:   badge.Writer{},
		Out:      opts.Out,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "covreport",
		Short: "Aggregate coverage reports and enforce thresholds",
		Long: `covreport reads JaCoCo, LCOV, Cobertura and Go coverage reports,
aggregates them per file, per report and globally, and checks the
result against error and warn thresholds.`,
		Version:           fmt.Sprintf("%s (%s, %s)", Version, Commit, Date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultPath, "config file path")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error (env COVREPORT_LOG_LEVEL)")
	configFlags(pf)

	root.AddCommand(
		a.reportCommand(),
		a.checkCommand(),
		a.commentCommand(),
		a.badgeCommand(),
		a.watchCommand(),
		a.initCommand(),
		schemaCommand(),
		versionCommand(),
	)
	return root
}

// configFlags declares the flags that override config file keys; see
// config.FlagKeys.
func configFlags(fs *pflag.FlagSet) {
	fs.String("title", "", "title shown in reports and checks")
	fs.Bool("replace-backslashes", false, "treat backslashes in patterns as path separators")
	fs.Bool("fail-on-unmet", false, "fail the published check when requirements are unmet")
	fs.Bool("disable-comment", false, "publish checks without comments")
	fs.Int("concurrency", 0, "reports parsed in parallel (0 = GOMAXPROCS)")
	fs.Float64("file-error", 0, "minimum statements % per file")
	fs.Float64("file-warn", 0, "warn below this statements % per file")
	fs.Float64("report-error", 0, "minimum statements % per report")
	fs.Float64("report-warn", 0, "warn below this statements % per report")
	fs.Float64("global-error", 0, "minimum statements % across reports")
	fs.Float64("global-warn", 0, "warn below this statements % across reports")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.started = true

	level := a.logLevel
	if level == "" {
		level = getenv("COVREPORT_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return usageError{fmt.Errorf("invalid log level %q", level)}
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{Level: parsed})

	tracing, err := observability.ConfigFromEnv(getenv, Version)
	if err != nil {
		return usageError{err}
	}
	shutdown, err := observability.InitTracing(cmd.Context(), tracing)
	if err != nil {
		return err
	}
	a.shutdown = shutdown

	if a.build != nil {
		a.svc = a.build(Options{Out: a.stdout, Flags: cmd.Flags(), Logger: a.logger})
	}
	return nil
}

// reportFlags are shared by the commands that build reports.
type reportFlags struct {
	output string
	types  []string
	titles []string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", string(application.OutputText), "output format: text|json|html|brief")
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "report type per resolved file: "+strings.Join(supportedTypes(), "|"))
	cmd.Flags().StringSliceVar(&f.titles, "report-title", nil, "report title per resolved file")
}

func (f *reportFlags) options(configPath string, files []string) (application.ReportOptions, error) {
	format, err := parseOutput(f.output)
	if err != nil {
		return application.ReportOptions{}, err
	}
	supported := supportedTypes()
	for _, t := range f.types {
		if !slices.Contains(supported, strings.ToLower(strings.TrimSpace(t))) {
			return application.ReportOptions{}, usageError{fmt.Errorf("invalid report type %q (supported: %s)", t, strings.Join(supported, ", "))}
		}
	}
	return application.ReportOptions{
		ConfigPath: configPath,
		Files:      files,
		Types:      f.types,
		Titles:     f.titles,
		Output:     format,
	}, nil
}

// supportedTypes lists the report types a parser is registered for.
func supportedTypes() []string {
	formats := parsers.NewRegistry().SupportedFormats()
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = f.String()
	}
	return out
}

func parseOutput(value string) (application.OutputFormat, error) {
	switch f := application.OutputFormat(value); f {
	case application.OutputText, application.OutputJSON, application.OutputHTML, application.OutputBrief:
		return f, nil
	default:
		return "", usageError{fmt.Errorf("invalid output format: %s", value)}
	}
}

func (a *app) reportCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "report [files...]",
		Short: "Print coverage for the configured or given report files",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(a.configPath, args)
			if err != nil {
				return err
			}
			_, err = a.svc.Report(cmd.Context(), opts)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Print coverage and fail when error thresholds are not met",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(a.configPath, args)
			if err != nil {
				return err
			}
			return a.svc.Check(cmd.Context(), opts)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) commentCommand() *cobra.Command {
	var (
		flags  reportFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "comment [files...]",
		Short: "Publish coverage as a GitHub check and pull request comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(a.configPath, args)
			if err != nil {
				return err
			}
			ci, err := github.ContextFromEnv(getenv)
			if err != nil {
				if !dryRun || !errors.Is(err, github.ErrNotInActions) {
					return err
				}
				a.log().Debug("no GitHub context, rendering only")
			}

			res, err := a.svc.Comment(cmd.Context(), application.PublishOptions{
				ReportOptions: opts,
				CI:            ci,
				DryRun:        dryRun,
			})
			if dryRun && res.Body != "" {
				fmt.Fprintln(a.stdout, res.Body)
			}
			if res.CommentURL != "" {
				a.log().Info("comment published", "url", res.CommentURL, "created", res.Created)
			}
			if res.Conclusion != "" && !dryRun {
				a.log().Info("coverage published", "conclusion", res.Conclusion)
			}
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the comment body instead of publishing")
	return cmd
}

func (a *app) badgeCommand() *cobra.Command {
	var (
		flags reportFlags
		file  string
		label string
		style string
	)
	cmd := &cobra.Command{
		Use:   "badge [files...]",
		Short: "Write an SVG badge of the overall statements coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(a.configPath, args)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			res, err := a.svc.Badge(cmd.Context(), application.BadgeOptions{
				ReportOptions: opts,
				Label:         label,
				Style:         style,
			}, &buf)
			if err != nil {
				return err
			}
			if file == "-" {
				_, err := a.stdout.Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil { // #nosec G306 - badges are published artifacts
				return err
			}
			fmt.Fprintf(a.stdout, "Badge written to %s (%.2f%%, %s)\n", file, res.Percent, res.Status)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "coverage.svg", "badge output path, - for stdout")
	cmd.Flags().StringVar(&label, "label", "coverage", "badge label text")
	cmd.Flags().StringVar(&style, "style", string(badge.StyleFlat), "badge style: flat|flat-square")
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	var (
		flags       reportFlags
		clearScreen bool
	)
	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Re-print coverage whenever a report file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(a.configPath, args)
			if err != nil {
				return err
			}
			return a.runWatch(cmd.Context(), application.WatchOptions{ReportOptions: opts, Clear: clearScreen})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&clearScreen, "clear", false, "clear the terminal before each run")
	return cmd
}

func (a *app) runWatch(ctx context.Context, opts application.WatchOptions) error {
	w, err := newWatcher(a.log())
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(a.stdout, "Watching report files for changes... (Ctrl+C to stop)")

	writer := report.Writer{}
	callback := func(run int, result application.ReportResult, runErr error) {
		if opts.Clear {
			fmt.Fprint(a.stdout, "\033[H\033[2J")
		}
		fmt.Fprintf(a.stdout, "\n--- Run #%d at %s ---\n", run, time.Now().Format("15:04:05"))
		if runErr != nil {
			a.log().Error("coverage run failed", "err", runErr)
			return
		}
		if err := writer.Write(a.stdout, result, opts.Output); err != nil {
			a.log().Error("write report", "err", err)
		}
	}

	if err := a.svc.Watch(ctx, opts, w, callback); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(a.stdout, "\nStopping watch mode...")
			return nil
		}
		return err
	}
	return nil
}

func (a *app) initCommand() *cobra.Command {
	var (
		dir           string
		force         bool
		noInteractive bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Detect the project's coverage reports and write a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := config.NewLoader()
			loader.BindFlags(cmd.Flags())
			cfg, err := loader.Load("")
			if err != nil {
				return usageError{err}
			}
			if len(cfg.Files) == 0 {
				cfg = detectReports(dir, cfg, a.log())
			}

			if !noInteractive {
				var confirmed bool
				cfg, confirmed, err = initWizard(cfg, a.stdout, stdin)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(a.stdout, "Init cancelled; no configuration written.")
					return nil
				}
			}
			if err := writeConfigFile(a.configPath, cfg, a.stdout, force); err != nil {
				return usageError{err}
			}
			if a.configPath != "-" {
				fmt.Fprintf(a.stdout, "Config written to %s\n", a.configPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "project directory used for detection")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "skip the interactive wizard")
	return cmd
}

// detectReports fills the report patterns of the detected project language.
// Go and Cobertura reports cannot be told apart by extension, so their type
// is written out.
func detectReports(dir string, cfg application.Config, logger *log.Logger) application.Config {
	registry := parsers.NewRegistry()
	lang, err := registry.DetectLanguage(dir)
	if err != nil {
		logger.Warn("language detection failed", "err", err)
	}
	cfg.Files = registry.DefaultPatterns(lang)
	cfg.Types = nil
	switch t := registry.DefaultType(lang); t {
	case domain.ReportTypeGo, domain.ReportTypeCobertura:
		for range cfg.Files {
			cfg.Types = append(cfg.Types, t)
		}
	}
	logger.Info("detected project", "language", string(lang), "files", cfg.Files)
	return cfg
}

func schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of report -o json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "covreport %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
			return err
		},
	}
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	file, err := os.Create(path) // #nosec G304 - path is user supplied
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func (a *app) log() *log.Logger {
	if a.logger == nil {
		return log.New(io.Discard)
	}
	return a.logger
}

func (a *app) exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(a.stderr, "Error:", err)

	var usage usageError
	switch {
	case errors.Is(err, application.ErrRequirementsNotMet):
		return exitUnmet
	case !a.started, errors.As(err, &usage),
		errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, application.ErrNoCoverageFiles):
		return exitUsage
	default:
		return exitRuntime
	}
}
