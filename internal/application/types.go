package application

import (
	"context"
	"errors"
	"io"

	"github.com/felixgeelhaar/covreport/internal/domain"
)

type OutputFormat string

const (
	OutputText  OutputFormat = "text"
	OutputJSON  OutputFormat = "json"
	OutputHTML  OutputFormat = "html"
	OutputBrief OutputFormat = "brief"
)

var (
	// ErrNoCoverageFiles is returned when no pattern was given or none matched.
	ErrNoCoverageFiles = errors.New("no coverage files found")
	// ErrRequirementsNotMet signals unmet error-level coverage requirements.
	ErrRequirementsNotMet = errors.New("coverage requirements not met")
)

// Config represents validated, application-ready configuration.
type Config struct {
	Title              string
	Files              []string
	Types              []domain.ReportType
	Titles             []string
	ReplaceBackslashes bool
	FailOnUnmet        bool
	DisableComment     bool
	Concurrency        int
	Requirements       domain.CoverageRequirements
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// FileFinder expands glob patterns into report file paths.
type FileFinder interface {
	Find(patterns []string) ([]string, error)
}

// ReportSource is one coverage report to build.
// Empty Type means "infer from the extension".
type ReportSource struct {
	Path  string
	Type  domain.ReportType
	Title string
}

// ReportFailure records a report that could not be built.
type ReportFailure struct {
	Path string
	Err  error
}

func (f ReportFailure) Error() string {
	return f.Path + ": " + f.Err.Error()
}

func (f ReportFailure) Unwrap() error {
	return f.Err
}

// ReportResult is everything computed for one run over a set of reports.
type ReportResult struct {
	Title        string
	Reports      []*domain.CoverageReport
	Global       *domain.CoverageReport
	Requirements domain.CoverageRequirements
	Unmet        []domain.UnmetRequirement
	Failures     []ReportFailure
}

// Passed reports whether every error-level requirement is met.
func (r ReportResult) Passed() bool {
	return len(r.Unmet) == 0
}

// Headline is the statements percentage of the run: the global report when
// there is one, otherwise the single report. ok is false without reports.
func (r ReportResult) Headline() (report *domain.CoverageReport, requirement domain.CoverageRequirement, ok bool) {
	if r.Global != nil {
		return r.Global, r.Requirements.Global, true
	}
	if len(r.Reports) > 0 {
		return r.Reports[0], r.Requirements.Report, true
	}
	return nil, domain.CoverageRequirement{}, false
}

type ReportOptions struct {
	ConfigPath string
	Files      []string
	Types      []string
	Titles     []string
	Output     OutputFormat
}

type Reporter interface {
	Write(w io.Writer, result ReportResult, format OutputFormat) error
}

// CommentView is the data a CommentRenderer turns into markup.
type CommentView struct {
	Repository   Repository
	Commit       string
	Workspace    string
	Reports      []*domain.CoverageReport
	Global       *domain.CoverageReport
	Requirements domain.CoverageRequirements
}

// CommentRenderer renders coverage reports as HTML comment markup.
type CommentRenderer interface {
	Render(view CommentView) (string, error)
}

// Repository identifies a hosted repository.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// CI event names that trigger publishing.
const (
	EventPullRequest = "pull_request"
	EventPush        = "push"
)

// CIContext describes the CI run a report is published for.
type CIContext struct {
	EventName         string
	Repository        Repository
	SHA               string
	After             string
	PullRequestNumber int
	PullRequestID     int64
	Workspace         string
}

// IsPullRequest reports whether the run belongs to a pull request.
func (c CIContext) IsPullRequest() bool {
	return c.EventName == EventPullRequest
}

// Comment is a hosted issue or commit comment.
type Comment struct {
	ID   int64
	Body string
	URL  string
}

// Check run conclusions.
const (
	ConclusionSuccess = "success"
	ConclusionFailure = "failure"
)

// CheckRun is a hosted CI check.
type CheckRun struct {
	ID  int64
	URL string
}

// CheckRunOutput is the title and summary shown on a check run.
type CheckRunOutput struct {
	Title   string
	Summary string
}

// PRClient provides the pull request and commit operations used to publish.
type PRClient interface {
	ListComments(ctx context.Context, repo Repository, prNumber int) ([]Comment, error)
	CreateComment(ctx context.Context, repo Repository, prNumber int, body string) (Comment, error)
	UpdateComment(ctx context.Context, repo Repository, commentID int64, body string) (Comment, error)
	DeleteComment(ctx context.Context, repo Repository, commentID int64) error
	CreateCommitComment(ctx context.Context, repo Repository, sha, body string) (Comment, error)
	CreateCheckRun(ctx context.Context, repo Repository, name, headSHA string, output CheckRunOutput) (CheckRun, error)
	CompleteCheckRun(ctx context.Context, repo Repository, checkRunID int64, conclusion string, output CheckRunOutput) error
}

// PublishOptions configures a publish run.
type PublishOptions struct {
	ReportOptions
	CI             CIContext
	DryRun         bool
	DisableComment bool
}

// PublishResult describes what was published.
type PublishResult struct {
	Body       string
	Conclusion string
	CommentID  int64
	CommentURL string
	Created    bool
	CheckRunID int64
	Report     ReportResult
}

// BadgeOptions configures badge generation.
type BadgeOptions struct {
	ReportOptions
	Label string
	Style string
}

// BadgeResult is the percentage and status a badge is drawn from.
type BadgeResult struct {
	Label   string
	Percent float64
	Status  domain.Status
}

// BadgeWriter renders an SVG badge.
type BadgeWriter interface {
	WriteBadge(w io.Writer, badge BadgeResult, style string) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchFiles(paths []string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchOptions configures watch mode behavior.
type WatchOptions struct {
	ReportOptions
	Clear bool // Clear terminal before each run
}

// WatchCallback is invoked after each regeneration in watch mode.
type WatchCallback func(run int, result ReportResult, err error)
