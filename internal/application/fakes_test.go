package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/covreport/internal/domain"
)

type fakeConfigLoader struct {
	exists    bool
	cfg       Config
	existsErr error
	loadErr   error
	loaded    *[]string
}

func (f fakeConfigLoader) Exists(path string) (bool, error) {
	return f.exists, f.existsErr
}

func (f fakeConfigLoader) Load(path string) (Config, error) {
	if f.loaded != nil {
		*f.loaded = append(*f.loaded, path)
	}
	return f.cfg, f.loadErr
}

type fakeFinder struct {
	files    []string
	err      error
	patterns *[]string
}

func (f fakeFinder) Find(patterns []string) ([]string, error) {
	if f.patterns != nil {
		*f.patterns = append(*f.patterns, patterns...)
	}
	return f.files, f.err
}

type fakeParser struct {
	records map[string][]domain.FileRecord
	errs    map[string]error
	mu      sync.Mutex
	types   map[string]domain.ReportType
}

func (f *fakeParser) Parse(_ context.Context, path string, reportType domain.ReportType) ([]domain.FileRecord, error) {
	f.mu.Lock()
	if f.types == nil {
		f.types = make(map[string]domain.ReportType)
	}
	f.types[path] = reportType
	f.mu.Unlock()

	if err := f.errs[path]; err != nil {
		return nil, err
	}
	recs, ok := f.records[path]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", path)
	}
	return recs, nil
}

func lines(found, hit int) domain.RawSummary {
	return domain.RawSummary{Counter: domain.Counter{Found: found, Hit: hit}}
}

// newFakeParser serves two reports: a JaCoCo report at 53.85% statements
// and an LCOV report at 87.01%.
func newFakeParser() *fakeParser {
	return &fakeParser{
		records: map[string][]domain.FileRecord{
			"build/jacoco.xml": {
				{File: "dev/kurama/Utils.java", Lines: lines(7, 3), Functions: lines(7, 3)},
				{File: "dev/kurama/Math.kt", Lines: lines(4, 2), Functions: lines(4, 2)},
				{File: "dev/kurama/op/StringOp.java", Lines: lines(2, 2), Functions: lines(2, 2)},
			},
			"coverage/lcov.info": {
				{File: "src/coverage-report.ts", Lines: lines(43, 41), Functions: lines(10, 10), Branches: lines(12, 9)},
				{File: "src/interface.ts", Lines: lines(14, 14), Functions: lines(3, 3), Branches: lines(6, 6)},
				{File: "src/mocks.ts", Lines: lines(2, 2)},
				{File: "src/renderer.ts", Lines: lines(15, 15), Functions: lines(7, 7), Branches: lines(42, 27)},
			},
		},
		errs: map[string]error{},
	}
}

func newReportHandler(cfg Config, files []string, parser *fakeParser) *ReportHandler {
	return &ReportHandler{
		ConfigLoader: fakeConfigLoader{exists: true, cfg: cfg},
		Finder:       fakeFinder{files: files},
		Parser:       parser,
	}
}

type fakeReporter struct {
	last   ReportResult
	format OutputFormat
	err    error
}

func (f *fakeReporter) Write(w io.Writer, result ReportResult, format OutputFormat) error {
	f.last = result
	f.format = format
	return f.err
}

type fakeRenderer struct {
	body string
	err  error
	last CommentView
}

func (f *fakeRenderer) Render(view CommentView) (string, error) {
	f.last = view
	return f.body, f.err
}

type call struct {
	method string
	id     int64
	body   string
}

type fakePRClient struct {
	comments      []Comment
	listErr       error
	createCheck   error
	completeErrs  []error
	calls         []call
	checkOutputs  []CheckRunOutput
	conclusions   []string
	nextCommentID int64
}

func (f *fakePRClient) record(method string, id int64, body string) {
	f.calls = append(f.calls, call{method: method, id: id, body: body})
}

func (f *fakePRClient) methods() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.method
	}
	return out
}

func (f *fakePRClient) ListComments(_ context.Context, _ Repository, _ int) ([]Comment, error) {
	f.record("list", 0, "")
	return f.comments, f.listErr
}

func (f *fakePRClient) CreateComment(_ context.Context, _ Repository, _ int, body string) (Comment, error) {
	f.nextCommentID++
	f.record("create", f.nextCommentID, body)
	return Comment{ID: f.nextCommentID, Body: body, URL: "https://example.test/c"}, nil
}

func (f *fakePRClient) UpdateComment(_ context.Context, _ Repository, id int64, body string) (Comment, error) {
	f.record("update", id, body)
	return Comment{ID: id, Body: body}, nil
}

func (f *fakePRClient) DeleteComment(_ context.Context, _ Repository, id int64) error {
	f.record("delete", id, "")
	return nil
}

func (f *fakePRClient) CreateCommitComment(_ context.Context, _ Repository, _ string, body string) (Comment, error) {
	f.record("commit-comment", 77, body)
	return Comment{ID: 77, Body: body}, nil
}

func (f *fakePRClient) CreateCheckRun(_ context.Context, _ Repository, name, _ string, output CheckRunOutput) (CheckRun, error) {
	f.record("check-create", 0, output.Summary)
	if f.createCheck != nil {
		return CheckRun{}, f.createCheck
	}
	return CheckRun{ID: 42}, nil
}

func (f *fakePRClient) CompleteCheckRun(_ context.Context, _ Repository, id int64, conclusion string, output CheckRunOutput) error {
	f.record("check-complete", id, output.Summary)
	f.checkOutputs = append(f.checkOutputs, output)
	f.conclusions = append(f.conclusions, conclusion)
	if len(f.completeErrs) > 0 {
		err := f.completeErrs[0]
		f.completeErrs = f.completeErrs[1:]
		return err
	}
	return nil
}

type fakeBadgeWriter struct {
	last  BadgeResult
	style string
}

func (f *fakeBadgeWriter) WriteBadge(w io.Writer, badge BadgeResult, style string) error {
	f.last = badge
	f.style = style
	_, err := io.WriteString(w, "<svg/>")
	return err
}

type fakeWatcher struct {
	watched []string
	events  chan struct{}
	err     error
}

func (f *fakeWatcher) WatchFiles(paths []string) error {
	f.watched = paths
	return f.err
}

func (f *fakeWatcher) Events(ctx context.Context) <-chan struct{} {
	return f.events
}

func (f *fakeWatcher) Close() error { return nil }

var errBoom = errors.New("boom")
