package application

import (
	"context"
	"errors"
	"testing"
)

func TestWatchRebuildsOnEvents(t *testing.T) {
	h := &WatchHandler{Reports: newReportHandler(Config{Files: []string{"*"}}, []string{"build/jacoco.xml", "coverage/lcov.info"}, newFakeParser())}
	watcher := &fakeWatcher{events: make(chan struct{}, 2)}
	watcher.events <- struct{}{}
	watcher.events <- struct{}{}
	close(watcher.events)

	var runs []int
	err := h.Watch(context.Background(), WatchOptions{}, watcher, func(run int, result ReportResult, err error) {
		if err != nil {
			t.Fatalf("unexpected error in run %d: %v", run, err)
		}
		if len(result.Reports) != 2 {
			t.Fatalf("run %d: expected 2 reports", run)
		}
		runs = append(runs, run)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 || runs[0] != 1 || runs[2] != 3 {
		t.Fatalf("expected runs 1..3, got %v", runs)
	}
	if len(watcher.watched) != 2 || watcher.watched[0] != "build/jacoco.xml" {
		t.Fatalf("unexpected watched paths %v", watcher.watched)
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	h := &WatchHandler{Reports: newReportHandler(Config{Files: []string{"*"}}, []string{"build/jacoco.xml"}, newFakeParser())}
	watcher := &fakeWatcher{events: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	err := h.Watch(ctx, WatchOptions{}, watcher, func(int, ReportResult, error) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWatchReportsWatcherErrors(t *testing.T) {
	h := &WatchHandler{Reports: newReportHandler(Config{Files: []string{"*"}}, []string{"build/jacoco.xml"}, newFakeParser())}
	err := h.Watch(context.Background(), WatchOptions{}, &fakeWatcher{err: errBoom}, nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected watcher error, got %v", err)
	}
}

func TestWatchNeedsReportFiles(t *testing.T) {
	h := &WatchHandler{Reports: newReportHandler(Config{Files: []string{"*"}}, nil, newFakeParser())}
	if err := h.Watch(context.Background(), WatchOptions{}, &fakeWatcher{}, nil); !errors.Is(err, ErrNoCoverageFiles) {
		t.Fatalf("expected ErrNoCoverageFiles, got %v", err)
	}
}
