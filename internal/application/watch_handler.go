package application

import (
	"context"
	"fmt"
)

// WatchHandler handles watch mode operations.
type WatchHandler struct {
	Reports *ReportHandler
}

// Watch builds the reports once, then rebuilds them every time one of the
// resolved report files changes.
func (h *WatchHandler) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	cfg, err := h.Reports.LoadConfig(opts.ReportOptions)
	if err != nil {
		return err
	}
	sources, err := h.Reports.ResolveSources(cfg)
	if err != nil {
		return err
	}

	paths := make([]string, len(sources))
	for i, src := range sources {
		paths[i] = src.Path
	}
	if err := watcher.WatchFiles(paths); err != nil {
		return fmt.Errorf("failed to watch report files: %w", err)
	}

	runNumber := 1
	if callback != nil {
		callback(runNumber, h.Reports.Generate(ctx, cfg, sources), nil)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			result := h.Reports.Generate(ctx, cfg, sources)
			if callback != nil {
				callback(runNumber, result, nil)
			}
		}
	}
}
