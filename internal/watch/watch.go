// Package watch re-validates a task file whenever it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/taskgraph/internal/config"
	"github.com/ppiankov/taskgraph/internal/task"
)

// debounceDefault is the debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 2 * time.Second

// Result is the outcome of one validation pass. Exactly one of Report and
// Err is set.
type Result struct {
	Path   string
	Report *task.Report
	Err    error
}

// HandlerFunc receives every validation result. Calls are sequential.
type HandlerFunc func(Result)

// Config holds watcher configuration.
type Config struct {
	Path         string
	Debounce     time.Duration
	PollMode     bool // stat the file periodically instead of using fsnotify
	PollInterval time.Duration
	Handle       HandlerFunc
}

// Watcher validates a task file once, then again after every change.
type Watcher struct {
	cfg Config
}

// New creates a watcher with validated configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("task file path is required")
	}
	if cfg.Handle == nil {
		return nil, fmt.Errorf("result handler is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = debounceDefault
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = pollDefault
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Path, err)
	}
	cfg.Path = abs
	return &Watcher{cfg: cfg}, nil
}

// Run validates the file and keeps watching. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.validate()

	if w.cfg.PollMode {
		return w.runPollWatcher(ctx)
	}
	return w.runFSWatcher(ctx)
}

func (w *Watcher) validate() {
	res := Result{Path: w.cfg.Path}
	tf, err := config.Load(w.cfg.Path)
	if err != nil {
		res.Err = err
		slog.Warn("task file rejected", "file", w.cfg.Path, "error", err)
	} else {
		res.Report = task.Validate(tf.Tasks)
		slog.Debug("task file validated", "file", w.cfg.Path, "valid", res.Report.IsValid)
	}
	w.cfg.Handle(res)
}

// runFSWatcher watches the parent directory so editors that replace the
// file by rename are still seen.
func (w *Watcher) runFSWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.cfg.Path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	slog.Info("watching task file", "mode", "fsnotify", "file", w.cfg.Path, "debounce", w.cfg.Debounce)

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.cfg.Path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.cfg.Debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			w.validate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

type fileStamp struct {
	mod  time.Time
	size int64
}

func stamp(path string) (fileStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{mod: fi.ModTime(), size: fi.Size()}, nil
}

// runPollWatcher re-validates when the file's size or mtime changes.
func (w *Watcher) runPollWatcher(ctx context.Context) error {
	slog.Info("watching task file", "mode", "poll", "file", w.cfg.Path, "interval", w.cfg.PollInterval)

	last, _ := stamp(w.cfg.Path)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case <-ticker.C:
			cur, err := stamp(w.cfg.Path)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Debug("stat task file", "file", w.cfg.Path, "error", err)
				continue
			}
			if cur.mod.Equal(last.mod) && cur.size == last.size {
				continue
			}
			last = cur
			w.validate()
		}
	}
}
