// Package tracker runs the recognition loop over a directory that an
// external capturer keeps filling with viewport images. Each tick reads
// the files that appeared or changed since the previous tick, skips the
// ones whose content is perceptually unchanged, and reports the names
// found in the rest.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/utils"
	"github.com/corona10/goimagehash"
	"github.com/fsnotify/fsnotify"
)

// Config configures a Tracker.
type Config struct {
	// Dir is the capture directory to watch.
	Dir string
	// Interval is the tick period.
	Interval time.Duration
	// HashDistance is the largest perceptual-hash distance at which a
	// viewport counts as unchanged and is skipped.
	HashDistance int
	// RemoveProcessed deletes viewport files once they have been read.
	RemoveProcessed bool
}

// Recognizer is the part of pipeline.Recognizer the tracker needs.
type Recognizer interface {
	RecognizeDetailed(ctx context.Context, viewports []image.Image) (*pipeline.Result, error)
}

// Sighting is a resolved name together with the file it was read from.
type Sighting struct {
	File       string `json:"file"`
	Name       string `json:"name"`
	Transcript string `json:"transcript"`
	Distance   int    `json:"distance"`
}

// Tick is the outcome of one tracker cycle.
type Tick struct {
	Time      time.Time  `json:"time"`
	Processed []string   `json:"processed"`
	Unchanged []string   `json:"unchanged,omitempty"`
	Sightings []Sighting `json:"sightings"`
	Failed    int        `json:"failed"`
}

// Sink receives every tick that processed at least one viewport.
type Sink interface {
	Report(Tick)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Tick)

// Report calls f.
func (f SinkFunc) Report(t Tick) { f(t) }

// LogSink logs each sighting through slog.
type LogSink struct{}

// Report implements Sink.
func (LogSink) Report(t Tick) {
	for _, s := range t.Sightings {
		slog.Info("Sighting", "name", s.Name, "transcript", s.Transcript, "distance", s.Distance, "file", s.File)
	}
	slog.Debug("Tick complete", "processed", len(t.Processed), "unchanged", len(t.Unchanged), "failed", t.Failed)
}

// Tracker is the directory-driven recognition loop.
type Tracker struct {
	cfg  Config
	rec  Recognizer
	sink Sink

	mu     sync.Mutex
	dirty  map[string]struct{}
	hashes map[string]*goimagehash.ImageHash
}

// New validates cfg and creates a Tracker. A nil sink logs sightings.
func New(cfg Config, rec Recognizer, sink Sink) (*Tracker, error) {
	if cfg.Dir == "" {
		return nil, errors.New("tracker: capture directory is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("tracker: cannot access capture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tracker: %s is not a directory", cfg.Dir)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("tracker: invalid interval %s", cfg.Interval)
	}
	if rec == nil {
		return nil, errors.New("tracker: recognizer is required")
	}
	if sink == nil {
		sink = LogSink{}
	}
	return &Tracker{
		cfg:    cfg,
		rec:    rec,
		sink:   sink,
		dirty:  make(map[string]struct{}),
		hashes: make(map[string]*goimagehash.ImageHash),
	}, nil
}

// Run watches the capture directory and ticks until ctx is cancelled.
// Files already present when Run starts are processed on the first tick.
func (t *Tracker) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tracker: failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(t.cfg.Dir); err != nil {
		return fmt.Errorf("tracker: failed to watch %s: %w", t.cfg.Dir, err)
	}

	if err := t.Scan(); err != nil {
		return err
	}
	slog.Info("Watching capture directory", "dir", t.cfg.Dir, "interval", t.cfg.Interval)

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("tracker: watcher closed")
			}
			t.handleEvent(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("tracker: watcher closed")
			}
			slog.Warn("Watch error", "error", err)
		case <-ticker.C:
			if _, err := t.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("Tick failed", "error", err)
			}
		}
	}
}

func (t *Tracker) handleEvent(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !utils.IsSupportedImage(name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		t.Mark(name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		t.Forget(name)
	}
}

// Scan marks every supported file in the capture directory as changed.
func (t *Tracker) Scan() error {
	entries, err := os.ReadDir(t.cfg.Dir)
	if err != nil {
		return fmt.Errorf("tracker: failed to read %s: %w", t.cfg.Dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && utils.IsSupportedImage(e.Name()) {
			t.Mark(e.Name())
		}
	}
	return nil
}

// Mark queues a file, by base name, for the next tick.
func (t *Tracker) Mark(name string) {
	t.mu.Lock()
	t.dirty[name] = struct{}{}
	t.mu.Unlock()
}

// Forget drops any queued work and remembered hash for a file.
func (t *Tracker) Forget(name string) {
	t.mu.Lock()
	delete(t.dirty, name)
	delete(t.hashes, name)
	t.mu.Unlock()
}

func (t *Tracker) takeDirty() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.dirty))
	for n := range t.dirty {
		names = append(names, n)
	}
	clear(t.dirty)
	slices.Sort(names)
	return names
}

// changed reports whether img differs from the last processed version of
// name, and returns its hash.
func (t *Tracker) changed(name string, img image.Image) (bool, *goimagehash.ImageHash) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		slog.Debug("Perception hash failed", "file", name, "error", err)
		return true, nil
	}
	t.mu.Lock()
	prev := t.hashes[name]
	t.mu.Unlock()
	if prev == nil {
		return true, hash
	}
	dist, err := prev.Distance(hash)
	if err != nil {
		return true, hash
	}
	return dist > t.cfg.HashDistance, hash
}

// Tick runs one cycle over the queued files. It returns nil when nothing
// was queued.
func (t *Tracker) Tick(ctx context.Context) (*Tick, error) {
	names := t.takeDirty()
	if len(names) == 0 {
		return nil, nil
	}

	tick := Tick{Time: time.Now(), Sightings: []Sighting{}}
	batch := make([]image.Image, 0, len(names))
	files := make([]string, 0, len(names))
	hashes := make([]*goimagehash.ImageHash, 0, len(names))

	for _, name := range names {
		img, _, err := utils.LoadImage(filepath.Join(t.cfg.Dir, name))
		if err != nil {
			// Usually a file the capturer is still writing; its next write
			// event queues it again.
			slog.Debug("Skipping unreadable viewport", "file", name, "error", err)
			continue
		}
		ok, hash := t.changed(name, img)
		if !ok {
			tick.Unchanged = append(tick.Unchanged, name)
			continue
		}
		batch = append(batch, img)
		files = append(files, name)
		hashes = append(hashes, hash)
	}

	if len(batch) == 0 {
		return &tick, nil
	}

	res, err := t.rec.RecognizeDetailed(ctx, batch)
	if err != nil {
		// Requeue so the next tick retries.
		for _, n := range files {
			t.Mark(n)
		}
		return nil, err
	}

	t.mu.Lock()
	for i, name := range files {
		if hashes[i] != nil {
			t.hashes[name] = hashes[i]
		}
	}
	t.mu.Unlock()

	tick.Processed = files
	tick.Failed = len(res.Failures)
	for _, s := range res.Sightings {
		tick.Sightings = append(tick.Sightings, Sighting{
			File:       files[s.Index],
			Name:       s.Name,
			Transcript: s.Transcript,
			Distance:   s.Distance,
		})
	}

	if t.cfg.RemoveProcessed {
		for _, name := range files {
			if err := os.Remove(filepath.Join(t.cfg.Dir, name)); err != nil && !os.IsNotExist(err) {
				slog.Warn("Failed to remove processed viewport", "file", name, "error", err)
			}
			t.Forget(name)
		}
	}

	t.sink.Report(tick)
	return &tick, nil
}
