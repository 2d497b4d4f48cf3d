// Package audit provides the file-based artifact trail: numbered request and
// response bodies per correlation id, per-id app.log files, and retention
// cleanup of old correlation directories.
package audit

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/skyroute/airgate/internal/domain/audit"
)

const (
	// DefaultCounterCapacity is how many correlation ids keep their sequence
	// counter in memory.
	DefaultCounterCapacity = 10000

	// DefaultCleanupInterval is how often retention cleanup runs.
	DefaultCleanupInterval = time.Hour

	dirPerm  = 0o755
	filePerm = 0o644
)

// sequencePattern matches the numeric prefix of a recorded artifact: 07_FlightAdd_RQ.xml
var sequencePattern = regexp.MustCompile(`^(\d+)_`)

// SequenceLoggerConfig holds configuration for the artifact trail.
type SequenceLoggerConfig struct {
	// Dir is the root directory; each correlation id gets a subdirectory.
	Dir string
	// CounterCapacity bounds the in-memory sequence counters (default 10000).
	CounterCapacity int
	// Retention removes correlation directories untouched for longer than
	// this. Zero keeps them forever.
	Retention time.Duration
	// CleanupInterval is how often retention runs (default 1h).
	CleanupInterval time.Duration
	// SessionLogLevel is the minimum level written to per-id app.log files
	// (default info).
	SessionLogLevel slog.Leveler
}

// SequenceLogger implements audit.ArtifactRecorder on the local filesystem.
// Artifacts of one correlation id share a single counter, so the numbering
// shows the order of every exchange made under that id.
type SequenceLogger struct {
	dir       string
	retention time.Duration
	interval  time.Duration
	level     slog.Leveler
	logger    *slog.Logger
	now       func() time.Time
	mu        sync.Mutex
	counters  *simplelru.LRU[string, int]
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSequenceLogger creates the root directory and, when retention is set,
// starts the cleanup goroutine. Call Close to stop it.
func NewSequenceLogger(cfg SequenceLoggerConfig, logger *slog.Logger) (*SequenceLogger, error) {
	if cfg.CounterCapacity <= 0 {
		cfg.CounterCapacity = DefaultCounterCapacity
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.SessionLogLevel == nil {
		cfg.SessionLogLevel = slog.LevelInfo
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	counters, err := simplelru.NewLRU[string, int](cfg.CounterCapacity, nil)
	if err != nil {
		return nil, fmt.Errorf("create counter cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &SequenceLogger{
		dir:       cfg.Dir,
		retention: cfg.Retention,
		interval:  cfg.CleanupInterval,
		level:     cfg.SessionLogLevel,
		logger:    logger,
		now:       time.Now,
		counters:  counters,
		cancel:    cancel,
	}

	if l.retention > 0 {
		l.runCleanup()
		l.wg.Add(1)
		go l.startCleanupLoop(ctx)
	}

	return l, nil
}

// Record writes content to <dir>/<id>/<NN>_<name> and returns that path.
// HTML entities in content are unescaped first so nested XML stays readable.
// A sequence number is consumed even when the write fails.
func (l *SequenceLogger) Record(_ context.Context, id, name string, content []byte) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	if err := ValidateID(name); err != nil {
		return "", fmt.Errorf("artifact name %q: %w", name, err)
	}

	seq := l.nextSequence(id)
	dir := filepath.Join(l.dir, id)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", id, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%02d_%s", seq, name))
	readable := html.UnescapeString(string(content))
	if err := os.WriteFile(path, []byte(readable), filePerm); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}

// nextSequence returns the next number for id and advances the counter.
// An id missing from the cache resumes after the highest number on disk.
func (l *SequenceLogger) nextSequence(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq, ok := l.counters.Get(id)
	if !ok {
		seq = l.highestOnDisk(id) + 1
	}
	l.counters.Add(id, seq+1)
	return seq
}

// highestOnDisk returns the largest sequence prefix under id's directory, or 0.
func (l *SequenceLogger) highestOnDisk(id string) int {
	entries, err := os.ReadDir(filepath.Join(l.dir, id))
	if err != nil {
		return 0
	}

	highest := 0
	for _, e := range entries {
		m := sequencePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}

// Dir returns the root directory.
func (l *SequenceLogger) Dir() string {
	return l.dir
}

// Counters returns the number of ids with an in-memory counter.
func (l *SequenceLogger) Counters() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counters.Len()
}

// runCleanup removes correlation directories not modified within the retention period.
func (l *SequenceLogger) runCleanup() {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.logger.Error("artifact cleanup: failed to read directory", "dir", l.dir, "error", err)
		return
	}

	cutoff := l.now().Add(-l.retention)
	deleted := 0

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(l.dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			l.logger.Error("artifact cleanup: failed to delete directory",
				"dir", e.Name(), "error", err)
			continue
		}
		l.mu.Lock()
		l.counters.Remove(e.Name())
		l.mu.Unlock()
		deleted++
	}

	if deleted > 0 {
		l.logger.Info("artifact cleanup completed", "deleted", deleted)
	}
}

// startCleanupLoop runs retention cleanup until the context is cancelled.
func (l *SequenceLogger) startCleanupLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.runCleanup()
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (l *SequenceLogger) Close() error {
	l.closeOnce.Do(l.cancel)
	l.wg.Wait()
	return nil
}

// ValidateID reports whether s can be used as a single path segment.
func ValidateID(s string) error {
	switch {
	case s == "", s == ".", s == "..":
		return audit.ErrInvalidID
	case strings.ContainsAny(s, `/\`+"\x00"):
		return audit.ErrInvalidID
	}
	return nil
}

// Compile-time interface verification.
var _ audit.ArtifactRecorder = (*SequenceLogger)(nil)
