package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/skyroute/airgate/internal/domain/audit"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSequenceLogger(t *testing.T, cfg SequenceLoggerConfig) *SequenceLogger {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	l, err := NewSequenceLogger(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSequenceLogger() error: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) error: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestNewSequenceLogger_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "logs")
	newTestSequenceLogger(t, SequenceLoggerConfig{Dir: dir})

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected directory, got file")
	}
}

func TestSequenceLogger_RequestAndResponseShareCounter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestSequenceLogger(t, SequenceLoggerConfig{})

	steps := []string{
		audit.ExchangeName("ServiceInitialize", audit.Request),
		audit.ExchangeName("ServiceInitialize", audit.Response),
		audit.ExchangeName("FlightAdd", audit.Request),
		audit.ExchangeName("FlightAdd", audit.Response),
		audit.ResultName("FlightAdd"),
	}
	for _, name := range steps {
		if _, err := l.Record(ctx, "s1", name, []byte("<x/>")); err != nil {
			t.Fatalf("Record(%s) error: %v", name, err)
		}
	}

	want := []string{
		"01_ServiceInitialize_RQ.xml",
		"02_ServiceInitialize_RS.xml",
		"03_FlightAdd_RQ.xml",
		"04_FlightAdd_RS.xml",
		"05_FlightAdd_Response.json",
	}
	got := listNames(t, filepath.Join(l.Dir(), "s1"))
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestSequenceLogger_TwoDigitPadding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestSequenceLogger(t, SequenceLoggerConfig{})

	var last string
	for i := 0; i < 10; i++ {
		path, err := l.Record(ctx, "s1", "Op_RQ.xml", nil)
		if err != nil {
			t.Fatalf("Record() error: %v", err)
		}
		if i == 8 && filepath.Base(path) != "09_Op_RQ.xml" {
			t.Errorf("ninth file = %s, want 09_Op_RQ.xml", filepath.Base(path))
		}
		last = path
	}
	if filepath.Base(last) != "10_Op_RQ.xml" {
		t.Errorf("tenth file = %s, want 10_Op_RQ.xml", filepath.Base(last))
	}
}

func TestSequenceLogger_IDsAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestSequenceLogger(t, SequenceLoggerConfig{})

	pa, _ := l.Record(ctx, "a", "Op_RQ.xml", nil)
	pb, _ := l.Record(ctx, "b", "Op_RQ.xml", nil)
	if filepath.Base(pa) != "01_Op_RQ.xml" || filepath.Base(pb) != "01_Op_RQ.xml" {
		t.Errorf("paths = %s, %s; each id should start at 01", pa, pb)
	}
}

func TestSequenceLogger_UnescapesContent(t *testing.T) {
	t.Parallel()

	l := newTestSequenceLogger(t, SequenceLoggerConfig{})
	path, err := l.Record(context.Background(), "s1", "FlightAdd_RS.xml",
		[]byte(`<FlightAddResult>&lt;Booking id=&quot;1&quot;/&gt;</FlightAddResult>`))
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if want := `<FlightAddResult><Booking id="1"/></FlightAddResult>`; string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
}

func TestSequenceLogger_FilePermissions(t *testing.T) {
	t.Parallel()

	l := newTestSequenceLogger(t, SequenceLoggerConfig{})
	path, err := l.Record(context.Background(), "s1", "Op_RQ.xml", []byte("x"))
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o600 != 0o600 {
		t.Errorf("file permissions = %o, want owner read/write", perm)
	}
}

func TestSequenceLogger_RecoversCounterAfterEviction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestSequenceLogger(t, SequenceLoggerConfig{CounterCapacity: 1})

	for i := 0; i < 3; i++ {
		_, _ = l.Record(ctx, "a", "Op_RQ.xml", nil)
	}
	// Evicts "a" from the counter cache.
	_, _ = l.Record(ctx, "b", "Op_RQ.xml", nil)
	if l.Counters() != 1 {
		t.Fatalf("Counters() = %d, want 1", l.Counters())
	}

	path, err := l.Record(ctx, "a", "Op_RS.xml", nil)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if filepath.Base(path) != "04_Op_RS.xml" {
		t.Errorf("path after eviction = %s, want 04_Op_RS.xml", filepath.Base(path))
	}
}

func TestSequenceLogger_RecoversCounterAcrossRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	first := newTestSequenceLogger(t, SequenceLoggerConfig{Dir: dir})
	_, _ = first.Record(ctx, "s1", "Op_RQ.xml", nil)
	_, _ = first.Record(ctx, "s1", "Op_RS.xml", nil)
	_ = first.Close()

	second := newTestSequenceLogger(t, SequenceLoggerConfig{Dir: dir})
	path, err := second.Record(ctx, "s1", "Next_RQ.xml", nil)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if filepath.Base(path) != "03_Next_RQ.xml" {
		t.Errorf("path = %s, want 03_Next_RQ.xml", filepath.Base(path))
	}
}

func TestSequenceLogger_RejectsUnsafeIDs(t *testing.T) {
	t.Parallel()

	l := newTestSequenceLogger(t, SequenceLoggerConfig{})
	tests := []struct {
		name string
		id   string
		file string
	}{
		{"empty id", "", "Op_RQ.xml"},
		{"dot", ".", "Op_RQ.xml"},
		{"dot dot", "..", "Op_RQ.xml"},
		{"slash", "a/b", "Op_RQ.xml"},
		{"backslash", `a\b`, "Op_RQ.xml"},
		{"traversal in name", "s1", "../escape.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Record(context.Background(), tt.id, tt.file, nil)
			if !errors.Is(err, audit.ErrInvalidID) {
				t.Errorf("Record(%q, %q) error = %v, want ErrInvalidID", tt.id, tt.file, err)
			}
		})
	}
}

func TestSequenceLogger_ConcurrentRecordsGetUniqueNumbers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestSequenceLogger(t, SequenceLoggerConfig{})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Record(ctx, "s1", fmt.Sprintf("Op%d_RQ.xml", i), nil); err != nil {
				t.Errorf("Record() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, name := range listNames(t, filepath.Join(l.Dir(), "s1")) {
		prefix := name[:strings.Index(name, "_")]
		if seen[prefix] {
			t.Errorf("sequence %s used twice", prefix)
		}
		seen[prefix] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct sequence numbers, want %d", len(seen), n)
	}
}

func TestSequenceLogger_RetentionCleanup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	oldDir := filepath.Join(dir, "old-search")
	newDir := filepath.Join(dir, "new-search")
	for _, d := range []string{oldDir, newDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldDir, past, past); err != nil {
		t.Fatal(err)
	}
	// Stray files at the root are left alone.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = os.Chtimes(filepath.Join(dir, "README"), past, past)

	newTestSequenceLogger(t, SequenceLoggerConfig{Dir: dir, Retention: 24 * time.Hour})

	got := listNames(t, dir)
	if strings.Join(got, ",") != "README,new-search" {
		t.Errorf("entries after cleanup = %v", got)
	}
}

func TestSequenceLogger_NoRetentionKeepsEverything(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	oldDir := filepath.Join(dir, "old-search")
	_ = os.MkdirAll(oldDir, 0o755)
	past := time.Now().Add(-24 * 365 * time.Hour)
	_ = os.Chtimes(oldDir, past, past)

	newTestSequenceLogger(t, SequenceLoggerConfig{Dir: dir})
	if _, err := os.Stat(oldDir); err != nil {
		t.Errorf("old directory removed without retention: %v", err)
	}
}

func TestSequenceLogger_SessionLogger(t *testing.T) {
	t.Parallel()

	l := newTestSequenceLogger(t, SequenceLoggerConfig{})
	var base bytes.Buffer
	baseLogger := slog.New(slog.NewTextHandler(&base, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := l.SessionLogger(baseLogger, "s1").With("search_id", "s1")
	logger.Info("flight added", "flight_id", "F1")
	logger.Debug("below file level")
	logger.Warn("no session cookies")

	data, err := os.ReadFile(filepath.Join(l.Dir(), "s1", SessionLogFile))
	if err != nil {
		t.Fatalf("app.log not written: %v", err)
	}
	file := string(data)
	for _, want := range []string{"flight added", "flight_id=F1", "search_id=s1", "no session cookies"} {
		if !strings.Contains(file, want) {
			t.Errorf("app.log missing %q:\n%s", want, file)
		}
	}
	if strings.Contains(file, "below file level") {
		t.Error("app.log should honour its own level")
	}
	if !strings.Contains(base.String(), "below file level") || !strings.Contains(base.String(), "flight added") {
		t.Errorf("base logger did not receive records:\n%s", base.String())
	}
}

func TestSequenceLogger_SessionLoggerInvalidID(t *testing.T) {
	t.Parallel()

	l := newTestSequenceLogger(t, SequenceLoggerConfig{})
	base := testLogger()
	if got := l.SessionLogger(base, "../x"); got != base {
		t.Error("invalid id should return the base logger")
	}
}

func TestSequenceLoggerCloseStopsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t)

	l, err := NewSequenceLogger(SequenceLoggerConfig{
		Dir:             t.TempDir(),
		Retention:       time.Hour,
		CleanupInterval: 10 * time.Millisecond,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewSequenceLogger() error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
