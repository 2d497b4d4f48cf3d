package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/skyroute/airgate/internal/domain/audit"
)

// SessionLogFile is the per-id log file name.
const SessionLogFile = "app.log"

// SessionLogger returns base extended to also write text records to
// <dir>/<id>/app.log. An unusable id returns base unchanged.
func (l *SequenceLogger) SessionLogger(base *slog.Logger, id string) *slog.Logger {
	if base == nil {
		base = l.logger
	}
	if ValidateID(id) != nil {
		return base
	}

	file := slog.NewTextHandler(&appendWriter{
		dir:  filepath.Join(l.dir, id),
		name: SessionLogFile,
	}, &slog.HandlerOptions{Level: l.level})

	return slog.New(newFanoutHandler(base.Handler(), file))
}

// appendWriter opens, appends to, and closes its file on every Write.
// slog handlers issue one Write per record, so no descriptor outlives a record.
type appendWriter struct {
	dir  string
	name string
}

func (w *appendWriter) Write(p []byte) (int, error) {
	if err := os.MkdirAll(w.dir, dirPerm); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(filepath.Join(w.dir, w.name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return 0, err
	}
	n, werr := f.Write(p)
	cerr := f.Close()
	if werr != nil {
		return n, werr
	}
	return n, cerr
}

var _ io.Writer = (*appendWriter)(nil)

// fanoutHandler sends every record to each wrapped handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

var _ audit.SessionLogs = (*SequenceLogger)(nil)
