package logging

import (
	"context"
	"errors"
	"log/slog"
)

// redactedKeys never reach any sink with their value intact. Raw subject
// identifiers and invite codes are secrets in this service.
var redactedKeys = map[string]bool{
	"subject_identifier": true,
	"identifier":         true,
	"invite_code":        true,
	"code":               true,
	"email":              true,
	"authorization":      true,
}

const redacted = "[redacted]"

// Fanout writes every record to each handler that accepts its level after
// scrubbing redactedKeys. A failing sink does not stop the others.
type Fanout struct {
	handlers []slog.Handler
}

func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, record slog.Record) error {
	scrubbed := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(scrub(a))
		return true
	})

	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, scrubbed.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = scrub(a)
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(clean) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) each(fn func(slog.Handler) slog.Handler) *Fanout {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = fn(h)
	}
	return &Fanout{handlers: next}
}

func scrub(a slog.Attr) slog.Attr {
	if redactedKeys[a.Key] {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = scrub(g)
		}
		return slog.Group(a.Key, clean...)
	}
	return a
}
