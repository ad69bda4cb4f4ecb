package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

type op struct {
	group string
	attrs []slog.Attr
}

type entry struct {
	ops []op
	rec slog.Record
}

type buffer struct {
	mu      sync.Mutex
	entries []entry
}

// Deferred is a slog.Handler that keeps records in memory until Flush
// replays them, in order, into another handler. Handlers derived with
// WithAttrs and WithGroup share the buffer of their parent.
type Deferred struct {
	buf   *buffer
	ops   []op
	level slog.Leveler
}

// NewDeferred returns an empty deferred handler. Records below level are
// dropped; a nil level keeps everything.
func NewDeferred(level slog.Leveler) *Deferred {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Deferred{buf: &buffer{}, level: level}
}

func (d *Deferred) Enabled(_ context.Context, l slog.Level) bool {
	return l >= d.level.Level()
}

func (d *Deferred) Handle(_ context.Context, r slog.Record) error {
	d.buf.mu.Lock()
	d.buf.entries = append(d.buf.entries, entry{ops: d.ops, rec: r.Clone()})
	d.buf.mu.Unlock()
	return nil
}

func (d *Deferred) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return d
	}
	return d.with(op{attrs: slices.Clone(attrs)})
}

func (d *Deferred) WithGroup(name string) slog.Handler {
	if name == "" {
		return d
	}
	return d.with(op{group: name})
}

func (d *Deferred) with(o op) *Deferred {
	ops := make([]op, len(d.ops), len(d.ops)+1)
	copy(ops, d.ops)
	return &Deferred{buf: d.buf, ops: append(ops, o), level: d.level}
}

func (d *Deferred) Len() int {
	d.buf.mu.Lock()
	defer d.buf.mu.Unlock()
	return len(d.buf.entries)
}

// Flush replays the buffered records into h and empties the buffer.
func (d *Deferred) Flush(ctx context.Context, h slog.Handler) error {
	d.buf.mu.Lock()
	entries := d.buf.entries
	d.buf.entries = nil
	d.buf.mu.Unlock()

	var errs []error
	for _, e := range entries {
		target := h
		for _, o := range e.ops {
			if o.group != "" {
				target = target.WithGroup(o.group)
			} else {
				target = target.WithAttrs(o.attrs)
			}
		}
		if !target.Enabled(ctx, e.rec.Level) {
			continue
		}
		if err := target.Handle(ctx, e.rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
