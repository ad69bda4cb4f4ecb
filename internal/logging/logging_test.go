package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestDeferredFlushesInOrder(t *testing.T) {
	d := NewDeferred(nil)
	l := slog.New(d).With("well", "PROD1")
	l.Info("first", "it", 1)
	l.WithGroup("ctrl").Warn("second", "mode", "BHP")
	l.Debug("third")

	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}

	var out bytes.Buffer
	h := slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo})
	if err := d.Flush(context.Background(), h); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (debug filtered by target):\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "msg=first") || !strings.Contains(lines[0], "well=PROD1") || !strings.Contains(lines[0], "it=1") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "msg=second") || !strings.Contains(lines[1], "ctrl.mode=BHP") {
		t.Errorf("second line = %q", lines[1])
	}
	if d.Len() != 0 {
		t.Errorf("buffer not emptied after flush")
	}
}

func TestDeferredLevel(t *testing.T) {
	d := NewDeferred(slog.LevelWarn)
	l := slog.New(d)
	l.Info("dropped")
	l.Error("kept")
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestDeferredSharedBuffer(t *testing.T) {
	d := NewDeferred(nil)
	a := slog.New(d.WithAttrs([]slog.Attr{slog.String("k", "a")}))
	b := slog.New(d.WithAttrs([]slog.Attr{slog.String("k", "b")}))
	a.Info("x")
	b.Info("y")
	a.Info("z")

	var out bytes.Buffer
	if err := d.Flush(context.Background(), slog.NewTextHandler(&out, nil)); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	ix, iy, iz := strings.Index(got, "msg=x k=a"), strings.Index(got, "msg=y k=b"), strings.Index(got, "msg=z k=a")
	if ix < 0 || iy < 0 || iz < 0 || !(ix < iy && iy < iz) {
		t.Errorf("unexpected flush order:\n%s", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesPlainWithoutColor(t *testing.T) {
	var out bytes.Buffer
	New(&out, slog.LevelInfo, false).Info("hello", "n", 2)
	if strings.Contains(out.String(), "\x1b[") {
		t.Errorf("unexpected escape codes in %q", out.String())
	}
	if !strings.Contains(out.String(), "hello") {
		t.Errorf("missing message in %q", out.String())
	}
}
