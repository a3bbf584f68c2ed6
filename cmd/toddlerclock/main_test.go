package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"toddlerclock/internal/config"
	"toddlerclock/internal/render"
)

func TestBuildSchedule(t *testing.T) {
	s := buildSchedule(time.Now)

	tcs := []struct {
		hh, mm int
		want   string
	}{
		{hh: 19, mm: 0, want: "Bedtime. Goodnight! Sleep well!"},
		{hh: 23, mm: 59, want: "Too early. Go back to sleep"},
		{hh: 0, mm: 0, want: "Too early. Go back to sleep"},
		{hh: 5, mm: 59, want: "Too early. Go back to sleep"},
		{hh: 6, mm: 30, want: "Time to read"},
		{hh: 7, mm: 10, want: "It's morning! Wake up, parents!"},
		{hh: 7, mm: 15, want: "Get dressed and go downstairs!"},
		{hh: 7, mm: 45, want: "Breakfast and get ready for school!"},
		{hh: 8, mm: 0, want: ""},
		{hh: 12, mm: 0, want: ""},
	}
	for _, tc := range tcs {
		if got := s.EventAt(tc.hh*60 + tc.mm); got != tc.want {
			t.Fatalf("%02d:%02d = %q; want %q", tc.hh, tc.mm, got, tc.want)
		}
	}
}

func TestShowCommand(t *testing.T) {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	if err := app.Run([]string{"toddlerclock", "show"}); err != nil {
		t.Fatalf("show: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "00:00-06:00  Too early. Go back to sleep" {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[6] != "20:00-24:00  Too early. Go back to sleep" {
		t.Fatalf("last line = %q", lines[6])
	}
}

func TestICSCommand(t *testing.T) {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	if err := app.Run([]string{"toddlerclock", "ics"}); err != nil {
		t.Fatalf("ics: %v", err)
	}
	if n := strings.Count(buf.String(), "BEGIN:VEVENT"); n != 7 {
		t.Fatalf("got %d VEVENTs; want 7", n)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	out := filepath.Join(dir, "frame.png")

	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	args := []string{"toddlerclock", "--config", cfgPath, "render", "--at", "06:30", "--out", out}
	if err := app.Run(args); err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("frame not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 320, 240) {
		t.Fatalf("bounds = %v", img.Bounds())
	}

	if err := newApp().Run([]string{"toddlerclock", "--config", cfgPath, "render", "--at", "25:99"}); err == nil {
		t.Fatal("expected error for bad --at")
	}
}

type recordingSink struct {
	mu     sync.Mutex
	frames int
}

func (r *recordingSink) Show(*image.RGBA) error {
	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func newTestClock(t *testing.T, sink *recordingSink) *clock {
	t.Helper()
	opts, err := render.OptionsFromConfig(config.DefaultConfig().Display)
	if err != nil {
		t.Fatal(err)
	}
	rend, err := render.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	now := func() time.Time { return time.Date(2026, 10, 18, 6, 30, 0, 0, time.Local) }
	return &clock{
		sched: buildSchedule(now),
		rend:  rend,
		sink:  sink,
		now:   now,
	}
}

func TestClockTick(t *testing.T) {
	sink := &recordingSink{}
	clk := newTestClock(t, sink)

	if err := clk.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("frames = %d; want 1", sink.count())
	}
	if clk.lastMsg != "Time to read" {
		t.Fatalf("lastMsg = %q", clk.lastMsg)
	}
}

func TestClockRun(t *testing.T) {
	sink := &recordingSink{}
	clk := newTestClock(t, sink)

	if err := clk.run(context.Background(), "not a cron spec"); err == nil {
		t.Fatal("expected error for bad refresh spec")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	if err := clk.run(ctx, "@every 1s"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sink.count() < 1 {
		t.Fatal("cron never drew a frame")
	}
}
