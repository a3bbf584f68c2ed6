// Package display pushes rendered frames to the screen.
//
// Opening a display can hang when another process holds the device, so Open
// runs the open under a watchdog and gives up after the configured
// InitTimeout instead of wedging the clock at boot.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"toddlerclock/internal/config"
	appLog "toddlerclock/internal/log"
)

// ErrInitTimeout is returned by Open when the device did not open in time.
var ErrInitTimeout = errors.New("display: init timed out")

// Sink receives full frames.
type Sink interface {
	Show(img *image.RGBA) error
	Close() error
}

// Open opens the sink selected by cfg.Driver. If previewToo is set, every
// frame is also written to cfg.PreviewPath.
func Open(ctx context.Context, cfg config.DisplayConfig, previewToo bool) (Sink, error) {
	appLog.Info("attempting to initialise the display", "driver", cfg.Driver, "device", cfg.Device, "timeout", cfg.InitTimeout)

	sink, err := openWithTimeout(ctx, cfg.InitTimeout, func() (Sink, error) {
		return openDriver(cfg)
	})
	if err != nil {
		return nil, err
	}

	if previewToo && cfg.Driver != "png" {
		sink = Multi(sink, NewPNG(cfg.PreviewPath))
	}
	return sink, nil
}

func openDriver(cfg config.DisplayConfig) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch cfg.Driver {
	case "png":
		sink = NewPNG(cfg.PreviewPath)
	case "fbdev":
		sink, err = OpenFramebuffer(cfg.Device, cfg.Width, cfg.Height)
	default:
		return nil, fmt.Errorf("display: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.BacklightGPIO != "" {
		bl, err := OpenBacklight(cfg.BacklightGPIO)
		if err != nil {
			_ = sink.Close()
			return nil, err
		}
		sink = &withBacklight{Sink: sink, bl: bl}
	}
	return sink, nil
}

// openWithTimeout runs open in a goroutine and waits at most timeout for it.
// A sink that finishes opening after the deadline is closed.
func openWithTimeout(ctx context.Context, timeout time.Duration, open func() (Sink, error)) (Sink, error) {
	type result struct {
		sink Sink
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := open()
		ch <- result{sink: s, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	abandon := func() {
		go func() {
			if r := <-ch; r.sink != nil {
				_ = r.sink.Close()
			}
		}()
	}

	select {
	case r := <-ch:
		return r.sink, r.err
	case <-timer.C:
		abandon()
		return nil, fmt.Errorf("%w after %s", ErrInitTimeout, timeout)
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	}
}

// multi fans a frame out to several sinks.
type multi []Sink

// Multi returns a Sink that shows every frame on all of sinks. The first
// error is returned but every sink is still tried.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Show(img *image.RGBA) error {
	var first error
	for _, s := range m {
		if err := s.Show(img); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
