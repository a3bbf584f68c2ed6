package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"toddlerclock/internal/battery"
	"toddlerclock/internal/display"
	appLog "toddlerclock/internal/log"
	"toddlerclock/internal/render"
	"toddlerclock/internal/schedule"
)

// clock ties the schedule, renderer and display together. tick may be
// called from cron and from startup; mu keeps frames from interleaving.
type clock struct {
	sched *schedule.Schedule
	rend  *render.Renderer
	sink  display.Sink
	bat   battery.Reader
	now   func() time.Time

	mu       sync.Mutex
	lastMsg  string
	rendered int
}

// tick draws one frame for the current minute.
func (c *clock) tick(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// One timestamp for both the digits and the message.
	now := c.now()
	msg := c.sched.At(now)

	var st *battery.Status
	if c.bat != nil {
		s, err := c.bat.Read(ctx)
		if err != nil {
			appLog.Error("battery read failed", err)
		} else {
			st = &s
		}
	}

	if msg != c.lastMsg || c.rendered == 0 {
		appLog.Info("message changed", "time", now.Format("15:04"), "message", msg)
		c.lastMsg = msg
	}

	if err := c.sink.Show(c.rend.Frame(now, msg, st)); err != nil {
		return fmt.Errorf("show frame: %w", err)
	}
	c.rendered++
	return nil
}

// run redraws on every refresh tick until ctx is cancelled.
func (c *clock) run(ctx context.Context, spec string) error {
	cr := cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(appLog.CronLogger{}),
		cron.WithChain(cron.Recover(appLog.CronLogger{}), cron.SkipIfStillRunning(appLog.CronLogger{})),
	)
	if _, err := cr.AddFunc(spec, func() {
		if err := c.tick(ctx); err != nil {
			appLog.Error("render tick failed", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid refresh spec %q: %w", spec, err)
	}

	cr.Start()
	appLog.Info("render loop started", "refresh", spec)

	<-ctx.Done()
	<-cr.Stop().Done()
	appLog.Info("render loop stopped", "frames", c.frames())
	return nil
}

func (c *clock) frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rendered
}
