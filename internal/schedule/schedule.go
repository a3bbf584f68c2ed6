// Package schedule maps every minute of the day to the message the clock
// should show.
//
// A Schedule is built once at startup by adding Events in order and is
// read-only afterwards. It does no locking of its own: callers that keep
// calling Add after readers have started must serialize those calls.
package schedule

import (
	"time"

	appLog "toddlerclock/internal/log"
)

// Schedule holds one description per minute of the day. An empty string
// means nothing is scheduled for that minute.
type Schedule struct {
	minutes [MinutesInDay]string
	now     func() time.Time
}

// Option configures a Schedule.
type Option func(*Schedule)

// WithClock sets the time source used by Current. The default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Schedule) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Schedule with every minute empty.
func New(opts ...Option) *Schedule {
	s := &Schedule{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add lays e over the day. A minute that already has a description keeps it
// unless overwrite is set, so the first event added for a minute wins by
// default. Invalid events change nothing.
func (s *Schedule) Add(e Event, overwrite bool) {
	if !e.Valid() {
		appLog.Debug("ignoring invalid event", "err", e.Err())
		return
	}
	for i := e.start; i < e.stop; i++ {
		if s.minutes[i] == "" || overwrite {
			s.minutes[i] = e.description
		}
	}
}

// EventAt returns the description scheduled at minute-of-day minute, or ""
// when nothing is scheduled. Minutes outside [0, 1440) are logged and
// return "".
func (s *Schedule) EventAt(minute int) string {
	if minute < 0 {
		appLog.Warn("minute less than zero", "minute", minute)
		return ""
	}
	if minute >= MinutesInDay {
		appLog.Warn("minute past end of day", "minute", minute)
		return ""
	}
	return s.minutes[minute]
}

// At returns the description for the wall-clock minute of t.
func (s *Schedule) At(t time.Time) string {
	return s.EventAt(t.Hour()*60 + t.Minute())
}

// Current returns whatever should be happening right now, or "".
func (s *Schedule) Current() string {
	return s.At(s.now())
}

// Span is a maximal run of minutes [Start, Stop) sharing one description.
type Span struct {
	Start       int    `json:"start"`
	Stop        int    `json:"stop"`
	Description string `json:"description"`
}

// Spans returns the resolved day as ordered runs of equal, non-empty
// description. Empty minutes are not reported.
func (s *Schedule) Spans() []Span {
	var out []Span
	for i := 0; i < MinutesInDay; {
		desc := s.minutes[i]
		j := i + 1
		for j < MinutesInDay && s.minutes[j] == desc {
			j++
		}
		if desc != "" {
			out = append(out, Span{Start: i, Stop: j, Description: desc})
		}
		i = j
	}
	return out
}
