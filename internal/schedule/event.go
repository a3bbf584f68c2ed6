package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	appLog "toddlerclock/internal/log"
)

// MinutesInDay is the number of slots in a Schedule. Minute 0 is midnight,
// minute 1439 is 23:59.
const MinutesInDay = 24 * 60

var (
	// ErrMalformedTime reports a start or stop time that is not a valid
	// {hour, minute} pair.
	ErrMalformedTime = errors.New("schedule: malformed time")
	// ErrInvertedRange reports a start time after the stop time.
	ErrInvertedRange = errors.New("schedule: start is after stop")
)

// Event is a single daily range [start, stop) with a message to display.
// Events cannot cross midnight; use two events instead.
//
// A zero Event, or one that failed validation, is inert: it has an empty
// range and no description, and Schedule.Add ignores it.
type Event struct {
	start       int
	stop        int
	description string
	valid       bool
	err         error
}

// NewEvent builds an Event from two {hour, minute} pairs in 24h time. The
// event stops at the beginning of the stop minute, so {10, 0}-{11, 0} covers
// 10:00 through 10:59. {24, 0} is accepted as a stop time to cover 23:59.
//
// Invalid input never panics; it is logged and produces an inert Event
// whose Err reports the reason.
func NewEvent(start, stop []int, description string) Event {
	appLog.Debug("adding event", "description", description, "start", start, "stop", stop)

	startMin, okStart := toMinute(start)
	stopMin, okStop := toMinute(stop)
	if !okStart || !okStop {
		appLog.Warn("time looks malformed", "start", start, "stop", stop, "description", description)
		return Event{err: ErrMalformedTime}
	}
	if startMin > stopMin {
		appLog.Warn("start is after stop", "start_minute", startMin, "stop_minute", stopMin, "description", description)
		return Event{err: ErrInvertedRange}
	}

	return Event{
		start:       startMin,
		stop:        stopMin,
		description: description,
		valid:       true,
	}
}

// ParseEvent is NewEvent for "HH:MM" strings.
func ParseEvent(start, stop, description string) Event {
	return NewEvent(parsePair(start), parsePair(stop), description)
}

// parsePair splits "HH:MM" into its numeric components. Anything that does
// not parse as a number is returned as a nil pair so that NewEvent rejects it.
func parsePair(s string) []int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// toMinute converts an {hour, minute} pair to minute-of-day. Only the
// result is range checked, so {7, 60} is 08:00.
func toMinute(pair []int) (int, bool) {
	if len(pair) != 2 {
		return 0, false
	}
	abs := pair[0]*60 + pair[1]
	if abs < 0 || abs > MinutesInDay {
		return 0, false
	}
	return abs, true
}

// Start returns the first minute-of-day the event covers.
func (e Event) Start() int { return e.start }

// Stop returns the minute-of-day just past the event.
func (e Event) Stop() int { return e.stop }

// Description returns the message shown while the event is current.
func (e Event) Description() string { return e.description }

// Valid reports whether the event passed validation.
func (e Event) Valid() bool { return e.valid }

// Err returns why the event is inert, or nil for a valid event. A zero
// Event is inert with a nil Err.
func (e Event) Err() error { return e.err }

// String renders the event as "HH:MM-HH:MM description".
func (e Event) String() string {
	if !e.valid {
		return "<invalid event>"
	}
	return fmt.Sprintf("%s-%s %s", FormatMinute(e.start), FormatMinute(e.stop), e.description)
}

// FormatMinute renders minute-of-day as "HH:MM". 1440 renders as "24:00".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
