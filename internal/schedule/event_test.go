package schedule

import (
	"errors"
	"testing"
)

func TestNewEvent_Valid(t *testing.T) {
	e := NewEvent([]int{10, 0}, []int{11, 0}, "Event 1")
	if !e.Valid() {
		t.Fatalf("expected valid event, err=%v", e.Err())
	}
	if e.Start() != 600 || e.Stop() != 660 || e.Description() != "Event 1" {
		t.Fatalf("got start=%d stop=%d desc=%q", e.Start(), e.Stop(), e.Description())
	}
	if e.Err() != nil {
		t.Fatalf("unexpected err: %v", e.Err())
	}
}

func TestNewEvent_Invalid(t *testing.T) {
	tcs := []struct {
		name  string
		start []int
		stop  []int
		want  error
	}{
		{name: "three part start", start: []int{7, 0, 0}, stop: []int{8, 0}, want: ErrMalformedTime},
		{name: "one part stop", start: []int{7, 0}, stop: []int{8}, want: ErrMalformedTime},
		{name: "nil start", start: nil, stop: []int{8, 0}, want: ErrMalformedTime},
		{name: "negative hour", start: []int{-1, 0}, stop: []int{8, 0}, want: ErrMalformedTime},
		{name: "negative total", start: []int{0, -1}, stop: []int{8, 0}, want: ErrMalformedTime},
		{name: "past midnight", start: []int{7, 0}, stop: []int{24, 1}, want: ErrMalformedTime},
		{name: "inverted", start: []int{9, 0}, stop: []int{8, 0}, want: ErrInvertedRange},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEvent(tc.start, tc.stop, "nope")
			if e.Valid() {
				t.Fatalf("NewEvent(%v, %v) is valid; want inert", tc.start, tc.stop)
			}
			if !errors.Is(e.Err(), tc.want) {
				t.Fatalf("Err() = %v; want %v", e.Err(), tc.want)
			}
			if e.Description() != "" || e.Start() != e.Stop() {
				t.Fatalf("inert event leaks data: %+v", e)
			}
		})
	}
}

func TestNewEvent_MinuteCarries(t *testing.T) {
	tcs := []struct {
		start, stop []int
		from, to    int
	}{
		{start: []int{7, 60}, stop: []int{8, 30}, from: 480, to: 510},
		{start: []int{0, 90}, stop: []int{2, 0}, from: 90, to: 120},
		{start: []int{23, 0}, stop: []int{23, 60}, from: 1380, to: MinutesInDay},
	}
	for _, tc := range tcs {
		e := NewEvent(tc.start, tc.stop, "carry")
		if !e.Valid() {
			t.Fatalf("NewEvent(%v, %v) invalid: %v", tc.start, tc.stop, e.Err())
		}
		if e.Start() != tc.from || e.Stop() != tc.to {
			t.Fatalf("NewEvent(%v, %v) = %d-%d; want %d-%d", tc.start, tc.stop, e.Start(), e.Stop(), tc.from, tc.to)
		}
	}
}

func TestNewEvent_EndOfDay(t *testing.T) {
	e := NewEvent([]int{20, 0}, []int{24, 0}, "Too early")
	if !e.Valid() || e.Stop() != MinutesInDay {
		t.Fatalf("expected valid event ending at %d, got %+v", MinutesInDay, e)
	}
}

func TestParseEvent(t *testing.T) {
	tcs := []struct {
		start, stop string
		valid       bool
		from, to    int
	}{
		{start: "06:00", stop: "07:00", valid: true, from: 360, to: 420},
		{start: "7:15", stop: " 7:30 ", valid: true, from: 435, to: 450},
		{start: "07:00:00", stop: "08:00", valid: false},
		{start: "seven", stop: "08:00", valid: false},
		{start: "08:00", stop: "07:00", valid: false},
	}
	for _, tc := range tcs {
		e := ParseEvent(tc.start, tc.stop, "x")
		if e.Valid() != tc.valid {
			t.Fatalf("ParseEvent(%q, %q).Valid() = %v; want %v", tc.start, tc.stop, e.Valid(), tc.valid)
		}
		if tc.valid && (e.Start() != tc.from || e.Stop() != tc.to) {
			t.Fatalf("ParseEvent(%q, %q) = [%d, %d); want [%d, %d)", tc.start, tc.stop, e.Start(), e.Stop(), tc.from, tc.to)
		}
	}
}

func TestEventString(t *testing.T) {
	e := NewEvent([]int{7, 0}, []int{7, 15}, "Wake up")
	if got := e.String(); got != "07:00-07:15 Wake up" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Event{}).String(); got != "<invalid event>" {
		t.Fatalf("zero String() = %q", got)
	}
}
