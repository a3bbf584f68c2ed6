package main

import (
	"time"

	"toddlerclock/internal/schedule"
)

// addEvents lays down the day. Order matters: without overwrite the first
// event added for a minute keeps it.
func addEvents(s *schedule.Schedule) {
	s.Add(schedule.NewEvent([]int{19, 0}, []int{20, 0}, "Bedtime. Goodnight! Sleep well!"), false)
	s.Add(schedule.NewEvent([]int{20, 0}, []int{24, 0}, "Too early. Go back to sleep"), false)
	s.Add(schedule.NewEvent([]int{0, 0}, []int{6, 0}, "Too early. Go back to sleep"), false)
	s.Add(schedule.NewEvent([]int{6, 0}, []int{7, 0}, "Time to read"), false)
	s.Add(schedule.NewEvent([]int{7, 0}, []int{7, 15}, "It's morning! Wake up, parents!"), false)
	s.Add(schedule.NewEvent([]int{7, 15}, []int{7, 30}, "Get dressed and go downstairs!"), false)
	s.Add(schedule.NewEvent([]int{7, 30}, []int{8, 0}, "Breakfast and get ready for school!"), false)
}

// buildSchedule returns the day's schedule reading time from now.
func buildSchedule(now func() time.Time) *schedule.Schedule {
	s := schedule.New(schedule.WithClock(now))
	addEvents(s)
	return s
}
