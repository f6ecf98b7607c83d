package main

import (
	"time"

	"github.com/scmhub/calendar"
)

// Scheduler decides when the daily scan fires: at the configured
// wall-clock minute, on NYSE trading days only.
type Scheduler struct {
	hour     int
	minute   int
	location *time.Location
	nyse     *calendar.Calendar
}

func NewScheduler(hour, minute int, timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{
		hour:     hour,
		minute:   minute,
		location: loc,
		nyse:     calendar.XNYS(),
	}
}

// IsScheduledTime reports whether the current time matches the schedule
// (within the same minute).
func (s *Scheduler) IsScheduledTime() bool {
	now := time.Now().In(s.location)
	return now.Hour() == s.hour && now.Minute() == s.minute
}

// Today returns today's date in YYYY-MM-DD format in the configured timezone.
func (s *Scheduler) Today() string {
	return time.Now().In(s.location).Format("2006-01-02")
}

// IsTradingDay reports whether today is a NYSE trading day. The check
// uses noon local time so the calendar lookup lands on the right date.
func (s *Scheduler) IsTradingDay() bool {
	now := time.Now().In(s.location)
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, s.location)
	return s.nyse.IsBusinessDay(noon)
}

// Location returns the scheduler's timezone location
func (s *Scheduler) Location() *time.Location {
	return s.location
}
