package model

import (
	"regexp"
	"strings"
	"time"

	"social-autopost/internal/domain"
)

// DayWildcard in DaysOfWeek means the slot fires every day.
const DayWildcard = "DAILY"

var slotTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ScheduleSlot is a recurring publication rule: fire at Time (wall clock in
// the slot's own Timezone) on the named weekdays. The timezone is stored and
// validated per slot so the write path and the matcher always agree on the
// time basis.
type ScheduleSlot struct {
	ID         string
	Time       string // "HH:MM"
	DaysOfWeek []string
	CategoryID string
	Timezone   string // IANA identifier, default UTC
	Active     bool
	CreatedAt  time.Time
}

// NewScheduleSlot validates and constructs a slot. Day names are normalized
// to upper case; unknown day names are rejected.
func NewScheduleSlot(id, timeOfDay string, days []string, categoryID, timezone string) (*ScheduleSlot, error) {
	if id == "" || !slotTimeRe.MatchString(timeOfDay) || len(days) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, domain.ErrInvalidArgument
	}
	norm := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.ToUpper(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if d != DayWildcard {
			if _, ok := weekdayNames[d]; !ok {
				return nil, domain.ErrInvalidArgument
			}
		}
		norm = append(norm, d)
	}
	if len(norm) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &ScheduleSlot{
		ID:         id,
		Time:       timeOfDay,
		DaysOfWeek: norm,
		CategoryID: categoryID,
		Timezone:   timezone,
		Active:     true,
		CreatedAt:  time.Now(),
	}, nil
}

// Location resolves the slot's timezone. Slots are validated on write, so a
// load failure only happens for rows predating validation; fall back to UTC.
func (s *ScheduleSlot) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

func (s *ScheduleSlot) matchesDay(d time.Weekday) bool {
	for _, name := range s.DaysOfWeek {
		if name == DayWildcard {
			return true
		}
		if wd, ok := weekdayNames[name]; ok && wd == d {
			return true
		}
	}
	return false
}

// MatchesMinute reports whether the slot is due at the given instant,
// truncated to minute granularity in the slot's timezone.
func (s *ScheduleSlot) MatchesMinute(now time.Time) bool {
	local := now.In(s.Location())
	return local.Format("15:04") == s.Time && s.matchesDay(local.Weekday())
}

// NextOccurrence returns the first instant at or after from on which the slot
// fires, scanning at most 7 days ahead. ok is false when the day set never
// matches.
func (s *ScheduleSlot) NextOccurrence(from time.Time) (time.Time, bool) {
	loc := s.Location()
	local := from.In(loc)

	hh := int(s.Time[0]-'0')*10 + int(s.Time[1]-'0')
	mm := int(s.Time[3]-'0')*10 + int(s.Time[4]-'0')

	candidate := time.Date(local.Year(), local.Month(), local.Day(), hh, mm, 0, 0, loc)
	if candidate.Before(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	for i := 0; i < 7; i++ {
		if s.matchesDay(candidate.Weekday()) {
			return candidate, true
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

// DayBounds returns the half-open calendar-day interval [start, end) that
// contains at, computed in the slot's timezone. Used as the idempotency key:
// one post per (slot, day).
func (s *ScheduleSlot) DayBounds(at time.Time) (time.Time, time.Time) {
	local := at.In(s.Location())
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.Location())
	return start, start.AddDate(0, 0, 1)
}
