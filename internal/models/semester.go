package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DefaultWeekCount is used when a semester has neither an override nor a reading period.
const DefaultWeekCount = 15

// ErrCalendarInconsistent reports a date that cannot be mapped back onto the semester calendar.
var ErrCalendarInconsistent = errors.New("calendar day index does not round-trip")

// Semester models one academic term. Day index 0 is always the first day of classes.
type Semester struct {
	ID            string                 `db:"id" json:"id"`
	Title         string                 `db:"title" json:"title"`
	FirstDay      time.Time              `db:"first_day" json:"first_day"`
	Timezone      string                 `db:"timezone" json:"timezone"`
	ReadingDays   []time.Time            `db:"-" json:"reading_days"`
	WeekOverride  int                    `db:"week_count" json:"week_count_override,omitempty"`
	Cancellations []SemesterCancellation `db:"-" json:"cancellations"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time              `db:"updated_at" json:"updated_at"`

	loc *time.Location
}

// SemesterCancellation records a day on which no class of the semester meets.
type SemesterCancellation struct {
	ID         string    `db:"id" json:"id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	Date       time.Time `db:"date" json:"date"`
	Reason     string    `db:"reason" json:"reason"`
}

// SemesterFilter defines filters supported by list endpoints.
type SemesterFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortOrder string
}

// Location returns the semester time zone, falling back to UTC for unknown names.
func (s *Semester) Location() *time.Location {
	if s.loc != nil {
		return s.loc
	}
	loc := time.UTC
	if s.Timezone != "" {
		if l, err := time.LoadLocation(s.Timezone); err == nil {
			loc = l
		}
	}
	s.loc = loc
	return loc
}

// FirstDayOfClasses is the calendar date of FirstDay at midnight in the semester zone.
func (s *Semester) FirstDayOfClasses() time.Time {
	return calendarDate(s.FirstDay, s.Location())
}

// DayIndexOf returns the number of calendar days between the first day of classes and date.
// The time of day is ignored. The result is negative for dates before the term.
func (s *Semester) DayIndexOf(date time.Time) (int, error) {
	loc := s.Location()
	first := s.FirstDayOfClasses()
	target := calendarDate(date, loc)

	estimate := int(math.Round(target.Sub(first).Hours() / 24))
	for _, candidate := range []int{estimate - 1, estimate, estimate + 1} {
		if sameDate(first.AddDate(0, 0, candidate), target) {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: %s from %s", ErrCalendarInconsistent, target.Format("2006-01-02"), first.Format("2006-01-02"))
}

// DateOfDayIndex returns midnight of the given day index in the semester zone.
func (s *Semester) DateOfDayIndex(i int) time.Time {
	return s.FirstDayOfClasses().AddDate(0, 0, i)
}

// WeekdayOfDayIndex maps a day index to its weekday without consulting the calendar.
func (s *Semester) WeekdayOfDayIndex(i int) time.Weekday {
	wd := int(s.FirstDayOfClasses().Weekday())
	return time.Weekday(((i+wd)%7 + 7) % 7)
}

// FirstSunday is the Sunday on or before the first day of classes.
func (s *Semester) FirstSunday() time.Time {
	first := s.FirstDayOfClasses()
	return first.AddDate(0, 0, -int(first.Weekday()))
}

// WeekCount returns the override when set, otherwise the weeks spanned from the
// first Sunday through the last reading day, otherwise DefaultWeekCount.
func (s *Semester) WeekCount() int {
	if s.WeekOverride > 0 {
		return s.WeekOverride
	}
	readings := s.sortedReadingDays()
	if len(readings) == 0 {
		return DefaultWeekCount
	}
	last, err := s.DayIndexOf(readings[len(readings)-1])
	if err != nil || last < 0 {
		return DefaultWeekCount
	}
	spanned := last + int(s.FirstDayOfClasses().Weekday()) + 1
	return (spanned + 6) / 7
}

// Horizon is the number of day indices available to the scheduler. Classes end
// before the reading period when one is configured.
func (s *Semester) Horizon() int {
	readings := s.sortedReadingDays()
	if len(readings) > 0 {
		if idx, err := s.DayIndexOf(readings[0]); err == nil && idx > 0 {
			return idx
		}
	}
	return s.WeekCount()*7 - int(s.FirstDayOfClasses().Weekday())
}

// CancelDay appends a cancellation for the given date.
func (s *Semester) CancelDay(date time.Time, reason string) {
	s.Cancellations = append(s.Cancellations, SemesterCancellation{
		SemesterID: s.ID,
		Date:       calendarDate(date, s.Location()),
		Reason:     reason,
	})
}

// IsCancelled reports whether classes are cancelled on date and why.
func (s *Semester) IsCancelled(date time.Time) (string, bool) {
	target := calendarDate(date, s.Location())
	for _, c := range s.Cancellations {
		if sameDate(calendarDate(c.Date, s.Location()), target) {
			return c.Reason, true
		}
	}
	return "", false
}

// CancelledDays maps day indices to the cancellation reason.
func (s *Semester) CancelledDays() (map[int]string, error) {
	out := make(map[int]string, len(s.Cancellations))
	for _, c := range s.Cancellations {
		idx, err := s.DayIndexOf(c.Date)
		if err != nil {
			return nil, err
		}
		out[idx] = c.Reason
	}
	return out, nil
}

// Validate checks that every reading day falls after the first day of classes.
func (s *Semester) Validate() error {
	if s.FirstDay.IsZero() {
		return errors.New("first day of classes is required")
	}
	if _, err := time.LoadLocation(s.Timezone); s.Timezone != "" && err != nil {
		return fmt.Errorf("unknown timezone %q", s.Timezone)
	}
	var bad []string
	for _, day := range s.ReadingDays {
		idx, err := s.DayIndexOf(day)
		if err != nil {
			return err
		}
		if idx <= 0 {
			bad = append(bad, day.Format("2006-01-02"))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("reading days must be after the first day of classes: %s", strings.Join(bad, ", "))
	}
	return nil
}

func (s *Semester) sortedReadingDays() []time.Time {
	if len(s.ReadingDays) == 0 {
		return nil
	}
	out := make([]time.Time, len(s.ReadingDays))
	copy(out, s.ReadingDays)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// calendarDate keeps the year, month and day of t as written in its own zone and
// places them at midnight in loc.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
