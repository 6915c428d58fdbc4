package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/course-site-api/internal/models"
)

var (
	// ErrScheduleOverflow is returned when queued topics remain after the last day of the term.
	ErrScheduleOverflow = errors.New("topics do not fit before the end of the term")
	// ErrTopicNotScheduled is returned for lookups of topics that were never placed.
	ErrTopicNotScheduled = errors.New("topic is not scheduled")
	// ErrInvalidPin is returned for pins that break the per-day meeting budget.
	ErrInvalidPin = errors.New("invalid pinned entry")
)

type topicSpan struct {
	start int
	end   int
}

// TopicSchedule packs an ordered queue of topics onto the meeting days of one offering.
// It is not safe for concurrent use; each caller builds its own.
type TopicSchedule struct {
	semester *models.Semester
	meeting  models.MeetingMinutes
	horizon  int

	days     [][]models.ScheduleEntry
	reasons  map[int]string
	topics   []models.CourseTopic
	queue    []models.CourseTopic
	consumed int
	spans    map[string]topicSpan
}

// NewTopicSchedule prepares an empty schedule over the semester horizon. Semester
// cancellations are pinned immediately.
func NewTopicSchedule(semester *models.Semester, meeting models.MeetingMinutes) (*TopicSchedule, error) {
	if semester == nil {
		return nil, errors.New("semester is required")
	}
	horizon := semester.Horizon()
	if horizon < 0 {
		horizon = 0
	}
	s := &TopicSchedule{
		semester: semester,
		meeting:  meeting,
		horizon:  horizon,
		days:     make([][]models.ScheduleEntry, horizon),
		reasons:  make(map[int]string),
		spans:    make(map[string]topicSpan),
	}

	cancelled, err := semester.CancelledDays()
	if err != nil {
		return nil, err
	}
	for day, reason := range cancelled {
		if day < 0 || day >= horizon {
			continue
		}
		if err := s.CancelMeeting(day, reason); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Horizon is the number of day indices the schedule covers.
func (s *TopicSchedule) Horizon() int {
	return s.horizon
}

// Semester returns the calendar the schedule is laid on.
func (s *TopicSchedule) Semester() *models.Semester {
	return s.semester
}

// MeetingMinutes returns the meeting length of the given day index.
func (s *TopicSchedule) MeetingMinutes(day int) int {
	return s.meeting.For(s.semester.WeekdayOfDayIndex(day))
}

// Enqueue appends topics to the unscheduled queue. Topics without an ID receive one
// derived from their position so that lookups stay identity based.
func (s *TopicSchedule) Enqueue(topics ...models.CourseTopic) {
	for _, topic := range topics {
		if topic.ID == "" {
			topic.ID = fmt.Sprintf("topic-%d", len(s.topics)+1)
		}
		s.topics = append(s.topics, topic)
		s.queue = append(s.queue, topic)
	}
}

// Pending returns the number of topics still waiting to be placed.
func (s *TopicSchedule) Pending() int {
	return len(s.queue)
}

// Pin places a fixed entry before packing. Cancelled pins consume whatever is left of the day.
func (s *TopicSchedule) Pin(day int, title string, minutes int, kind models.PinKind) error {
	if day < 0 || day >= s.horizon {
		return fmt.Errorf("%w: day %d outside [0,%d)", ErrInvalidPin, day, s.horizon)
	}
	meeting := s.MeetingMinutes(day)
	if meeting == 0 {
		return fmt.Errorf("%w: day %d has no meeting", ErrInvalidPin, day)
	}
	remaining := meeting - s.usedMinutes(day)

	switch kind {
	case models.PinKindCancelled:
		if _, ok := s.reasons[day]; ok {
			return nil
		}
		s.reasons[day] = title
		if remaining <= 0 {
			return nil
		}
		s.days[day] = append(s.days[day], models.ScheduleEntry{Title: title, Minutes: remaining, Kind: models.EntryKindCancelled})
	case models.PinKindFixed, "":
		if minutes <= 0 {
			return fmt.Errorf("%w: minutes must be positive", ErrInvalidPin)
		}
		if minutes > remaining {
			return fmt.Errorf("%w: %d minutes on day %d exceeds the %d remaining", ErrInvalidPin, minutes, day, remaining)
		}
		s.days[day] = append(s.days[day], models.ScheduleEntry{Title: title, Minutes: minutes, Kind: models.EntryKindFixed})
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPin, kind)
	}
	return nil
}

// CancelMeeting marks the meeting on day as cancelled. Non-meeting days are ignored.
func (s *TopicSchedule) CancelMeeting(day int, reason string) error {
	if day >= 0 && day < s.horizon && s.MeetingMinutes(day) == 0 {
		return nil
	}
	return s.Pin(day, reason, 0, models.PinKindCancelled)
}

// IsCancelled reports whether the meeting on day is cancelled.
func (s *TopicSchedule) IsCancelled(day int) bool {
	_, ok := s.reasons[day]
	return ok
}

// Build drains the topic queue onto meeting days. Without force it is a no-op once the
// queue is empty. A forced rebuild discards every placed topic, keeps pins and
// cancellations, and packs all topics again in their original order.
func (s *TopicSchedule) Build(force bool) error {
	if force {
		s.reset()
	}
	if len(s.queue) == 0 {
		return nil
	}

	for day := 0; day < s.horizon && len(s.queue) > 0; day++ {
		if s.IsCancelled(day) {
			continue
		}
		remaining := s.MeetingMinutes(day) - s.usedMinutes(day)
		for remaining > 0 && len(s.queue) > 0 {
			head := s.queue[0]
			left := head.Minutes - s.consumed
			alloc := minInt(remaining, left)
			if alloc > 0 {
				s.place(day, head, alloc)
				remaining -= alloc
				s.consumed += alloc
			}
			if s.consumed >= head.Minutes {
				s.queue = s.queue[1:]
				s.consumed = 0
			}
		}
	}
	s.annotateSplits()

	if len(s.queue) > 0 {
		return fmt.Errorf("%w: %d topic(s) left after day %d", ErrScheduleOverflow, len(s.queue), s.horizon-1)
	}
	return nil
}

// TopicsOn returns the entries placed on day, building lazily.
func (s *TopicSchedule) TopicsOn(day int) ([]models.ScheduleEntry, error) {
	if err := s.Build(false); err != nil {
		return nil, err
	}
	if day < 0 || day >= s.horizon {
		return nil, nil
	}
	out := make([]models.ScheduleEntry, len(s.days[day]))
	copy(out, s.days[day])
	return out, nil
}

// StartDay returns the first day the topic is taught.
func (s *TopicSchedule) StartDay(topicID string) (int, error) {
	span, err := s.span(topicID)
	if err != nil {
		return 0, err
	}
	return span.start, nil
}

// EndDay returns the last day the topic is taught.
func (s *TopicSchedule) EndDay(topicID string) (int, error) {
	span, err := s.span(topicID)
	if err != nil {
		return 0, err
	}
	return span.end, nil
}

// MeetingDayBefore returns the last uncancelled meeting day strictly before day, or 0 when none exists.
func (s *TopicSchedule) MeetingDayBefore(day int) int {
	if day > s.horizon {
		day = s.horizon
	}
	for d := day - 1; d >= 0; d-- {
		if s.MeetingMinutes(d) > 0 && !s.IsCancelled(d) {
			return d
		}
	}
	return 0
}

// Days returns every meeting day of the horizon with its entries, building lazily.
func (s *TopicSchedule) Days() ([]models.ScheduleDay, error) {
	if err := s.Build(false); err != nil {
		return nil, err
	}
	out := make([]models.ScheduleDay, 0, s.horizon)
	for day := 0; day < s.horizon; day++ {
		meeting := s.MeetingMinutes(day)
		if meeting == 0 {
			continue
		}
		entries := make([]models.ScheduleEntry, len(s.days[day]))
		copy(entries, s.days[day])
		out = append(out, models.ScheduleDay{
			Index:          day,
			Date:           s.semester.DateOfDayIndex(day),
			Weekday:        s.semester.WeekdayOfDayIndex(day).String(),
			MeetingMinutes: meeting,
			Entries:        entries,
		})
	}
	return out, nil
}

// Stats summarises the built schedule.
func (s *TopicSchedule) Stats() (models.ScheduleStats, error) {
	if err := s.Build(false); err != nil {
		return models.ScheduleStats{}, err
	}
	var stats models.ScheduleStats
	for day := 0; day < s.horizon; day++ {
		meeting := s.MeetingMinutes(day)
		if meeting == 0 {
			continue
		}
		stats.MeetingDays++
		used := false
		for _, entry := range s.days[day] {
			if entry.Kind == models.EntryKindTopic {
				stats.MinutesAllocated += entry.Minutes
				used = true
			} else {
				stats.MinutesPinned += entry.Minutes
			}
		}
		if used {
			stats.DaysUsed++
		}
		stats.MinutesUnused += meeting - s.usedMinutes(day)
	}
	return stats, nil
}

func (s *TopicSchedule) span(topicID string) (topicSpan, error) {
	if err := s.Build(false); err != nil {
		return topicSpan{}, err
	}
	span, ok := s.spans[topicID]
	if !ok {
		return topicSpan{}, fmt.Errorf("%w: %s", ErrTopicNotScheduled, topicID)
	}
	return span, nil
}

func (s *TopicSchedule) place(day int, topic models.CourseTopic, minutes int) {
	s.days[day] = append(s.days[day], models.ScheduleEntry{
		TopicID: topic.ID,
		Title:   topic.Title,
		Minutes: minutes,
		Kind:    models.EntryKindTopic,
	})
	span, ok := s.spans[topic.ID]
	if !ok {
		span.start = day
	}
	span.end = day
	s.spans[topic.ID] = span
}

func (s *TopicSchedule) reset() {
	for day := range s.days {
		kept := s.days[day][:0]
		for _, entry := range s.days[day] {
			if entry.Kind != models.EntryKindTopic {
				kept = append(kept, entry)
			}
		}
		s.days[day] = kept
	}
	for day, reason := range s.reasons {
		if remaining := s.MeetingMinutes(day) - s.usedMinutes(day); remaining > 0 {
			s.days[day] = append(s.days[day], models.ScheduleEntry{Title: reason, Minutes: remaining, Kind: models.EntryKindCancelled})
		}
	}
	s.queue = append(s.queue[:0:0], s.topics...)
	s.consumed = 0
	s.spans = make(map[string]topicSpan)
}

func (s *TopicSchedule) annotateSplits() {
	parts := make(map[string]int)
	for day := range s.days {
		for _, entry := range s.days[day] {
			if entry.Kind == models.EntryKindTopic {
				parts[entry.TopicID]++
			}
		}
	}
	seen := make(map[string]int)
	for day := range s.days {
		for i := range s.days[day] {
			entry := &s.days[day][i]
			if entry.Kind != models.EntryKindTopic || parts[entry.TopicID] < 2 {
				continue
			}
			seen[entry.TopicID]++
			entry.Part = seen[entry.TopicID]
			entry.Parts = parts[entry.TopicID]
		}
	}
}

func (s *TopicSchedule) usedMinutes(day int) int {
	used := 0
	for _, entry := range s.days[day] {
		used += entry.Minutes
	}
	return used
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
