package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/course-site-api/internal/models"
)

// ErrAssignmentNotConfigured is returned in strict mode for assignments the offering does not define.
var ErrAssignmentNotConfigured = errors.New("assignment is not configured")

type dayPair struct {
	assign int
	due    int
}

// AssignmentResolver turns per-type assignment rules into assign and due days.
// In compatibility mode configuration gaps degrade to placeholder days; in strict
// mode they are reported as errors.
type AssignmentResolver struct {
	schedule *TopicSchedule
	times    models.AssignmentTimes
	strict   bool

	byType   map[string][]models.Assignment
	resolved map[string][]dayPair
}

// NewAssignmentResolver groups assignments by type, ordered by position.
func NewAssignmentResolver(schedule *TopicSchedule, times models.AssignmentTimes, assignments []models.Assignment, strict bool) *AssignmentResolver {
	byType := make(map[string][]models.Assignment)
	for _, a := range assignments {
		key := normalizeType(a.Type)
		byType[key] = append(byType[key], a)
	}
	for key := range byType {
		list := byType[key]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
	}
	return &AssignmentResolver{
		schedule: schedule,
		times:    times,
		strict:   strict,
		byType:   byType,
		resolved: make(map[string][]dayPair),
	}
}

// Days returns the assign and due day indices of the index-th assignment of the type.
func (r *AssignmentResolver) Days(assignmentType string, index int) (int, int, error) {
	key := normalizeType(assignmentType)
	pairs, err := r.pairs(key)
	if err != nil {
		return 0, 0, err
	}
	if index < 0 || index >= len(pairs) {
		if r.strict {
			return 0, 0, fmt.Errorf("%w: %s #%d (%d configured)", ErrAssignmentNotConfigured, key, index, len(pairs))
		}
		if len(pairs) == 0 {
			return 0, 0, nil
		}
		lastDue := pairs[len(pairs)-1].due
		return lastDue + 1, lastDue, nil
	}
	return pairs[index].assign, pairs[index].due, nil
}

// Dates applies the per-type time of day to the resolved day pair.
func (r *AssignmentResolver) Dates(assignmentType string, index int) (time.Time, time.Time, error) {
	assign, due, err := r.Days(assignmentType, index)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	times := r.times.For(normalizeType(assignmentType))
	assignAt, err := r.at(assign, times.Assign)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	dueAt, err := r.at(due, times.Due)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return assignAt, dueAt, nil
}

// Resolve returns the configured assignment together with its days and datetimes.
func (r *AssignmentResolver) Resolve(assignmentType string, index int) (models.AssignmentInOffering, error) {
	key := normalizeType(assignmentType)
	assignDay, dueDay, err := r.Days(key, index)
	if err != nil {
		return models.AssignmentInOffering{}, err
	}
	assignAt, dueAt, err := r.Dates(key, index)
	if err != nil {
		return models.AssignmentInOffering{}, err
	}
	out := models.AssignmentInOffering{
		Index:     index,
		AssignDay: assignDay,
		DueDay:    dueDay,
		AssignAt:  assignAt,
		DueAt:     dueAt,
	}
	if list := r.byType[key]; index >= 0 && index < len(list) {
		out.Assignment = list[index]
	} else {
		out.Assignment = models.Assignment{Type: key, Position: index}
	}
	return out, nil
}

// ResolveAll resolves every configured assignment ordered by due day.
func (r *AssignmentResolver) ResolveAll() ([]models.AssignmentInOffering, error) {
	types := make([]string, 0, len(r.byType))
	for key := range r.byType {
		types = append(types, key)
	}
	sort.Strings(types)

	out := make([]models.AssignmentInOffering, 0)
	for _, key := range types {
		for i := range r.byType[key] {
			item, err := r.Resolve(key, i)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDay < out[j].DueDay })
	return out, nil
}

func (r *AssignmentResolver) pairs(key string) ([]dayPair, error) {
	if cached, ok := r.resolved[key]; ok {
		return cached, nil
	}
	list := r.byType[key]
	pairs := make([]dayPair, 0, len(list))
	for i, a := range list {
		var previous *dayPair
		if i > 0 {
			previous = &pairs[i-1]
		}
		pair, err := r.resolveOne(a, previous)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	r.resolved[key] = pairs
	return pairs, nil
}

// resolveOne computes the days for a single rule. previous is nil for the first assignment of a type.
func (r *AssignmentResolver) resolveOne(a models.Assignment, previous *dayPair) (dayPair, error) {
	var pair dayPair
	switch {
	case a.IsAnchored():
		endID := *a.DueTopicID
		if a.DueTopicEndID != nil && *a.DueTopicEndID != "" {
			endID = *a.DueTopicEndID
		}
		end, err := r.schedule.EndDay(endID)
		if err != nil {
			if r.strict || !errors.Is(err, ErrTopicNotScheduled) {
				return dayPair{}, err
			}
			return dayPair{}, nil
		}
		pair.due = end + a.DueOffsetDays
	case a.DueDay != nil:
		pair.due = *a.DueDay
	default:
		if r.strict {
			return dayPair{}, fmt.Errorf("%w: %s %q has no due rule", ErrAssignmentNotConfigured, a.Type, a.Title)
		}
		return dayPair{}, nil
	}

	switch {
	case a.AssignDay != nil:
		pair.assign = *a.AssignDay
	case a.AnchorTopicID != nil && *a.AnchorTopicID != "":
		start, err := r.schedule.StartDay(*a.AnchorTopicID)
		if err != nil {
			if r.strict || !errors.Is(err, ErrTopicNotScheduled) {
				return dayPair{}, err
			}
			return dayPair{}, nil
		}
		pair.assign = r.schedule.MeetingDayBefore(start)
	case previous != nil:
		pair.assign = previous.due + 1
	}

	if r.strict && (pair.due < 0 || pair.due >= r.schedule.Horizon()) {
		return dayPair{}, fmt.Errorf("%w: %s %q due on day %d outside [0,%d)", ErrAssignmentNotConfigured, a.Type, a.Title, pair.due, r.schedule.Horizon())
	}
	return pair, nil
}

func (r *AssignmentResolver) at(day int, clock string) (time.Time, error) {
	hour, minute, err := models.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	date := r.schedule.Semester().DateOfDayIndex(day)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
