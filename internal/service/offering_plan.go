package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/course-site-api/internal/models"
)

// PlanOptions controls how an offering is scheduled.
type PlanOptions struct {
	StrictAssignments bool
	Rebuild           bool
}

// OfferingPlan is a built schedule together with the resolver used for its assignments.
type OfferingPlan struct {
	Topics   *TopicSchedule
	Resolver *AssignmentResolver
	Schedule *models.OfferingSchedule
}

// PlanOffering pins, enqueues and builds the schedule of one offering and resolves
// every configured assignment against it.
func PlanOffering(detail *models.OfferingDetail, opts PlanOptions) (*OfferingPlan, error) {
	schedule, err := NewTopicSchedule(&detail.Semester, detail.Offering.MeetingMinutes)
	if err != nil {
		return nil, err
	}

	pins := make([]models.OfferingPin, len(detail.Pins))
	copy(pins, detail.Pins)
	sort.SliceStable(pins, func(i, j int) bool { return pins[i].Day < pins[j].Day })
	for _, pin := range pins {
		// a semester cancellation added later wins over pins on that day
		if pin.Kind != models.PinKindCancelled && schedule.IsCancelled(pin.Day) {
			continue
		}
		if err := schedule.Pin(pin.Day, pin.Title, pin.Minutes, pin.Kind); err != nil {
			return nil, fmt.Errorf("pin %q: %w", pin.Title, err)
		}
	}

	topics := make([]models.CourseTopic, len(detail.Topics))
	copy(topics, detail.Topics)
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Position < topics[j].Position })
	schedule.Enqueue(topics...)

	if err := schedule.Build(opts.Rebuild); err != nil {
		return nil, err
	}
	days, err := schedule.Days()
	if err != nil {
		return nil, err
	}
	stats, err := schedule.Stats()
	if err != nil {
		return nil, err
	}

	resolver := NewAssignmentResolver(schedule, detail.Offering.AssignmentTimes, detail.Assignments, opts.StrictAssignments)
	assignments, err := resolver.ResolveAll()
	if err != nil {
		return nil, err
	}

	return &OfferingPlan{
		Topics:   schedule,
		Resolver: resolver,
		Schedule: &models.OfferingSchedule{
			OfferingID:  detail.Offering.ID,
			Horizon:     schedule.Horizon(),
			Days:        days,
			Assignments: assignments,
			Stats:       stats,
			BuiltAt:     time.Now().UTC(),
		},
	}, nil
}

// View assembles the data the page renderer needs.
func (p *OfferingPlan) View(detail *models.OfferingDetail) OfferingView {
	return OfferingView{
		Offering: detail.Offering,
		Semester: &detail.Semester,
		Topics:   detail.Topics,
		Schedule: p.Schedule,
	}
}
