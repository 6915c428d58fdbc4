package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/course-site-api/internal/models"
)

// ErrGridOverlap is returned when two blocks claim the same weekday time.
var ErrGridOverlap = errors.New("availability blocks overlap")

var weekdayAbbrev = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// GridConfig bounds the rows of an availability grid.
type GridConfig struct {
	DayStart    string
	DayEnd      string
	SlotMinutes int
}

// BuildAvailabilityGrid lays blocks onto rows of SlotMinutes between DayStart and DayEnd.
// Blocks are clipped to the visible range and rounded outwards to whole slots.
func BuildAvailabilityGrid(cfg GridConfig, blocks []models.AvailabilityBlock) (*models.AvailabilityGrid, error) {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	dayStart, err := clockMinutes(cfg.DayStart, 8*60)
	if err != nil {
		return nil, err
	}
	dayEnd, err := clockMinutes(cfg.DayEnd, 18*60)
	if err != nil {
		return nil, err
	}
	if dayEnd <= dayStart {
		return nil, fmt.Errorf("grid end %s must be after start %s", cfg.DayEnd, cfg.DayStart)
	}

	sorted := make([]models.AvailabilityBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Weekday != sorted[j].Weekday {
			return sorted[i].Weekday < sorted[j].Weekday
		}
		return sorted[i].Start < sorted[j].Start
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Weekday == cur.Weekday && cur.Start < prev.End {
			return nil, fmt.Errorf("%w: %s %s and %s on %s", ErrGridOverlap, prev.Label, formatClock(prev.Start), cur.Label, cur.Weekday)
		}
	}

	rowCount := (dayEnd - dayStart + cfg.SlotMinutes - 1) / cfg.SlotMinutes
	grid := &models.AvailabilityGrid{
		SlotMinutes: cfg.SlotMinutes,
		Rows:        make([]models.AvailabilityRow, rowCount),
	}
	for i := range grid.Rows {
		grid.Rows[i].Label = formatClock(dayStart + i*cfg.SlotMinutes)
	}

	var nextFree [7]int
	for i := range sorted {
		block := sorted[i]
		if block.End <= dayStart || block.Start >= dayEnd || block.End <= block.Start {
			continue
		}
		col := int(block.Weekday) % 7
		first := maxInt((block.Start-dayStart)/cfg.SlotMinutes, 0)
		last := minInt((block.End-dayStart+cfg.SlotMinutes-1)/cfg.SlotMinutes, rowCount)
		first = maxInt(first, nextFree[col])
		if first >= rowCount {
			continue
		}
		if last <= first {
			last = first + 1
		}
		grid.Rows[first].Cells[col] = models.AvailabilityCell{Block: &sorted[i], Rowspan: last - first}
		for row := first + 1; row < last; row++ {
			grid.Rows[row].Cells[col].Covered = true
		}
		nextFree[col] = last
	}
	return grid, nil
}

// ParseOfficeHours reads entries such as "MON 10:00-11:00".
func ParseOfficeHours(entries []string) ([]models.AvailabilityBlock, error) {
	blocks := make([]models.AvailabilityBlock, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Fields(entry)
		if len(fields) != 2 {
			return nil, fmt.Errorf("office hours %q: want \"DAY HH:MM-HH:MM\"", entry)
		}
		abbrev := strings.ToUpper(fields[0])
		if len(abbrev) > 3 {
			abbrev = abbrev[:3]
		}
		day, ok := weekdayAbbrev[abbrev]
		if !ok {
			return nil, fmt.Errorf("office hours %q: unknown day %q", entry, fields[0])
		}
		bounds := strings.SplitN(fields[1], "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("office hours %q: missing end time", entry)
		}
		start, err := clockMinutes(bounds[0], -1)
		if err != nil {
			return nil, err
		}
		end, err := clockMinutes(bounds[1], -1)
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, fmt.Errorf("office hours %q: end before start", entry)
		}
		blocks = append(blocks, models.AvailabilityBlock{
			Weekday: day,
			Start:   start,
			End:     end,
			Label:   "Office Hours",
			Kind:    models.BlockKindOfficeHours,
		})
	}
	return blocks, nil
}

// OfferingBlocks turns the weekly meetings of an offering into grid blocks.
func OfferingBlocks(o models.Offering) ([]models.AvailabilityBlock, error) {
	if o.MeetingStart == "" {
		return nil, nil
	}
	start, err := clockMinutes(o.MeetingStart, -1)
	if err != nil {
		return nil, err
	}
	kind := models.BlockKindClass
	if o.Kind == models.OfferingKindLab {
		kind = models.BlockKindLab
	}
	label := o.Code
	if label == "" {
		label = o.Title
	}
	blocks := make([]models.AvailabilityBlock, 0, 7)
	for day, minutes := range o.MeetingMinutes {
		if minutes <= 0 {
			continue
		}
		blocks = append(blocks, models.AvailabilityBlock{
			Weekday: time.Weekday(day),
			Start:   start,
			End:     start + minutes,
			Label:   label,
			Kind:    kind,
		})
	}
	return blocks, nil
}

// clockMinutes converts "HH:MM" to minutes after midnight. An empty value yields fallback
// when fallback is not negative.
func clockMinutes(raw string, fallback int) (int, error) {
	if strings.TrimSpace(raw) == "" && fallback >= 0 {
		return fallback, nil
	}
	hour, minute, err := models.ParseClock(raw)
	if err != nil {
		return 0, err
	}
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
