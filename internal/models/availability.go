package models

import "time"

// BlockKind labels what occupies a block of the weekly grid.
type BlockKind string

const (
	BlockKindClass       BlockKind = "CLASS"
	BlockKindLab         BlockKind = "LAB"
	BlockKindOfficeHours BlockKind = "OFFICE_HOURS"
)

// AvailabilityBlock is a recurring weekly busy interval. Start and End are minutes after midnight.
type AvailabilityBlock struct {
	Weekday time.Weekday `json:"weekday"`
	Start   int          `json:"start"`
	End     int          `json:"end"`
	Label   string       `json:"label"`
	Kind    BlockKind    `json:"kind"`
}

// AvailabilityCell is one weekday column of a grid row. Covered cells belong to a block
// that started on an earlier row.
type AvailabilityCell struct {
	Block   *AvailabilityBlock `json:"block,omitempty"`
	Rowspan int                `json:"rowspan,omitempty"`
	Covered bool               `json:"covered,omitempty"`
}

// AvailabilityRow is one time slot across the week, Sunday first.
type AvailabilityRow struct {
	Label string              `json:"label"`
	Cells [7]AvailabilityCell `json:"cells"`
}

// AvailabilityGrid is the weekly schedule table.
type AvailabilityGrid struct {
	SlotMinutes int               `json:"slot_minutes"`
	Rows        []AvailabilityRow `json:"rows"`
}
