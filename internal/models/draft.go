package models

import "time"

// DraftKind selects the wizard variant and its fixed step count.
type DraftKind string

// Wizard variants.
const (
	DraftKindStandard DraftKind = "STANDARD"
	DraftKindOffline  DraftKind = "OFFLINE"
)

// StepCount returns the fixed number of steps for the wizard variant.
func (k DraftKind) StepCount() int {
	if k == DraftKindOffline {
		return 5
	}
	return 4
}

// DraftPayload is the accumulated form state merged across wizard steps.
// Later steps never clear earlier answers; zero values mean "not answered".
type DraftPayload struct {
	SeriesID      string       `json:"series_id,omitempty"`
	LevelID       string       `json:"level_id,omitempty"`
	Year          int          `json:"year,omitempty"`
	SessionNumber int          `json:"session_number,omitempty"`
	Title         string       `json:"title,omitempty"`
	Description   string       `json:"description,omitempty"`
	Location      string       `json:"location,omitempty"`
	StartDate     string       `json:"start_date,omitempty"`
	EndDate       string       `json:"end_date,omitempty"`
	EndDateAuto   *bool        `json:"end_date_auto,omitempty"`
	TotalDays     int          `json:"total_days,omitempty"`
	MaxSeats      int          `json:"max_seats,omitempty"`
	Instructors   []Instructor `json:"instructors,omitempty"`
}

// Draft is a server-held wizard session stored in Redis with a TTL.
// CurrentStep always stays within [1, StepCount].
type Draft struct {
	ID          string       `json:"id"`
	Kind        DraftKind    `json:"kind"`
	CurrentStep int          `json:"current_step"`
	Payload     DraftPayload `json:"payload"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
