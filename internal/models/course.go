package models

import "time"

// CourseStatus represents the lifecycle of a course offering.
type CourseStatus string

// Possible course statuses.
const (
	CourseStatusDraft      CourseStatus = "DRAFT"
	CourseStatusOpen       CourseStatus = "OPEN"
	CourseStatusInProgress CourseStatus = "IN_PROGRESS"
	CourseStatusCompleted  CourseStatus = "COMPLETED"
	CourseStatusCancelled  CourseStatus = "CANCELLED"
)

// CourseDelivery distinguishes online from offline (intensive) offerings.
type CourseDelivery string

// Delivery modes.
const (
	DeliveryOnline  CourseDelivery = "ONLINE"
	DeliveryOffline CourseDelivery = "OFFLINE"
)

// Course is a concrete offering of a (series, level) pair for one year and
// session number, identified by its generated code.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	SeriesID      string         `db:"series_id" json:"series_id"`
	LevelID       string         `db:"level_id" json:"level_id"`
	Year          int            `db:"year" json:"year"`
	SessionNumber int            `db:"session_number" json:"session_number"`
	Delivery      CourseDelivery `db:"delivery" json:"delivery"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Location      string         `db:"location" json:"location"`
	StartDate     time.Time      `db:"start_date" json:"start_date"`
	EndDate       time.Time      `db:"end_date" json:"end_date"`
	EndDateAuto   bool           `db:"end_date_auto" json:"end_date_auto"`
	MaxSeats      int            `db:"max_seats" json:"max_seats"`
	Status        CourseStatus   `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with catalog names and the authoritative
// seat count derived from active enrollments.
type CourseDetail struct {
	Course
	SeriesCode      string `db:"series_code" json:"series_code"`
	SeriesName      string `db:"series_name" json:"series_name"`
	LevelCode       string `db:"level_code" json:"level_code"`
	LevelName       string `db:"level_name" json:"level_name"`
	CurrentTrainees int    `db:"current_trainees" json:"current_trainees"`
	WaitingCount    int    `db:"waiting_count" json:"waiting_count"`
}

// AvailableSeats returns the open seat count, never negative.
func (c CourseDetail) AvailableSeats() int {
	open := c.MaxSeats - c.CurrentTrainees
	if open < 0 {
		return 0
	}
	return open
}

// CourseFilter provides filters for listing offerings.
type CourseFilter struct {
	SeriesID  string
	LevelID   string
	Year      int
	Status    CourseStatus
	Delivery  CourseDelivery
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
