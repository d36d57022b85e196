package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Rows are never physically deleted; history
// is preserved through status changes and the event log.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
)

// EnrollmentPriority mirrors the waiting-list priority tiers used at
// enrollment time.
type EnrollmentPriority string

// Priority tiers.
const (
	PriorityNormal EnrollmentPriority = "NORMAL"
	PriorityHigh   EnrollmentPriority = "HIGH"
	PriorityUrgent EnrollmentPriority = "URGENT"
)

// Enrollment links a trainee to a course offering.
type Enrollment struct {
	ID         string             `db:"id" json:"id"`
	CourseID   string             `db:"course_id" json:"course_id"`
	TraineeID  string             `db:"trainee_id" json:"trainee_id"`
	Priority   EnrollmentPriority `db:"priority" json:"priority"`
	Status     EnrollmentStatus   `db:"status" json:"status"`
	EnrolledAt time.Time          `db:"enrolled_at" json:"enrolled_at"`
	DroppedAt  *time.Time         `db:"dropped_at" json:"dropped_at,omitempty"`
	DropReason string             `db:"drop_reason" json:"drop_reason,omitempty"`
}

// EnrollmentDetail enriches Enrollment with trainee and course info.
type EnrollmentDetail struct {
	Enrollment
	TraineeName       string `db:"trainee_name" json:"trainee_name"`
	TraineeDepartment string `db:"trainee_department" json:"trainee_department"`
	CourseCode        string `db:"course_code" json:"course_code"`
	CourseTitle       string `db:"course_title" json:"course_title"`
}

// EnrollmentOutcome is the per-trainee result of a bulk enrollment.
type EnrollmentOutcome string

// Bulk outcomes.
const (
	OutcomeEnrolled   EnrollmentOutcome = "enrolled"
	OutcomeWaitlisted EnrollmentOutcome = "waitlisted"
	OutcomeFailed     EnrollmentOutcome = "failed"
)

// EnrollmentEvent is one row of the append-only enrollment history.
type EnrollmentEvent struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	TraineeID  string    `db:"trainee_id" json:"trainee_id"`
	Action     string    `db:"action" json:"action"`
	Detail     string    `db:"detail" json:"detail"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// History actions.
const (
	HistoryEnrolled   = "ENROLLED"
	HistoryWaitlisted = "WAITLISTED"
	HistoryPromoted   = "PROMOTED"
	HistoryDropped    = "DROPPED"
	HistoryCompleted  = "COMPLETED"
	HistoryExpired    = "WAITLIST_EXPIRED"
	HistoryRemoved    = "WAITLIST_REMOVED"
)

// EnrollmentStats summarises occupancy for one course.
type EnrollmentStats struct {
	MaxSeats       int `json:"max_seats"`
	CurrentActive  int `json:"current_active"`
	AvailableSeats int `json:"available_seats"`
	Completed      int `json:"completed"`
	Dropped        int `json:"dropped"`
	WaitingCount   int `json:"waiting_count"`
}

// EnrollmentSummary is the course enrollment dashboard payload.
type EnrollmentSummary struct {
	Stats             EnrollmentStats    `json:"enrollment_stats"`
	RecentEnrollments []EnrollmentDetail `json:"recent_enrollments"`
	WaitingList       []WaitlistDetail   `json:"waiting_list"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	CourseID  string
	TraineeID string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
