package models

import "time"

// WaitlistStatus represents the waiting-list entry lifecycle:
// waiting -> notified -> (enrolled | expired), with direct removal allowed
// from waiting.
type WaitlistStatus string

// Waitlist statuses.
const (
	WaitlistStatusWaiting  WaitlistStatus = "WAITING"
	WaitlistStatusNotified WaitlistStatus = "NOTIFIED"
	WaitlistStatusEnrolled WaitlistStatus = "ENROLLED"
	WaitlistStatusExpired  WaitlistStatus = "EXPIRED"
)

// WaitlistEntry is one position on a course waiting list. Positions are
// 1-based, unique, and contiguous within a course; priority influences
// manual reordering but position stays the authoritative sequence.
type WaitlistEntry struct {
	ID         string             `db:"id" json:"id"`
	CourseID   string             `db:"course_id" json:"course_id"`
	TraineeID  string             `db:"trainee_id" json:"trainee_id"`
	Position   int                `db:"position" json:"position"`
	Priority   EnrollmentPriority `db:"priority" json:"priority"`
	Status     WaitlistStatus     `db:"status" json:"status"`
	AddedAt    time.Time          `db:"added_at" json:"added_at"`
	NotifiedAt *time.Time         `db:"notified_at" json:"notified_at,omitempty"`
}

// WaitlistDetail enriches an entry with trainee info.
type WaitlistDetail struct {
	WaitlistEntry
	TraineeName       string `db:"trainee_name" json:"trainee_name"`
	TraineeDepartment string `db:"trainee_department" json:"trainee_department"`
}
