package models

import "time"

// Instructor is a lightweight record scoped to one course offering.
// Sub-sessions reference it by id; deleting an instructor resets those
// references to unassigned.
type Instructor struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	Name           string    `db:"name" json:"name"`
	Specialization string    `db:"specialization" json:"specialization"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
