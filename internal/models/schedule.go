package models

import "time"

// ScheduleDay is one calendar day of an offline course.
type ScheduleDay struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	DayNumber int       `db:"day_number" json:"day_number"`
	Date      time.Time `db:"date" json:"date"`
}

// SubSession is a time-blocked slot within a schedule day. InstructorID is
// nil until an instructor is assigned.
type SubSession struct {
	ID            string  `db:"id" json:"id"`
	DayID         string  `db:"day_id" json:"day_id"`
	StartTime     string  `db:"start_time" json:"start_time"`
	EndTime       string  `db:"end_time" json:"end_time"`
	Subject       string  `db:"subject" json:"subject"`
	InstructorID  *string `db:"instructor_id" json:"instructor_id,omitempty"`
	AssistantName string  `db:"assistant_name" json:"assistant_name"`
	OperatorName  string  `db:"operator_name" json:"operator_name"`
	Room          string  `db:"room" json:"room"`
	Note          string  `db:"note" json:"note"`
}

// ScheduleDayDetail bundles a day with its ordered sub-sessions.
type ScheduleDayDetail struct {
	ScheduleDay
	Sessions []SubSession `json:"sessions"`
}

// Default sub-session blocks attached to every planned day.
const (
	DefaultMorningStart   = "09:00"
	DefaultMorningEnd     = "12:00"
	DefaultAfternoonStart = "13:00"
	DefaultAfternoonEnd   = "17:00"
	PlaceholderSubject    = "교육주제 미정"
)
