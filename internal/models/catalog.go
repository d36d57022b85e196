package models

import "time"

// ScheduleCadence describes how often a level is offered.
type ScheduleCadence string

// Supported cadences.
const (
	CadenceRegular   ScheduleCadence = "regular"
	CadenceBiennial  ScheduleCadence = "biennial"
	CadenceIrregular ScheduleCadence = "irregular"
)

// CourseSeries is a static catalog family such as "Business Skills" (BS).
type CourseSeries struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseLevel is one tier inside a series. DisplayOrder is unique within a
// series and used only for presentation ordering.
type CourseLevel struct {
	ID                  string          `db:"id" json:"id"`
	SeriesID            string          `db:"series_id" json:"series_id"`
	Code                string          `db:"code" json:"code"`
	Name                string          `db:"name" json:"name"`
	DisplayOrder        int             `db:"display_order" json:"display_order"`
	DefaultSessionCount int             `db:"default_session_count" json:"default_session_count"`
	DefaultDurationDays int             `db:"default_duration_days" json:"default_duration_days"`
	DefaultCapacity     int             `db:"default_capacity" json:"default_capacity"`
	Objectives          string          `db:"objectives" json:"objectives"`
	Cadence             ScheduleCadence `db:"cadence" json:"cadence"`
}

// LevelTierBasic flags the entry tier. Basic-tier courses exclude the BS
// activity category from weighted scoring.
const LevelTierBasic = "BASIC"

// SeriesWithLevels bundles a series with its ordered levels.
type SeriesWithLevels struct {
	CourseSeries
	Levels []CourseLevel `json:"levels"`
}
