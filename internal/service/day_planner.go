package service

import (
	"time"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// PlannedDay is one business day produced by the planner before
// persistence assigns IDs.
type PlannedDay struct {
	DayNumber int
	Date      time.Time
	Sessions  []models.SubSession
}

// PlanDays lays out totalDays business days starting at start, skipping
// Saturdays and Sundays. Each day carries the two default time blocks with
// a placeholder subject and no instructor. The result always has exactly
// totalDays entries when totalDays > 0.
func PlanDays(start time.Time, totalDays int) []PlannedDay {
	if totalDays <= 0 {
		return nil
	}

	days := make([]PlannedDay, 0, totalDays)
	current := start
	for len(days) < totalDays {
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, PlannedDay{
				DayNumber: len(days) + 1,
				Date:      current,
				Sessions:  defaultSubSessions(),
			})
		}
		current = current.AddDate(0, 0, 1)
	}
	return days
}

// PlanEndDate returns the date of the last planned business day.
func PlanEndDate(start time.Time, totalDays int) time.Time {
	days := PlanDays(start, totalDays)
	if len(days) == 0 {
		return start
	}
	return days[len(days)-1].Date
}

func defaultSubSessions() []models.SubSession {
	return []models.SubSession{
		{
			StartTime: models.DefaultMorningStart,
			EndTime:   models.DefaultMorningEnd,
			Subject:   models.PlaceholderSubject,
		},
		{
			StartTime: models.DefaultAfternoonStart,
			EndTime:   models.DefaultAfternoonEnd,
			Subject:   models.PlaceholderSubject,
		},
	}
}

// SessionsOverlap reports whether any two sub-sessions within one day share
// time. Times are "HH:MM" strings, comparable lexicographically.
func SessionsOverlap(sessions []models.SubSession) bool {
	for i := 0; i < len(sessions); i++ {
		for j := i + 1; j < len(sessions); j++ {
			a, b := sessions[i], sessions[j]
			if a.StartTime < b.EndTime && b.StartTime < a.EndTime {
				return true
			}
		}
	}
	return false
}
