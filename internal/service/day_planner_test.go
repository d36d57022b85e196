package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlanDaysWeekdayRun(t *testing.T) {
	// 2025-02-03 is a Monday.
	days := PlanDays(date("2025-02-03"), 3)

	require.Len(t, days, 3)
	assert.Equal(t, date("2025-02-03"), days[0].Date)
	assert.Equal(t, date("2025-02-04"), days[1].Date)
	assert.Equal(t, date("2025-02-05"), days[2].Date)
	for i, day := range days {
		assert.Equal(t, i+1, day.DayNumber)
		require.Len(t, day.Sessions, 2)
		assert.Equal(t, models.DefaultMorningStart, day.Sessions[0].StartTime)
		assert.Equal(t, models.DefaultAfternoonEnd, day.Sessions[1].EndTime)
		assert.Nil(t, day.Sessions[0].InstructorID)
	}
}

func TestPlanDaysSkipsWeekend(t *testing.T) {
	// 2025-02-07 is a Friday; the next business day is Monday the 10th.
	days := PlanDays(date("2025-02-07"), 2)

	require.Len(t, days, 2)
	assert.Equal(t, date("2025-02-07"), days[0].Date)
	assert.Equal(t, date("2025-02-10"), days[1].Date)
}

func TestPlanDaysStartingOnWeekend(t *testing.T) {
	// Saturday start rolls forward to Monday.
	days := PlanDays(date("2025-02-08"), 1)

	require.Len(t, days, 1)
	assert.Equal(t, date("2025-02-10"), days[0].Date)
}

func TestPlanDaysZeroOrNegative(t *testing.T) {
	assert.Nil(t, PlanDays(date("2025-02-03"), 0))
	assert.Nil(t, PlanDays(date("2025-02-03"), -2))
}

func TestPlanEndDate(t *testing.T) {
	assert.Equal(t, date("2025-02-05"), PlanEndDate(date("2025-02-03"), 3))
	assert.Equal(t, date("2025-02-10"), PlanEndDate(date("2025-02-07"), 2))
}

func TestSessionsOverlap(t *testing.T) {
	morning := models.SubSession{StartTime: "09:00", EndTime: "12:00"}
	afternoon := models.SubSession{StartTime: "13:00", EndTime: "17:00"}
	clash := models.SubSession{StartTime: "11:00", EndTime: "14:00"}
	backToBack := models.SubSession{StartTime: "12:00", EndTime: "13:00"}

	assert.False(t, SessionsOverlap([]models.SubSession{morning, afternoon}))
	assert.True(t, SessionsOverlap([]models.SubSession{morning, clash}))
	assert.False(t, SessionsOverlap([]models.SubSession{morning, backToBack, afternoon}))
}
