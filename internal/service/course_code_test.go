package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCourseCodeFormat(t *testing.T) {
	code := GenerateCourseCode(2025, "BS", "BASIC", 1)
	assert.Equal(t, "2025-BSBASIC-01", code)

	assert.Regexp(t, `^\d{4}-[A-Z0-9]+-\d{2}$`, GenerateCourseCode(2026, "bs", "adv", 12))
	assert.Equal(t, "2026-BSADV-12", GenerateCourseCode(2026, "bs", "adv", 12))
}

func TestGenerateCourseCodeStable(t *testing.T) {
	first := GenerateCourseCode(2025, "BS", "ADV", 3)
	second := GenerateCourseCode(2025, "BS", "ADV", 3)
	assert.Equal(t, first, second)
}

func TestSuggestNextSessionNumber(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		year     int
		series   string
		level    string
		want     int
	}{
		{
			name: "no existing codes",
			year: 2025, series: "BS", level: "BASIC",
			want: 1,
		},
		{
			name:     "max plus one",
			existing: []string{"2025-BSBASIC-01", "2025-BSBASIC-02"},
			year:     2025, series: "BS", level: "BASIC",
			want: 3,
		},
		{
			name:     "other prefixes ignored",
			existing: []string{"2024-BSBASIC-07", "2025-BSADV-04"},
			year:     2025, series: "BS", level: "BASIC",
			want: 1,
		},
		{
			name:     "gaps are not refilled",
			existing: []string{"2025-BSBASIC-01", "2025-BSBASIC-05"},
			year:     2025, series: "BS", level: "BASIC",
			want: 6,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SuggestNextSessionNumber(tc.existing, tc.year, tc.series, tc.level)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsDuplicateCode(t *testing.T) {
	existing := []string{"2025-BSBASIC-01", "2025-BSADV-01"}

	require.True(t, IsDuplicateCode("2025-BSBASIC-01", existing))
	require.False(t, IsDuplicateCode("2025-BSBASIC-02", existing))

	// Generating the same tuple twice must trip the duplicate check.
	code := GenerateCourseCode(2025, "BS", "BASIC", 1)
	require.True(t, IsDuplicateCode(code, existing))
}
