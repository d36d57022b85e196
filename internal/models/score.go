package models

import "time"

// PassFail is the derived verdict on a score row.
type PassFail string

// Verdicts. PENDING means not all applicable sub-scores have been reported.
const (
	PassFailPass    PassFail = "PASS"
	PassFailFail    PassFail = "FAIL"
	PassFailPending PassFail = "PENDING"
)

// Score categories.
const (
	CategoryTheory     = "theory"
	CategoryPractical  = "practical"
	CategoryBSActivity = "bs_activity"
	CategoryAttitude   = "attitude"
)

// ScoreWeights holds the per-category weights used for the overall score.
type ScoreWeights struct {
	Theory     float64 `db:"weight_theory" json:"theory"`
	Practical  float64 `db:"weight_practical" json:"practical"`
	BSActivity float64 `db:"weight_bs_activity" json:"bs_activity"`
	Attitude   float64 `db:"weight_attitude" json:"attitude"`
}

// DefaultScoreWeights mirror the standard grading policy.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Theory: 0.3, Practical: 0.4, BSActivity: 0.2, Attitude: 0.1}
}

// Score is one row per (trainee, course, round). OverallScore and PassFail
// are derived, never written directly.
type Score struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	TraineeID      string    `db:"trainee_id" json:"trainee_id"`
	Round          int       `db:"round" json:"round"`
	TheoryScore    float64   `db:"theory_score" json:"theory_score"`
	PracticalScore float64   `db:"practical_score" json:"practical_score"`
	BSActivity     float64   `db:"bs_activity_score" json:"bs_activity_score"`
	AttitudeScore  float64   `db:"attitude_score" json:"attitude_score"`
	OverallScore   float64   `db:"overall_score" json:"overall_score"`
	PassFail       PassFail  `db:"pass_fail" json:"pass_fail"`
	Remarks        string    `db:"remarks" json:"remarks"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreDetail enriches Score with trainee and course info for exports.
type ScoreDetail struct {
	Score
	TraineeName string `db:"trainee_name" json:"trainee_name"`
	CompanyID   string `db:"company_id" json:"company_id"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// ScoreFilter provides filters for listing scores.
type ScoreFilter struct {
	CourseID  string
	TraineeID string
	Round     int
	Page      int
	PageSize  int
}
