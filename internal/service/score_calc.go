package service

import (
	"math"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// DefaultPassThreshold is the overall score at or above which a trainee
// passes.
const DefaultPassThreshold = 70.0

// ComputeOverallScore returns the weighted average of the reported
// sub-scores, rounded to two decimals. Categories with a zero value are
// treated as pending and excluded from both sums. For Basic-tier courses
// the BS activity category is skipped entirely, reported or not. Returns 0
// when no category contributed.
func ComputeOverallScore(score models.Score, weights models.ScoreWeights, basicTier bool) float64 {
	type contribution struct {
		value  float64
		weight float64
		skip   bool
	}
	contributions := []contribution{
		{score.TheoryScore, weights.Theory, false},
		{score.PracticalScore, weights.Practical, false},
		{score.BSActivity, weights.BSActivity, basicTier},
		{score.AttitudeScore, weights.Attitude, false},
	}

	var weightedSum, weightSum float64
	for _, c := range contributions {
		if c.skip || c.value <= 0 {
			continue
		}
		weightedSum += c.value * c.weight
		weightSum += c.weight
	}
	if weightSum == 0 {
		return 0
	}
	return math.Round(weightedSum/weightSum*100) / 100
}

// DerivePassFail maps an overall score to a verdict: PENDING while nothing
// has been reported, PASS at or above the threshold, FAIL below it.
func DerivePassFail(overall, threshold float64) models.PassFail {
	if overall == 0 {
		return models.PassFailPending
	}
	if overall >= threshold {
		return models.PassFailPass
	}
	return models.PassFailFail
}
