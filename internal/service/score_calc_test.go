package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

func TestComputeOverallScoreAdvancedTier(t *testing.T) {
	score := models.Score{TheoryScore: 85, PracticalScore: 90, BSActivity: 88, AttitudeScore: 95}
	weights := models.DefaultScoreWeights()

	// 0.3*85 + 0.4*90 + 0.2*88 + 0.1*95 over a weight sum of 1.
	got := ComputeOverallScore(score, weights, false)
	assert.InDelta(t, 88.6, got, 0.001)
}

func TestComputeOverallScoreBasicTierIgnoresBSActivity(t *testing.T) {
	score := models.Score{TheoryScore: 80, PracticalScore: 80, BSActivity: 100, AttitudeScore: 80}
	weights := models.DefaultScoreWeights()

	// bsActivity skipped: (0.3+0.4+0.1 weights over 80s) / 0.8 == 80.
	got := ComputeOverallScore(score, weights, true)
	assert.InDelta(t, 80.0, got, 0.001)

	withoutActivity := models.Score{TheoryScore: 80, PracticalScore: 80, AttitudeScore: 80}
	assert.Equal(t, got, ComputeOverallScore(withoutActivity, weights, true))
}

func TestComputeOverallScorePartialPending(t *testing.T) {
	weights := models.DefaultScoreWeights()

	// Only theory reported: average over the theory weight alone.
	score := models.Score{TheoryScore: 90}
	assert.InDelta(t, 90.0, ComputeOverallScore(score, weights, false), 0.001)

	// Nothing reported yet.
	assert.Zero(t, ComputeOverallScore(models.Score{}, weights, false))
}

func TestComputeOverallScoreRounding(t *testing.T) {
	weights := models.ScoreWeights{Theory: 0.6, Practical: 0.4}
	score := models.Score{TheoryScore: 70.1, PracticalScore: 80.2}

	// 42.06 + 32.08 == 74.14 after rounding to two decimals.
	assert.InDelta(t, 74.14, ComputeOverallScore(score, weights, false), 0.001)
}

func TestDerivePassFail(t *testing.T) {
	assert.Equal(t, models.PassFailPending, DerivePassFail(0, DefaultPassThreshold))
	assert.Equal(t, models.PassFailPass, DerivePassFail(70, DefaultPassThreshold))
	assert.Equal(t, models.PassFailPass, DerivePassFail(88.6, DefaultPassThreshold))
	assert.Equal(t, models.PassFailFail, DerivePassFail(69.99, DefaultPassThreshold))
}
