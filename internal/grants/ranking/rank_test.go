package ranking

import (
	"testing"
	"time"

	"grantflow/internal/common/errors"
	"grantflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func app(id string, submittedAt time.Time) models.Application {
	return models.Application{
		ID:           id,
		ProjectTitle: "Project " + id,
		Status:       models.StatusCategorized,
		SubmittedAt:  submittedAt,
	}
}

func TestNewCriterionScore(t *testing.T) {
	c := models.RankingCriterion{ID: "impact", Name: "Community Impact", Weight: 60}

	t.Run("computes weighted score", func(t *testing.T) {
		s, err := NewCriterionScore(c, 80, "strong community reach")
		require.NoError(t, err)
		assert.Equal(t, "impact", s.CriterionID)
		assert.Equal(t, 80.0, s.Score)
		assert.Equal(t, 60.0, s.Weight)
		assert.InDelta(t, 48.0, s.WeightedScore, 0.001)
		assert.Equal(t, "strong community reach", s.Reasoning)
	})

	t.Run("rejects out of range score", func(t *testing.T) {
		_, err := NewCriterionScore(c, 101, "reasoning")
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))

		_, err = NewCriterionScore(c, -1, "reasoning")
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	})

	t.Run("rejects empty reasoning", func(t *testing.T) {
		_, err := NewCriterionScore(c, 50, "")
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	})

	t.Run("boundary scores accepted", func(t *testing.T) {
		_, err := NewCriterionScore(c, 0, "lowest possible")
		assert.NoError(t, err)
		_, err = NewCriterionScore(c, 100, "highest possible")
		assert.NoError(t, err)
	})
}

func TestTotalScore(t *testing.T) {
	impact := models.RankingCriterion{ID: "impact", Name: "Impact", Weight: 60}
	feasibility := models.RankingCriterion{ID: "feas", Name: "Feasibility", Weight: 40}

	s1, err := NewCriterionScore(impact, 80, "broad reach")
	require.NoError(t, err)
	s2, err := NewCriterionScore(feasibility, 50, "partial plan")
	require.NoError(t, err)

	// 80*0.6 + 50*0.4 = 68
	assert.InDelta(t, 68.0, TotalScore([]models.CriterionScore{s1, s2}), 0.001)
}

func TestRank_Ordering(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	apps := []models.Application{
		app("a1", base),
		app("a2", base.Add(time.Hour)),
		app("a3", base.Add(2*time.Hour)),
	}
	scores := map[string][]models.CriterionScore{
		"a1": {{CriterionID: "impact", WeightedScore: 40}},
		"a2": {{CriterionID: "impact", WeightedScore: 70}},
		"a3": {{CriterionID: "impact", WeightedScore: 55}},
	}

	ranked := Rank(apps, scores)
	require.Len(t, ranked, 3)
	assert.Equal(t, "a2", ranked[0].Application.ID)
	assert.Equal(t, "a3", ranked[1].Application.ID)
	assert.Equal(t, "a1", ranked[2].Application.ID)
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
}

func TestRank_DenseRanksOnTies(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	apps := []models.Application{
		app("a1", base),
		app("a2", base.Add(time.Hour)),
		app("a3", base.Add(2*time.Hour)),
		app("a4", base.Add(3*time.Hour)),
	}
	scores := map[string][]models.CriterionScore{
		"a1": {{WeightedScore: 80}},
		"a2": {{WeightedScore: 80}},
		"a3": {{WeightedScore: 60}},
		"a4": {{WeightedScore: 60}},
	}

	ranked := Rank(apps, scores)
	require.Len(t, ranked, 4)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].Rank)
	assert.Equal(t, 2, ranked[2].Rank)
	assert.Equal(t, 2, ranked[3].Rank)
}

func TestRank_TieBreaksOnSubmissionThenID(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	apps := []models.Application{
		app("b", base),
		app("a", base),
		app("c", base.Add(-time.Hour)),
	}
	scores := map[string][]models.CriterionScore{
		"a": {{WeightedScore: 50}},
		"b": {{WeightedScore: 50}},
		"c": {{WeightedScore: 50}},
	}

	ranked := Rank(apps, scores)
	require.Len(t, ranked, 3)
	// Earlier submission first, then lexicographic id.
	assert.Equal(t, "c", ranked[0].Application.ID)
	assert.Equal(t, "a", ranked[1].Application.ID)
	assert.Equal(t, "b", ranked[2].Application.ID)
	for _, r := range ranked {
		assert.Equal(t, 1, r.Rank)
	}
}

func TestRank_DeterministicAcrossInputOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	apps := []models.Application{app("a1", base), app("a2", base.Add(time.Hour))}
	scores := map[string][]models.CriterionScore{
		"a1": {{WeightedScore: 30}},
		"a2": {{WeightedScore: 90}},
	}

	first := Rank(apps, scores)
	second := Rank([]models.Application{apps[1], apps[0]}, scores)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].Application.ID, second[0].Application.ID)
	assert.Equal(t, first[1].Application.ID, second[1].Application.ID)
}

func TestRank_MissingScoresGetZeroTotal(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	apps := []models.Application{app("scored", base), app("unscored", base)}
	scores := map[string][]models.CriterionScore{
		"scored": {{WeightedScore: 10}},
	}

	ranked := Rank(apps, scores)
	require.Len(t, ranked, 2)
	assert.Equal(t, "unscored", ranked[1].Application.ID)
	assert.Zero(t, ranked[1].TotalScore)
	assert.NotNil(t, ranked[1].Breakdown)
	assert.Empty(t, ranked[1].Breakdown)
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, nil))
}
