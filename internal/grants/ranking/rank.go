// internal/grants/ranking/rank.go
package ranking

import (
	"fmt"
	"sort"

	"grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// scoreEpsilon bounds the float comparison used for dense rank assignment.
const scoreEpsilon = 1e-9

// NewCriterionScore builds the immutable scoring snapshot for one criterion.
// The score must be within [0,100] and the reasoning must be non-empty.
func NewCriterionScore(criterion models.RankingCriterion, score float64, reasoning string) (models.CriterionScore, error) {
	if score < 0 || score > 100 {
		return models.CriterionScore{}, errors.NewValidationError(
			fmt.Sprintf("score %.2f out of range for criterion %s", score, criterion.ID),
			[]errors.FieldError{{Field: "score", Message: "must be between 0 and 100", Code: "OUT_OF_RANGE"}},
		)
	}
	if reasoning == "" {
		return models.CriterionScore{}, errors.NewValidationError(
			fmt.Sprintf("empty reasoning for criterion %s", criterion.ID),
			[]errors.FieldError{{Field: "reasoning", Message: "must not be empty", Code: "REQUIRED_FIELD_MISSING"}},
		)
	}

	return models.CriterionScore{
		CriterionID:   criterion.ID,
		CriterionName: criterion.Name,
		Score:         score,
		Weight:        criterion.Weight,
		WeightedScore: score * criterion.Weight / 100.0,
		Reasoning:     reasoning,
	}, nil
}

// TotalScore sums the weighted scores of a breakdown.
func TotalScore(breakdown []models.CriterionScore) float64 {
	total := 0.0
	for _, s := range breakdown {
		total += s.WeightedScore
	}
	return total
}

// Rank combines externally supplied per-criterion breakdowns into a
// deterministic ordering. Applications with no score entry get an empty
// breakdown and a zero total. The result is sorted descending by total
// score; ties break on earlier submission, then id, so the ordering never
// depends on input order. Ranks are 1-based and dense: equal totals share
// a rank.
func Rank(apps []models.Application, scoresByID map[string][]models.CriterionScore) []models.RankedApplication {
	ranked := make([]models.RankedApplication, 0, len(apps))
	for _, app := range apps {
		breakdown := scoresByID[app.ID]
		if breakdown == nil {
			breakdown = []models.CriterionScore{}
		}
		ranked = append(ranked, models.RankedApplication{
			Application: app,
			TotalScore:  TotalScore(breakdown),
			Breakdown:   breakdown,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		if !ranked[i].Application.SubmittedAt.Equal(ranked[j].Application.SubmittedAt) {
			return ranked[i].Application.SubmittedAt.Before(ranked[j].Application.SubmittedAt)
		}
		return ranked[i].Application.ID < ranked[j].Application.ID
	})

	rank := 0
	for i := range ranked {
		if i == 0 || ranked[i-1].TotalScore-ranked[i].TotalScore > scoreEpsilon {
			rank++
		}
		ranked[i].Rank = rank
	}

	return ranked
}
