// Package ranking implements the criteria normalizer and the
// criteria-weighted ranking engine.
package ranking

import "grantflow/internal/models"

// NormalizeWeights rescales the criterion set so weights sum to exactly 100.
// Normalization is a persistence-time invariant: it runs after every create,
// update, or delete of a criterion, not at display time.
//
// An empty input yields an empty output. A zero-sum input is split equally.
func NormalizeWeights(criteria []models.RankingCriterion) []models.RankingCriterion {
	if len(criteria) == 0 {
		return []models.RankingCriterion{}
	}

	out := make([]models.RankingCriterion, len(criteria))
	copy(out, criteria)

	sum := 0.0
	for _, c := range out {
		sum += c.Weight
	}

	if sum == 0 {
		equal := 100.0 / float64(len(out))
		for i := range out {
			out[i].Weight = equal
		}
		return out
	}

	factor := 100.0 / sum
	for i := range out {
		out[i].Weight *= factor
	}
	return out
}
