// internal/models/criterion.go
package models

// RankingCriterion is a named, weighted factor used to score applications.
// An empty CategoryID means the criterion applies to every category.
type RankingCriterion struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	CategoryID  string  `json:"categoryId,omitempty"`
}

// AppliesTo reports whether the criterion participates in ranking runs for
// the given category.
func (c RankingCriterion) AppliesTo(categoryID string) bool {
	return c.CategoryID == "" || c.CategoryID == categoryID
}

// RankedApplication is one entry of a ranking run result.
type RankedApplication struct {
	Application Application      `json:"application"`
	TotalScore  float64          `json:"totalScore"`
	Breakdown   []CriterionScore `json:"breakdown"`
	Rank        int              `json:"rank"`
}
