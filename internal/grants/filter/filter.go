// Package filter implements the pure in-memory query engine over
// application collections. Filtering and single-item matching share one
// predicate so a list result and a membership check can never disagree.
package filter

import (
	"strings"
	"time"

	"grantflow/internal/models"
)

// Criteria is a conjunction of optional predicates. Zero values mean
// "no constraint on this dimension".
type Criteria struct {
	CategoryID string
	Status     models.ApplicationStatus
	StartDate  *time.Time
	EndDate    *time.Time
	SearchTerm string
}

// IsEmpty reports whether no predicate is set.
func (c Criteria) IsEmpty() bool {
	return c.CategoryID == "" && c.Status == "" &&
		c.StartDate == nil && c.EndDate == nil && c.SearchTerm == ""
}

// Matches reports whether one application satisfies every set predicate.
func Matches(app models.Application, c Criteria) bool {
	if c.CategoryID != "" && app.CategoryID != c.CategoryID {
		return false
	}
	if c.Status != "" && app.Status != c.Status {
		return false
	}
	if c.StartDate != nil && app.SubmittedAt.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && app.SubmittedAt.After(*c.EndDate) {
		return false
	}
	if c.SearchTerm != "" && !matchesSearch(app, c.SearchTerm) {
		return false
	}
	return true
}

// Apply returns the applications satisfying the criteria, preserving input
// order. The result is never nil.
func Apply(apps []models.Application, c Criteria) []models.Application {
	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if Matches(app, c) {
			out = append(out, app)
		}
	}
	return out
}

// matchesSearch checks for a case-insensitive substring in the project
// title, project description, or applicant name.
func matchesSearch(app models.Application, term string) bool {
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(app.ProjectTitle), needle) ||
		strings.Contains(strings.ToLower(app.ProjectDescription), needle) ||
		strings.Contains(strings.ToLower(app.ApplicantName), needle)
}
