package filter

import (
	"testing"
	"time"

	"grantflow/internal/models"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func sampleApps() []models.Application {
	return []models.Application{
		{
			ID:                 "a1",
			ApplicantName:      "Maria Lopez",
			ProjectTitle:       "Community Garden",
			ProjectDescription: "Urban gardening for the east side",
			CategoryID:         "env",
			Status:             models.StatusSubmitted,
			SubmittedAt:        base,
		},
		{
			ID:                 "a2",
			ApplicantName:      "James Chen",
			ProjectTitle:       "Mobile Health Clinic",
			ProjectDescription: "Medical outreach vans",
			CategoryID:         "med",
			Status:             models.StatusCategorized,
			SubmittedAt:        base.AddDate(0, 0, 10),
		},
		{
			ID:                 "a3",
			ApplicantName:      "Priya Nair",
			ProjectTitle:       "After-School Tutoring",
			ProjectDescription: "Math and reading support with garden club",
			CategoryID:         "edu",
			Status:             models.StatusApproved,
			SubmittedAt:        base.AddDate(0, 0, 20),
		},
	}
}

func TestApply(t *testing.T) {
	apps := sampleApps()
	mid := base.AddDate(0, 0, 5)
	end := base.AddDate(0, 0, 15)

	tests := []struct {
		name     string
		criteria Criteria
		wantIDs  []string
	}{
		{"empty criteria returns all", Criteria{}, []string{"a1", "a2", "a3"}},
		{"by category", Criteria{CategoryID: "med"}, []string{"a2"}},
		{"by status", Criteria{Status: models.StatusApproved}, []string{"a3"}},
		{"unknown category matches none", Criteria{CategoryID: "nope"}, []string{}},
		{"date window", Criteria{StartDate: &mid, EndDate: &end}, []string{"a2"}},
		{"start date only", Criteria{StartDate: &mid}, []string{"a2", "a3"}},
		{"end date only", Criteria{EndDate: &end}, []string{"a1", "a2"}},
		{"search in title", Criteria{SearchTerm: "clinic"}, []string{"a2"}},
		{"search in description", Criteria{SearchTerm: "garden"}, []string{"a1", "a3"}},
		{"search in applicant name", Criteria{SearchTerm: "priya"}, []string{"a3"}},
		{"search is case-insensitive", Criteria{SearchTerm: "COMMUNITY"}, []string{"a1"}},
		{"search matches nothing", Criteria{SearchTerm: "spaceship"}, []string{}},
		{
			"predicates combine with AND",
			Criteria{CategoryID: "edu", Status: models.StatusApproved, SearchTerm: "tutoring"},
			[]string{"a3"},
		},
		{
			"AND fails when one predicate fails",
			Criteria{CategoryID: "edu", Status: models.StatusSubmitted},
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(apps, tt.criteria)
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestDateBoundsAreInclusive(t *testing.T) {
	apps := sampleApps()
	exact := apps[0].SubmittedAt

	got := Apply(apps, Criteria{StartDate: &exact, EndDate: &exact})
	assert.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
}

func TestMatchesAgreesWithApply(t *testing.T) {
	apps := sampleApps()
	mid := base.AddDate(0, 0, 5)
	criteriaSet := []Criteria{
		{},
		{CategoryID: "med"},
		{Status: models.StatusCategorized},
		{StartDate: &mid},
		{SearchTerm: "garden"},
		{CategoryID: "env", SearchTerm: "garden"},
	}

	for _, c := range criteriaSet {
		filtered := Apply(apps, c)
		inFiltered := make(map[string]bool, len(filtered))
		for _, a := range filtered {
			inFiltered[a.ID] = true
		}
		for _, a := range apps {
			assert.Equal(t, inFiltered[a.ID], Matches(a, c),
				"membership must agree with filter result for %s", a.ID)
		}
	}
}

func TestApplyNeverReturnsNil(t *testing.T) {
	assert.NotNil(t, Apply(nil, Criteria{}))
	assert.NotNil(t, Apply(sampleApps(), Criteria{CategoryID: "missing"}))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Criteria{}.IsEmpty())
	assert.False(t, Criteria{SearchTerm: "x"}.IsEmpty())
	now := time.Now()
	assert.False(t, Criteria{StartDate: &now}.IsEmpty())
}
