// Package budget implements the per-fiscal-year budget ledger.
//
// Spent figures are never mutated independently: they are always derived from
// the approved applications of the category, so the ledger cannot drift from
// the application collection.
package budget

import (
	"fmt"

	"grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// SpendingThreshold is the spent/allocated ratio at which a category is
// flagged as near exhaustion.
const SpendingThreshold = 0.8

// Warning is the confirmable signal that an approval would exceed a
// category's remaining funds.
type Warning struct {
	CategoryID string  `json:"categoryId"`
	Message    string  `json:"message"`
	Requested  float64 `json:"requested"`
	Remaining  float64 `json:"remaining"`
}

// ValidateAllocation fails with BUDGET_EXCEEDED when the category allocations
// sum past the total budget. It never mutates state; callers must run it
// before persisting any budget edit.
func ValidateAllocation(totalBudget float64, categories []models.Category) error {
	totalAllocated := 0.0
	for _, c := range categories {
		totalAllocated += c.AllocatedBudget
	}
	if totalAllocated > totalBudget {
		return errors.NewBudgetExceededError(totalAllocated, totalBudget)
	}
	return nil
}

// Remaining returns the unspent portion of a category's allocation.
func Remaining(c models.Category) float64 {
	return c.AllocatedBudget - c.SpentBudget
}

// ThresholdReached reports whether the category has spent at least 80% of
// its allocation. A zero allocation is never flagged.
func ThresholdReached(c models.Category) bool {
	if c.AllocatedBudget == 0 {
		return false
	}
	return c.SpentBudget/c.AllocatedBudget >= SpendingThreshold
}

// Unallocated returns the portion of the total budget not assigned to any
// category. It is always computed, never tracked, so the budget invariant
// cannot drift.
func Unallocated(totalBudget float64, categories []models.Category) float64 {
	totalAllocated := 0.0
	for _, c := range categories {
		totalAllocated += c.AllocatedBudget
	}
	return totalBudget - totalAllocated
}

// CheckApprovalWarning returns a warning when approving requestedAmount
// would exceed the category's remaining funds, nil otherwise. The caller
// must require an explicit confirmation flag to proceed past a warning.
func CheckApprovalWarning(c models.Category, requestedAmount float64) *Warning {
	remaining := Remaining(c)
	if requestedAmount <= remaining {
		return nil
	}
	return &Warning{
		CategoryID: c.ID,
		Message: fmt.Sprintf(
			"Approving %.2f exceeds the remaining budget of %.2f for category %q",
			requestedAmount, remaining, c.Name,
		),
		Requested: requestedAmount,
		Remaining: remaining,
	}
}

// RecomputeSpent rewrites every category's spent figure as the sum of
// requested amounts over approved applications assigned to it.
func RecomputeSpent(cfg *models.BudgetConfig, apps []models.Application) {
	spent := make(map[string]float64, len(cfg.Categories))
	for _, a := range apps {
		if a.Status == models.StatusApproved && a.CategoryID != "" {
			spent[a.CategoryID] += a.RequestedAmount
		}
	}
	for i := range cfg.Categories {
		cfg.Categories[i].SpentBudget = spent[cfg.Categories[i].ID]
	}
}

// NewDefaultConfig builds the configuration for a fiscal year with no prior
// data: every carried-over category starts zero-allocated.
func NewDefaultConfig(fiscalYear int, totalBudget float64, carryOver []models.Category) *models.BudgetConfig {
	cfg := &models.BudgetConfig{
		FiscalYear:  fiscalYear,
		TotalBudget: totalBudget,
		Categories:  make([]models.Category, 0, len(carryOver)),
	}
	for _, c := range carryOver {
		cfg.Categories = append(cfg.Categories, models.Category{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			IsActive:    c.IsActive,
		})
	}
	return cfg
}
