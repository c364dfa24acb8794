// internal/models/budget.go
package models

// Category is a named budget bucket with its own allocation. SpentBudget is
// always derived from approved applications; it is persisted only as a cache
// and recomputed on every read and approval.
type Category struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	AllocatedBudget float64 `json:"allocatedBudget"`
	SpentBudget     float64 `json:"spentBudget"`
	IsActive        bool    `json:"isActive"`
}

// BudgetConfig is the per-fiscal-year budget document.
// Invariant: sum of category allocations never exceeds TotalBudget.
type BudgetConfig struct {
	FiscalYear  int        `json:"fiscalYear"`
	TotalBudget float64    `json:"totalBudget"`
	Categories  []Category `json:"categories"`
}

// Category returns a pointer to the category with the given id, or nil.
func (c *BudgetConfig) Category(id string) *Category {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i]
		}
	}
	return nil
}
