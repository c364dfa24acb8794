// internal/grants/lifecycle/service.go
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/common/metrics"
	"grantflow/internal/common/observability"
	"grantflow/internal/grants/budget"
	"grantflow/internal/grants/filter"
	"grantflow/internal/grants/oracle"
	"grantflow/internal/grants/ranking"
	"grantflow/internal/models"
)

// Store is the persistence surface the service depends on.
type Store interface {
	LoadApplications(ctx context.Context) ([]models.Application, error)
	UpdateApplications(ctx context.Context, fn func([]models.Application) ([]models.Application, error)) error
	LoadBudgetConfig(ctx context.Context, fiscalYear int) (*models.BudgetConfig, error)
	UpdateBudgetConfig(ctx context.Context, fiscalYear int, fn func(*models.BudgetConfig) (*models.BudgetConfig, error)) error
	LoadCriteria(ctx context.Context) ([]models.RankingCriterion, error)
	UpdateCriteria(ctx context.Context, fn func([]models.RankingCriterion) ([]models.RankingCriterion, error)) error
}

// Oracle is the external categorization/scoring service.
type Oracle interface {
	Categorize(ctx context.Context, session oracle.Session, app models.Application) (*oracle.CategorizationResult, error)
	Score(ctx context.Context, session oracle.Session, app models.Application, criteria []models.RankingCriterion) ([]oracle.ScoreResult, error)
}

// Auditor records lifecycle transitions.
type Auditor interface {
	Record(ctx context.Context, change models.StatusChange) error
}

// Sender delivers applicant notifications.
type Sender interface {
	SendDecision(ctx context.Context, app models.Application) error
	SendFeedbackRequest(ctx context.Context, app models.Application, comment string) error
}

// Service implements the grant engine's operations over the store, oracle,
// audit trail, and notification sender.
type Service struct {
	store        Store
	oracle       Oracle
	audit        Auditor
	sender       Sender
	obs          *observability.Observability
	log          logger.Logger
	fiscalYear   int
	defaultTotal float64
}

// NewService wires the service. Audit and sender may be nil; both are best
// effort and their absence only disables the corresponding side effect.
func NewService(store Store, orc Oracle, audit Auditor, sender Sender, log logger.Logger, fiscalYear int, defaultTotal float64) *Service {
	return &Service{
		store:        store,
		oracle:       orc,
		audit:        audit,
		sender:       sender,
		log:          log,
		fiscalYear:   fiscalYear,
		defaultTotal: defaultTotal,
	}
}

// WithObservability attaches the OpenTelemetry transition instruments.
func (s *Service) WithObservability(obs *observability.Observability) *Service {
	s.obs = obs
	return s
}

// ==========================
// 1. Applications
// ==========================

// CreateApplication validates the form and stores a new application in
// submitted status.
func (s *Service) CreateApplication(ctx context.Context, form ApplicationForm) (*models.Application, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app := models.Application{
		ID:                 uuid.NewString(),
		ApplicantName:      form.ApplicantName,
		ApplicantEmail:     form.ApplicantEmail,
		ApplicantPhone:     form.ApplicantPhone,
		ProjectTitle:       form.ProjectTitle,
		ProjectDescription: form.ProjectDescription,
		RequestedAmount:    form.RequestedAmount,
		Status:             models.StatusSubmitted,
		SubmittedAt:        now,
		UpdatedAt:          now,
		Attachments:        form.Attachments,
		Revision:           1,
	}
	if app.Attachments == nil {
		app.Attachments = []string{}
	}

	err := s.store.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		app.ReferenceNumber = uniqueReference(apps, func() string {
			return models.NewReferenceNumber(now.Year())
		})
		return append(apps, app), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("application created", map[string]interface{}{
		"applicationId":   app.ID,
		"referenceNumber": app.ReferenceNumber,
	})
	return &app, nil
}

// ListApplications returns the applications matching the criteria.
func (s *Service) ListApplications(ctx context.Context, criteria filter.Criteria) ([]models.Application, error) {
	apps, err := s.store.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(apps, criteria), nil
}

// GetApplication returns one application by id.
func (s *Service) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	apps, err := s.store.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], nil
		}
	}
	return nil, errors.NewNotFoundError("application", id)
}

// EditApplication updates applicant-supplied fields. Terminal applications
// cannot be edited.
func (s *Service) EditApplication(ctx context.Context, id string, form ApplicationForm) (*models.Application, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var updated models.Application
	err := s.store.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		idx := indexOf(apps, id)
		if idx < 0 {
			return nil, errors.NewNotFoundError("application", id)
		}
		app := &apps[idx]
		if app.IsTerminal() {
			return nil, errors.NewInvalidStateTransitionError(string(app.Status), "edit")
		}
		app.ApplicantName = form.ApplicantName
		app.ApplicantEmail = form.ApplicantEmail
		app.ApplicantPhone = form.ApplicantPhone
		app.ProjectTitle = form.ProjectTitle
		app.ProjectDescription = form.ProjectDescription
		app.RequestedAmount = form.RequestedAmount
		if form.Attachments != nil {
			app.Attachments = form.Attachments
		}
		app.UpdatedAt = time.Now().UTC()
		app.Revision++
		updated = *app
		return apps, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteApplication removes an application. This is the explicit
// administrative delete; nothing else ever removes an application.
func (s *Service) DeleteApplication(ctx context.Context, id string) error {
	return s.store.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		idx := indexOf(apps, id)
		if idx < 0 {
			return nil, errors.NewNotFoundError("application", id)
		}
		return append(apps[:idx], apps[idx+1:]...), nil
	})
}

// ==========================
// 2. Transitions
// ==========================

// Transition applies one administrative lifecycle action to an application.
func (s *Service) Transition(ctx context.Context, id string, action Action, payload TransitionPayload) (*models.Application, error) {
	var app *models.Application
	var err error
	start := time.Now()

	switch action {
	case ActionApprove:
		app, err = s.approve(ctx, id, payload)
	case ActionReject, ActionRequestFeedback, ActionRespondToFeedback:
		app, err = s.simpleTransition(ctx, id, action, payload)
	default:
		err = errors.NewValidationError("unknown action: "+string(action), nil)
	}

	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(action), "failure").Inc()
		return nil, err
	}
	metrics.TransitionsTotal.WithLabelValues(string(action), "success").Inc()
	if s.obs != nil {
		s.obs.RecordTransition(ctx, string(action), string(app.Status))
		s.obs.RecordTransitionDuration(ctx, time.Since(start), string(action))
	}

	s.notifyTransition(ctx, action, *app, payload)
	return app, nil
}

// simpleTransition handles the actions with no budget involvement.
func (s *Service) simpleTransition(ctx context.Context, id string, action Action, payload TransitionPayload) (*models.Application, error) {
	switch action {
	case ActionRequestFeedback:
		if payload.Comment == "" {
			return nil, errors.NewValidationError("feedback request requires a comment",
				[]errors.FieldError{{Field: "comment", Message: "must not be empty", Code: "REQUIRED_FIELD_MISSING"}})
		}
	case ActionRespondToFeedback:
		if payload.Response == "" {
			return nil, errors.NewValidationError("feedback response must not be empty",
				[]errors.FieldError{{Field: "response", Message: "must not be empty", Code: "REQUIRED_FIELD_MISSING"}})
		}
	}

	var updated models.Application
	var change models.StatusChange
	err := s.store.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		idx := indexOf(apps, id)
		if idx < 0 {
			return nil, errors.NewNotFoundError("application", id)
		}
		app := &apps[idx]
		if err := CanTransition(app.Status, action); err != nil {
			return nil, err
		}

		previous := app.Status
		now := time.Now().UTC()
		switch action {
		case ActionReject:
			app.Decision = models.DecisionRejected
			app.DecisionReason = payload.Reason
			app.DecidedAt = &now
		case ActionRequestFeedback:
			app.AddFeedback(payload.Actor, payload.Comment, now)
		case ActionRespondToFeedback:
			app.AddFeedback(app.ApplicantName, payload.Response, now)
		}
		app.Status = Target(action)
		app.UpdatedAt = now
		app.Revision++

		updated = *app
		change = models.StatusChange{
			ApplicationID: app.ID,
			Previous:      previous,
			Next:          app.Status,
			Actor:         payload.Actor,
			Reason:        payload.Reason,
			At:            now,
		}
		return apps, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordChange(ctx, change)
	return &updated, nil
}

// approve runs the budget-checked approval. The budget document and the
// status change are written under the same fiscal-year lock so the spent
// figure always reflects the approval it was computed with.
func (s *Service) approve(ctx context.Context, id string, payload TransitionPayload) (*models.Application, error) {
	var updated models.Application
	var change models.StatusChange

	err := s.store.UpdateBudgetConfig(ctx, s.fiscalYear, func(cfg *models.BudgetConfig) (*models.BudgetConfig, error) {
		if cfg == nil {
			cfg = budget.NewDefaultConfig(s.fiscalYear, s.defaultTotal, nil)
		}

		var updatedApps []models.Application
		err := s.store.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
			idx := indexOf(apps, id)
			if idx < 0 {
				return nil, errors.NewNotFoundError("application", id)
			}
			app := &apps[idx]
			if err := CanTransition(app.Status, ActionApprove); err != nil {
				return nil, err
			}

			if category := cfg.Category(app.CategoryID); category != nil {
				budget.RecomputeSpent(cfg, apps)
				if w := budget.CheckApprovalWarning(*category, app.RequestedAmount); w != nil && !payload.ConfirmOverride {
					metrics.BudgetWarningsTotal.Inc()
					return nil, errors.NewBudgetWarningError(w.Message, w.CategoryID, w.Requested, w.Remaining)
				}
			}

			previous := app.Status
			now := time.Now().UTC()
			app.Status = models.StatusApproved
			app.Decision = models.DecisionApproved
			app.DecisionReason = payload.Reason
			app.DecidedAt = &now
			app.UpdatedAt = now
			app.Revision++

			updated = *app
			change = models.StatusChange{
				ApplicationID: app.ID,
				Previous:      previous,
				Next:          app.Status,
				Actor:         payload.Actor,
				Reason:        payload.Reason,
				At:            now,
			}
			updatedApps = apps
			return apps, nil
		})
		if err != nil {
			return nil, err
		}

		budget.RecomputeSpent(cfg, updatedApps)
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordChange(ctx, change)
	return &updated, nil
}

// Categorize asks the oracle for a category and moves the application from
// submitted to categorized.
func (s *Service) Categorize(ctx context.Context, id string, session oracle.Session) (*models.Application, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(app.Status, ActionCategorize); err != nil {
		return nil, err
	}

	result, err := s.oracle.Categorize(ctx, session, *app)
	if err != nil {
		return nil, err
	}

	var updated models.Application
	var change models.StatusChange
	err = s.store.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		idx := indexOf(apps, id)
		if idx < 0 {
			return nil, errors.NewNotFoundError("application", id)
		}
		current := &apps[idx]
		// The status may have moved while the oracle call was in flight.
		if err := CanTransition(current.Status, ActionCategorize); err != nil {
			return nil, err
		}

		previous := current.Status
		now := time.Now().UTC()
		confidence := result.Confidence
		current.CategoryID = result.CategoryID
		current.CategoryExplanation = result.Explanation
		current.CategoryConfidence = &confidence
		current.Status = models.StatusCategorized
		current.UpdatedAt = now
		current.Revision++

		updated = *current
		change = models.StatusChange{
			ApplicationID: current.ID,
			Previous:      previous,
			Next:          current.Status,
			Actor:         "system",
			At:            now,
		}
		return apps, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordChange(ctx, change)
	return &updated, nil
}

// ==========================
// 3. Ranking
// ==========================

// RankApplications scores every categorized application of the category via
// the oracle, moves the batch to under_review, and returns the deterministic
// ordering over all reviewed applications of that category.
func (s *Service) RankApplications(ctx context.Context, categoryID string, session oracle.Session) ([]models.RankedApplication, error) {
	criteria, err := s.store.LoadCriteria(ctx)
	if err != nil {
		metrics.RankingRunsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	applicable := make([]models.RankingCriterion, 0, len(criteria))
	for _, c := range criteria {
		if c.AppliesTo(categoryID) {
			applicable = append(applicable, c)
		}
	}
	// The applicable subset is renormalized for this run; the stored set
	// keeps its own normalization.
	applicable = ranking.NormalizeWeights(applicable)

	apps, err := s.store.LoadApplications(ctx)
	if err != nil {
		metrics.RankingRunsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	scoresByID := make(map[string][]models.CriterionScore)
	for _, app := range apps {
		if app.CategoryID != categoryID {
			continue
		}
		switch app.Status {
		case models.StatusCategorized:
			breakdown, err := s.scoreApplication(ctx, session, app, applicable)
			if err != nil {
				metrics.RankingRunsTotal.WithLabelValues("failure").Inc()
				return nil, err
			}
			scoresByID[app.ID] = breakdown
		case models.StatusUnderReview:
			scoresByID[app.ID] = app.ScoreBreakdown
		}
	}

	var reviewed []models.Application
	var changes []models.StatusChange
	err = s.store.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		now := time.Now().UTC()
		reviewed = reviewed[:0]
		changes = changes[:0]
		for i := range apps {
			app := &apps[i]
			if app.CategoryID != categoryID {
				continue
			}
			if app.Status == models.StatusCategorized {
				breakdown, ok := scoresByID[app.ID]
				if !ok {
					continue
				}
				total := ranking.TotalScore(breakdown)
				app.Status = models.StatusUnderReview
				app.ScoreBreakdown = breakdown
				app.RankingScore = &total
				app.UpdatedAt = now
				app.Revision++
				changes = append(changes, models.StatusChange{
					ApplicationID: app.ID,
					Previous:      models.StatusCategorized,
					Next:          models.StatusUnderReview,
					Actor:         "system",
					At:            now,
				})
			}
			if app.Status == models.StatusUnderReview {
				reviewed = append(reviewed, *app)
			}
		}
		return apps, nil
	})
	if err != nil {
		metrics.RankingRunsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	for _, change := range changes {
		s.recordChange(ctx, change)
	}

	metrics.RankingRunsTotal.WithLabelValues("success").Inc()
	return ranking.Rank(reviewed, scoresByID), nil
}

// scoreApplication turns raw oracle scores into the weighted breakdown.
func (s *Service) scoreApplication(ctx context.Context, session oracle.Session, app models.Application, criteria []models.RankingCriterion) ([]models.CriterionScore, error) {
	if len(criteria) == 0 {
		return []models.CriterionScore{}, nil
	}

	raw, err := s.oracle.Score(ctx, session, app, criteria)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]oracle.ScoreResult, len(raw))
	for _, r := range raw {
		byID[r.CriterionID] = r
	}

	breakdown := make([]models.CriterionScore, 0, len(criteria))
	for _, c := range criteria {
		r, ok := byID[c.ID]
		if !ok {
			return nil, errors.NewOracleBadResponseError("score", "missing score for criterion "+c.ID)
		}
		score, err := ranking.NewCriterionScore(c, r.Score, r.Reasoning)
		if err != nil {
			return nil, err
		}
		breakdown = append(breakdown, score)
	}
	return breakdown, nil
}

// ==========================
// 4. Budget & Categories
// ==========================

// GetBudgetConfig returns the fiscal year's budget with spent figures
// recomputed from the current application collection. Years with no prior
// data get a zero-allocated default.
func (s *Service) GetBudgetConfig(ctx context.Context, fiscalYear int) (*models.BudgetConfig, error) {
	cfg, err := s.store.LoadBudgetConfig(ctx, fiscalYear)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		var carryOver []models.Category
		if prior, err := s.store.LoadBudgetConfig(ctx, fiscalYear-1); err == nil && prior != nil {
			carryOver = prior.Categories
		}
		cfg = budget.NewDefaultConfig(fiscalYear, s.defaultTotal, carryOver)
	}

	apps, err := s.store.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	budget.RecomputeSpent(cfg, apps)
	return cfg, nil
}

// UpdateBudgetConfig replaces the fiscal year's budget after validating the
// allocation invariant.
func (s *Service) UpdateBudgetConfig(ctx context.Context, cfg models.BudgetConfig) (*models.BudgetConfig, error) {
	if err := budget.ValidateAllocation(cfg.TotalBudget, cfg.Categories); err != nil {
		return nil, err
	}

	apps, err := s.store.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	budget.RecomputeSpent(&cfg, apps)

	err = s.store.UpdateBudgetConfig(ctx, cfg.FiscalYear, func(_ *models.BudgetConfig) (*models.BudgetConfig, error) {
		return &cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateCategory adds a category to the fiscal year's budget, enforcing the
// allocation invariant.
func (s *Service) CreateCategory(ctx context.Context, fiscalYear int, form CategoryForm) (*models.Category, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	category := models.Category{
		ID:              uuid.NewString(),
		Name:            form.Name,
		Description:     form.Description,
		AllocatedBudget: form.AllocatedBudget,
		IsActive:        form.IsActive,
	}

	err := s.store.UpdateBudgetConfig(ctx, fiscalYear, func(cfg *models.BudgetConfig) (*models.BudgetConfig, error) {
		if cfg == nil {
			cfg = budget.NewDefaultConfig(fiscalYear, s.defaultTotal, nil)
		}
		next := append(cfg.Categories, category)
		if err := budget.ValidateAllocation(cfg.TotalBudget, next); err != nil {
			return nil, err
		}
		cfg.Categories = next
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory edits a category of the fiscal year's budget, enforcing the
// allocation invariant.
func (s *Service) UpdateCategory(ctx context.Context, fiscalYear int, categoryID string, form CategoryForm) (*models.Category, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var updated models.Category
	err := s.store.UpdateBudgetConfig(ctx, fiscalYear, func(cfg *models.BudgetConfig) (*models.BudgetConfig, error) {
		if cfg == nil {
			return nil, errors.NewNotFoundError("category", categoryID)
		}
		category := cfg.Category(categoryID)
		if category == nil {
			return nil, errors.NewNotFoundError("category", categoryID)
		}

		prior := *category
		category.Name = form.Name
		category.Description = form.Description
		category.AllocatedBudget = form.AllocatedBudget
		category.IsActive = form.IsActive

		if err := budget.ValidateAllocation(cfg.TotalBudget, cfg.Categories); err != nil {
			*category = prior
			return nil, err
		}
		updated = *category
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ==========================
// 5. Ranking Criteria
// ==========================

// CreateCriterion adds a criterion and renormalizes the stored set.
func (s *Service) CreateCriterion(ctx context.Context, form CriterionForm) ([]models.RankingCriterion, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var normalized []models.RankingCriterion
	err := s.store.UpdateCriteria(ctx, func(criteria []models.RankingCriterion) ([]models.RankingCriterion, error) {
		criteria = append(criteria, models.RankingCriterion{
			ID:          uuid.NewString(),
			Name:        form.Name,
			Description: form.Description,
			Weight:      form.Weight,
			CategoryID:  form.CategoryID,
		})
		normalized = ranking.NormalizeWeights(criteria)
		return normalized, nil
	})
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// UpdateCriterion edits a criterion and renormalizes the stored set.
func (s *Service) UpdateCriterion(ctx context.Context, id string, form CriterionForm) ([]models.RankingCriterion, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var normalized []models.RankingCriterion
	err := s.store.UpdateCriteria(ctx, func(criteria []models.RankingCriterion) ([]models.RankingCriterion, error) {
		found := false
		for i := range criteria {
			if criteria[i].ID == id {
				criteria[i].Name = form.Name
				criteria[i].Description = form.Description
				criteria[i].Weight = form.Weight
				criteria[i].CategoryID = form.CategoryID
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NewNotFoundError("criterion", id)
		}
		normalized = ranking.NormalizeWeights(criteria)
		return normalized, nil
	})
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// DeleteCriterion removes a criterion and renormalizes the remaining set.
func (s *Service) DeleteCriterion(ctx context.Context, id string) ([]models.RankingCriterion, error) {
	var normalized []models.RankingCriterion
	err := s.store.UpdateCriteria(ctx, func(criteria []models.RankingCriterion) ([]models.RankingCriterion, error) {
		idx := -1
		for i := range criteria {
			if criteria[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.NewNotFoundError("criterion", id)
		}
		remaining := append(criteria[:idx], criteria[idx+1:]...)
		normalized = ranking.NormalizeWeights(remaining)
		return normalized, nil
	})
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// ListCriteria returns the stored, normalized criterion set.
func (s *Service) ListCriteria(ctx context.Context) ([]models.RankingCriterion, error) {
	return s.store.LoadCriteria(ctx)
}

// ==========================
// 6. Side Effects
// ==========================

// recordChange appends to the audit trail. Audit failures are logged, never
// propagated: the transition already happened.
func (s *Service) recordChange(ctx context.Context, change models.StatusChange) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, change); err != nil {
		s.log.WithError(err).Error("failed to record status change", map[string]interface{}{
			"applicationId": change.ApplicationID,
			"newStatus":     string(change.Next),
		})
	}
}

// notifyTransition sends the applicant notification for a completed
// transition, best effort.
func (s *Service) notifyTransition(ctx context.Context, action Action, app models.Application, payload TransitionPayload) {
	if s.sender == nil {
		return
	}

	var err error
	switch action {
	case ActionApprove, ActionReject:
		err = s.sender.SendDecision(ctx, app)
	case ActionRequestFeedback:
		err = s.sender.SendFeedbackRequest(ctx, app, payload.Comment)
	default:
		return
	}
	if err != nil {
		s.log.WithError(err).Warn("notification delivery failed", map[string]interface{}{
			"applicationId": app.ID,
			"action":        string(action),
		})
	}
}

func indexOf(apps []models.Application, id string) int {
	for i := range apps {
		if apps[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueReference draws reference numbers from generate until one is not
// already taken in the collection. Runs under the applications write lock so
// the returned reference stays unique at insert time.
func uniqueReference(apps []models.Application, generate func() string) string {
	for {
		ref := generate()
		if !referenceTaken(apps, ref) {
			return ref
		}
	}
}

func referenceTaken(apps []models.Application, ref string) bool {
	for i := range apps {
		if apps[i].ReferenceNumber == ref {
			return true
		}
	}
	return false
}
