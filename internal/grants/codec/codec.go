// Package codec implements the persisted-document contract: JSON on the
// wire, strict validation for identity fields, lenient defaulting for
// everything else. Timestamps are RFC3339.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/xeipuuv/gojsonschema"

	"grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// ==========================
// 1. Identity Schemas
// ==========================

// Identity fields are the ones a document cannot be reconstructed without.
// A document missing one is rejected; every other field is defaulted.
var (
	applicationIdentitySchema = map[string]interface{}{
		"type":     "object",
		"required": []string{"id", "referenceNumber"},
		"properties": map[string]interface{}{
			"id":              map[string]interface{}{"type": "string", "minLength": 1},
			"referenceNumber": map[string]interface{}{"type": "string", "minLength": 1},
		},
	}

	categoryIdentitySchema = map[string]interface{}{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string", "minLength": 1},
		},
	}

	criterionIdentitySchema = map[string]interface{}{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string", "minLength": 1},
		},
	}

	budgetIdentitySchema = map[string]interface{}{
		"type":     "object",
		"required": []string{"fiscalYear"},
		"properties": map[string]interface{}{
			"fiscalYear": map[string]interface{}{"type": "integer"},
		},
	}
)

// validateIdentity runs a schema over raw JSON and converts failures into
// the serialization error taxonomy.
func validateIdentity(schema map[string]interface{}, raw []byte, entity string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: %s, error: %s", entity, err.Error()))
	}
	if !result.Valid() {
		details := fmt.Sprintf("entity: %s", entity)
		for _, desc := range result.Errors() {
			details += ", " + desc.String()
		}
		return errors.NewSerializationError(errors.SerializationKindIdentity, details)
	}
	return nil
}

// decodeFields unmarshals each listed top-level field independently. A value
// that cannot be decoded into its target is reset to the zero value instead
// of rejecting the whole document; identity fields are already guaranteed by
// schema validation before this runs.
func decodeFields(raw []byte, entity string, fields map[string]interface{}) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: %s, error: %s", entity, err.Error()))
	}
	for name, target := range fields {
		el, ok := doc[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(el, target); err != nil {
			v := reflect.ValueOf(target).Elem()
			v.Set(reflect.Zero(v.Type()))
		}
	}
	return nil
}

// kindOf extracts the serialization kind carried by a decode error so
// collection wrappers can preserve it.
func kindOf(err error) errors.SerializationKind {
	if k, ok := errors.AsStandard(err).Metadata["kind"].(string); ok {
		return errors.SerializationKind(k)
	}
	return errors.SerializationKindCorrupt
}

// ==========================
// 2. Applications
// ==========================

// EncodeApplication serializes one application.
func EncodeApplication(app models.Application) ([]byte, error) {
	raw, err := json.Marshal(app)
	if err != nil {
		return nil, errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: application, error: %s", err.Error()))
	}
	return raw, nil
}

// DecodeApplication deserializes one application, validating identity fields
// strictly and defaulting everything else.
func DecodeApplication(raw []byte) (models.Application, error) {
	if err := validateIdentity(applicationIdentitySchema, raw, "application"); err != nil {
		return models.Application{}, err
	}
	var app models.Application
	if err := decodeFields(raw, "application", map[string]interface{}{
		"id":                  &app.ID,
		"referenceNumber":     &app.ReferenceNumber,
		"applicantName":       &app.ApplicantName,
		"applicantEmail":      &app.ApplicantEmail,
		"applicantPhone":      &app.ApplicantPhone,
		"projectTitle":        &app.ProjectTitle,
		"projectDescription":  &app.ProjectDescription,
		"requestedAmount":     &app.RequestedAmount,
		"status":              &app.Status,
		"submittedAt":         &app.SubmittedAt,
		"updatedAt":           &app.UpdatedAt,
		"decidedAt":           &app.DecidedAt,
		"categoryId":          &app.CategoryID,
		"categoryExplanation": &app.CategoryExplanation,
		"categoryConfidence":  &app.CategoryConfidence,
		"rankingScore":        &app.RankingScore,
		"scoreBreakdown":      &app.ScoreBreakdown,
		"decision":            &app.Decision,
		"decisionReason":      &app.DecisionReason,
		"attachments":         &app.Attachments,
		"feedback":            &app.Feedback,
		"revision":            &app.Revision,
	}); err != nil {
		return models.Application{}, err
	}
	applyApplicationDefaults(&app)
	return app, nil
}

// EncodeApplications serializes the application collection.
func EncodeApplications(apps []models.Application) ([]byte, error) {
	if apps == nil {
		apps = []models.Application{}
	}
	raw, err := json.Marshal(apps)
	if err != nil {
		return nil, errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: applications, error: %s", err.Error()))
	}
	return raw, nil
}

// DecodeApplications deserializes the collection, validating each element.
func DecodeApplications(raw []byte) ([]models.Application, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: applications, error: %s", err.Error()))
	}
	apps := make([]models.Application, 0, len(elements))
	for i, el := range elements {
		app, err := DecodeApplication(el)
		if err != nil {
			return nil, errors.NewSerializationError(
				kindOf(err),
				fmt.Sprintf("entity: applications, index: %d, error: %s", i, err.Error()),
			)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// applyApplicationDefaults fills non-identity fields the document may omit.
func applyApplicationDefaults(app *models.Application) {
	if app.Status == "" || !app.Status.IsValid() {
		app.Status = models.StatusDraft
	}
	if app.Attachments == nil {
		app.Attachments = []string{}
	}
	if app.Feedback == nil {
		app.Feedback = []models.FeedbackNote{}
	}
}

// ==========================
// 3. Budget Configuration
// ==========================

// EncodeBudgetConfig serializes a fiscal year's budget.
func EncodeBudgetConfig(cfg models.BudgetConfig) ([]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: budget, error: %s", err.Error()))
	}
	return raw, nil
}

// DecodeBudgetConfig deserializes a budget document. The fiscal year is the
// identity field; each category must carry its own id.
func DecodeBudgetConfig(raw []byte) (models.BudgetConfig, error) {
	if err := validateIdentity(budgetIdentitySchema, raw, "budget"); err != nil {
		return models.BudgetConfig{}, err
	}
	var envelope struct {
		Categories []json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Identity validation already proved the document is an object, so
		// a failure here means a wrong-typed categories field. Default it.
		envelope.Categories = nil
	}
	var cfg models.BudgetConfig
	if err := decodeFields(raw, "budget", map[string]interface{}{
		"fiscalYear":  &cfg.FiscalYear,
		"totalBudget": &cfg.TotalBudget,
	}); err != nil {
		return models.BudgetConfig{}, err
	}
	cfg.Categories = make([]models.Category, 0, len(envelope.Categories))
	for i, el := range envelope.Categories {
		cat, err := decodeCategory(el)
		if err != nil {
			return models.BudgetConfig{}, errors.NewSerializationError(
				kindOf(err),
				fmt.Sprintf("entity: budget, category index: %d, error: %s", i, err.Error()),
			)
		}
		cfg.Categories = append(cfg.Categories, cat)
	}
	return cfg, nil
}

// decodeCategory deserializes one budget category, validating its id and
// defaulting everything else.
func decodeCategory(raw []byte) (models.Category, error) {
	if err := validateIdentity(categoryIdentitySchema, raw, "category"); err != nil {
		return models.Category{}, err
	}
	var cat models.Category
	if err := decodeFields(raw, "category", map[string]interface{}{
		"id":              &cat.ID,
		"name":            &cat.Name,
		"description":     &cat.Description,
		"allocatedBudget": &cat.AllocatedBudget,
		"spentBudget":     &cat.SpentBudget,
		"isActive":        &cat.IsActive,
	}); err != nil {
		return models.Category{}, err
	}
	return cat, nil
}

// ==========================
// 4. Ranking Criteria
// ==========================

// EncodeCriteria serializes the criteria collection.
func EncodeCriteria(criteria []models.RankingCriterion) ([]byte, error) {
	if criteria == nil {
		criteria = []models.RankingCriterion{}
	}
	raw, err := json.Marshal(criteria)
	if err != nil {
		return nil, errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: criteria, error: %s", err.Error()))
	}
	return raw, nil
}

// DecodeCriteria deserializes the criteria collection, validating each
// element's identity.
func DecodeCriteria(raw []byte) ([]models.RankingCriterion, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, errors.NewSerializationError(errors.SerializationKindCorrupt,
			fmt.Sprintf("entity: criteria, error: %s", err.Error()))
	}
	criteria := make([]models.RankingCriterion, 0, len(elements))
	for i, el := range elements {
		c, err := decodeCriterion(el)
		if err != nil {
			return nil, errors.NewSerializationError(
				kindOf(err),
				fmt.Sprintf("entity: criteria, index: %d, error: %s", i, err.Error()),
			)
		}
		criteria = append(criteria, c)
	}
	return criteria, nil
}

// decodeCriterion deserializes one criterion, validating its id and
// defaulting everything else.
func decodeCriterion(raw []byte) (models.RankingCriterion, error) {
	if err := validateIdentity(criterionIdentitySchema, raw, "criterion"); err != nil {
		return models.RankingCriterion{}, err
	}
	var c models.RankingCriterion
	if err := decodeFields(raw, "criterion", map[string]interface{}{
		"id":          &c.ID,
		"name":        &c.Name,
		"description": &c.Description,
		"weight":      &c.Weight,
		"categoryId":  &c.CategoryID,
	}); err != nil {
		return models.RankingCriterion{}, err
	}
	return c, nil
}
