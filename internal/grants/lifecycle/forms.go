// internal/grants/lifecycle/forms.go
package lifecycle

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"grantflow/internal/common/errors"
)

// ApplicationForm is the applicant-supplied input for creating or editing
// an application.
type ApplicationForm struct {
	ApplicantName      string   `json:"applicantName"`
	ApplicantEmail     string   `json:"applicantEmail"`
	ApplicantPhone     string   `json:"applicantPhone,omitempty"`
	ProjectTitle       string   `json:"projectTitle"`
	ProjectDescription string   `json:"projectDescription"`
	RequestedAmount    float64  `json:"requestedAmount"`
	Attachments        []string `json:"attachments,omitempty"`
}

// Validate checks the form and returns a VALIDATION_FAILED error carrying
// field-level detail when it is malformed.
func (f ApplicationForm) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.ApplicantName, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.ApplicantEmail, validation.Required, is.Email),
		validation.Field(&f.ApplicantPhone, is.E164),
		validation.Field(&f.ProjectTitle, validation.Required, validation.Length(1, 300)),
		validation.Field(&f.ProjectDescription, validation.Required),
		validation.Field(&f.RequestedAmount, validation.Required, validation.Min(0.01)),
	)
	if err == nil {
		return nil
	}
	return toValidationError(err)
}

// CategoryForm is the administrative input for creating or editing a
// budget category.
type CategoryForm struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	AllocatedBudget float64 `json:"allocatedBudget"`
	IsActive        bool    `json:"isActive"`
}

func (f CategoryForm) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.AllocatedBudget, validation.Min(0.0)),
	)
	if err == nil {
		return nil
	}
	return toValidationError(err)
}

// CriterionForm is the administrative input for creating or editing a
// ranking criterion.
type CriterionForm struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	CategoryID  string  `json:"categoryId,omitempty"`
}

func (f CriterionForm) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Weight, validation.Required, validation.Min(0.01), validation.Max(100.0)),
	)
	if err == nil {
		return nil
	}
	return toValidationError(err)
}

// toValidationError converts ozzo field errors into the standard taxonomy.
func toValidationError(err error) error {
	fieldErrs, ok := err.(validation.Errors)
	if !ok {
		return errors.NewValidationError(err.Error(), nil)
	}

	names := make([]string, 0, len(fieldErrs))
	for name := range fieldErrs {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]errors.FieldError, 0, len(names))
	for _, name := range names {
		fields = append(fields, errors.FieldError{
			Field:   name,
			Message: fieldErrs[name].Error(),
		})
	}
	return errors.NewValidationError(err.Error(), fields)
}
