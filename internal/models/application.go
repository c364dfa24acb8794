// internal/models/application.go
package models

import (
	"fmt"
	"math/rand"
	"time"
)

// ApplicationStatus is the lifecycle state of a grant application.
type ApplicationStatus string

const (
	StatusDraft             ApplicationStatus = "draft"
	StatusSubmitted         ApplicationStatus = "submitted"
	StatusCategorized       ApplicationStatus = "categorized"
	StatusUnderReview       ApplicationStatus = "under_review"
	StatusFeedbackRequested ApplicationStatus = "feedback_requested"
	StatusApproved          ApplicationStatus = "approved"
	StatusRejected          ApplicationStatus = "rejected"
)

// IsTerminal reports whether no further transitions are accepted from s.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsValid reports whether s is a known lifecycle status.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusCategorized, StatusUnderReview,
		StatusFeedbackRequested, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Decision is the administrative outcome recorded on a terminal application.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// FeedbackNote is one entry in an application's append-only feedback history.
// The latest-comment view is a projection over this list, not a separate field.
type FeedbackNote struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CriterionScore is an immutable per-criterion scoring snapshot. Name and
// weight are denormalized at scoring time; a new ranking run replaces the
// whole breakdown.
type CriterionScore struct {
	CriterionID   string  `json:"criterionId"`
	CriterionName string  `json:"criterionName"`
	Score         float64 `json:"score"`
	Weight        float64 `json:"weight"`
	WeightedScore float64 `json:"weightedScore"`
	Reasoning     string  `json:"reasoning"`
}

// Application is a single funding request submitted by an applicant.
type Application struct {
	ID              string `json:"id"`
	ReferenceNumber string `json:"referenceNumber"`

	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
	ApplicantPhone string `json:"applicantPhone,omitempty"`

	ProjectTitle       string  `json:"projectTitle"`
	ProjectDescription string  `json:"projectDescription"`
	RequestedAmount    float64 `json:"requestedAmount"`

	Status      ApplicationStatus `json:"status"`
	SubmittedAt time.Time         `json:"submittedAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	DecidedAt   *time.Time        `json:"decidedAt,omitempty"`

	CategoryID          string   `json:"categoryId,omitempty"`
	CategoryExplanation string   `json:"categoryExplanation,omitempty"`
	CategoryConfidence  *float64 `json:"categoryConfidence,omitempty"`

	RankingScore   *float64         `json:"rankingScore,omitempty"`
	ScoreBreakdown []CriterionScore `json:"scoreBreakdown,omitempty"`

	Decision       Decision `json:"decision,omitempty"`
	DecisionReason string   `json:"decisionReason,omitempty"`

	Attachments []string       `json:"attachments,omitempty"`
	Feedback    []FeedbackNote `json:"feedback,omitempty"`

	// Revision increments on every applicant-visible mutation and anchors
	// oracle idempotency keys.
	Revision int `json:"revision"`
}

// IsTerminal reports whether the application has reached a final decision.
func (a *Application) IsTerminal() bool {
	return a.Status.IsTerminal()
}

// LatestFeedback returns the most recent feedback note, or nil.
func (a *Application) LatestFeedback() *FeedbackNote {
	if len(a.Feedback) == 0 {
		return nil
	}
	return &a.Feedback[len(a.Feedback)-1]
}

// AddFeedback appends a note to the feedback history.
func (a *Application) AddFeedback(author, content string, at time.Time) {
	a.Feedback = append(a.Feedback, FeedbackNote{
		Author:    author,
		Content:   content,
		Timestamp: at,
	})
}

// StatusChange records one lifecycle transition for the audit trail.
type StatusChange struct {
	ApplicationID string            `json:"applicationId"`
	Previous      ApplicationStatus `json:"previousStatus"`
	Next          ApplicationStatus `json:"newStatus"`
	Actor         string            `json:"actor"`
	Reason        string            `json:"reason,omitempty"`
	At            time.Time         `json:"timestamp"`
}

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReferenceNumber generates a human-readable reference of the form
// GA-YYYY-XXXXXX. Uniqueness against the existing collection is the
// caller's responsibility.
func NewReferenceNumber(year int) string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = referenceAlphabet[rand.Intn(len(referenceAlphabet))]
	}
	return fmt.Sprintf("GA-%d-%s", year, b)
}
