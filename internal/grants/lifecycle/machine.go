// Package lifecycle drives application status transitions and exposes the
// service operations built on top of them.
package lifecycle

import (
	"grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// Action is a lifecycle transition trigger.
type Action string

const (
	// Administrative actions.
	ActionApprove           Action = "approve"
	ActionReject            Action = "reject"
	ActionRequestFeedback   Action = "request_feedback"
	ActionRespondToFeedback Action = "respond_to_feedback"

	// System actions.
	ActionCategorize  Action = "categorize"
	ActionStartReview Action = "start_review"
)

// TransitionPayload carries the caller-supplied inputs of a transition.
type TransitionPayload struct {
	// Comment is required for request_feedback.
	Comment string `json:"comment,omitempty"`
	// Response is required for respond_to_feedback.
	Response string `json:"response,omitempty"`
	// Reason is the optional decision reason for approve/reject.
	Reason string `json:"reason,omitempty"`
	// Actor identifies who triggered the transition, for the audit trail.
	Actor string `json:"actor,omitempty"`
	// ConfirmOverride acknowledges a budget warning on approve.
	ConfirmOverride bool `json:"confirmOverride,omitempty"`
}

// Target returns the status an action leads to.
func Target(action Action) models.ApplicationStatus {
	switch action {
	case ActionApprove:
		return models.StatusApproved
	case ActionReject:
		return models.StatusRejected
	case ActionRequestFeedback:
		return models.StatusFeedbackRequested
	case ActionRespondToFeedback:
		return models.StatusSubmitted
	case ActionCategorize:
		return models.StatusCategorized
	case ActionStartReview:
		return models.StatusUnderReview
	}
	return ""
}

// CanTransition validates one transition against the lifecycle table.
// Terminal statuses accept nothing; invalid attempts fail loudly instead of
// no-opping.
func CanTransition(from models.ApplicationStatus, action Action) error {
	if from.IsTerminal() {
		return errors.NewInvalidStateTransitionError(string(from), string(action))
	}

	switch action {
	case ActionApprove, ActionReject, ActionRequestFeedback:
		// Permitted from any non-terminal status.
		return nil
	case ActionRespondToFeedback:
		if from != models.StatusFeedbackRequested {
			return errors.NewInvalidStateTransitionError(string(from), string(action))
		}
		return nil
	case ActionCategorize:
		if from != models.StatusSubmitted {
			return errors.NewInvalidStateTransitionError(string(from), string(action))
		}
		return nil
	case ActionStartReview:
		if from != models.StatusCategorized {
			return errors.NewInvalidStateTransitionError(string(from), string(action))
		}
		return nil
	}
	return errors.NewInvalidStateTransitionError(string(from), string(action))
}
