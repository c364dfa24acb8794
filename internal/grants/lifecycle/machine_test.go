package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grantflow/internal/common/errors"
	"grantflow/internal/models"
)

func TestCanTransition(t *testing.T) {
	nonTerminal := []models.ApplicationStatus{
		models.StatusDraft,
		models.StatusSubmitted,
		models.StatusCategorized,
		models.StatusUnderReview,
		models.StatusFeedbackRequested,
	}

	t.Run("approve, reject and request_feedback from any non-terminal status", func(t *testing.T) {
		for _, from := range nonTerminal {
			for _, action := range []Action{ActionApprove, ActionReject, ActionRequestFeedback} {
				assert.NoError(t, CanTransition(from, action), "%s from %s", action, from)
			}
		}
	})

	t.Run("terminal statuses accept nothing", func(t *testing.T) {
		for _, from := range []models.ApplicationStatus{models.StatusApproved, models.StatusRejected} {
			for _, action := range []Action{
				ActionApprove, ActionReject, ActionRequestFeedback,
				ActionRespondToFeedback, ActionCategorize, ActionStartReview,
			} {
				err := CanTransition(from, action)
				assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStateTransition),
					"%s from %s must fail", action, from)
			}
		}
	})

	t.Run("respond_to_feedback only from feedback_requested", func(t *testing.T) {
		assert.NoError(t, CanTransition(models.StatusFeedbackRequested, ActionRespondToFeedback))
		for _, from := range []models.ApplicationStatus{
			models.StatusSubmitted, models.StatusCategorized, models.StatusUnderReview,
		} {
			err := CanTransition(from, ActionRespondToFeedback)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStateTransition))
		}
	})

	t.Run("categorize only from submitted", func(t *testing.T) {
		assert.NoError(t, CanTransition(models.StatusSubmitted, ActionCategorize))
		err := CanTransition(models.StatusCategorized, ActionCategorize)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStateTransition))
	})

	t.Run("start_review only from categorized", func(t *testing.T) {
		assert.NoError(t, CanTransition(models.StatusCategorized, ActionStartReview))
		err := CanTransition(models.StatusSubmitted, ActionStartReview)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStateTransition))
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		err := CanTransition(models.StatusSubmitted, Action("archive"))
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStateTransition))
	})
}

func TestTarget(t *testing.T) {
	assert.Equal(t, models.StatusApproved, Target(ActionApprove))
	assert.Equal(t, models.StatusRejected, Target(ActionReject))
	assert.Equal(t, models.StatusFeedbackRequested, Target(ActionRequestFeedback))
	assert.Equal(t, models.StatusSubmitted, Target(ActionRespondToFeedback))
	assert.Equal(t, models.StatusCategorized, Target(ActionCategorize))
	assert.Equal(t, models.StatusUnderReview, Target(ActionStartReview))
	assert.Empty(t, Target(Action("archive")))
}
