package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

func TestRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO application_status_history").
		WithArgs("app-001", "under_review", "approved", "admin@example.org", "strong impact", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := NewRecorder(db, logger.NewNoOpLogger())
	err = r.Record(context.Background(), models.StatusChange{
		ApplicationID: "app-001",
		Previous:      models.StatusUnderReview,
		Next:          models.StatusApproved,
		Actor:         "admin@example.org",
		Reason:        "strong impact",
		At:            at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO application_status_history").
		WillReturnError(assert.AnError)

	r := NewRecorder(db, logger.NewNoOpLogger())
	err = r.Record(context.Background(), models.StatusChange{ApplicationID: "app-001"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAuditWriteFailed))
	assert.True(t, errors.AsStandard(err).Retryable)
}

func TestHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"application_id", "previous_status", "new_status", "actor", "reason", "changed_at",
	}).
		AddRow("app-001", "submitted", "categorized", "system", "", t1).
		AddRow("app-001", "categorized", "under_review", "system", "", t2)

	mock.ExpectQuery("SELECT application_id, previous_status").
		WithArgs("app-001").
		WillReturnRows(rows)

	r := NewRecorder(db, logger.NewNoOpLogger())
	history, err := r.History(context.Background(), "app-001")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusSubmitted, history[0].Previous)
	assert.Equal(t, models.StatusCategorized, history[0].Next)
	assert.Equal(t, models.StatusUnderReview, history[1].Next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_EmptyForUnknownApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT application_id, previous_status").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"application_id", "previous_status", "new_status", "actor", "reason", "changed_at",
		}))

	r := NewRecorder(db, logger.NewNoOpLogger())
	history, err := r.History(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS application_status_history").
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := NewRecorder(db, logger.NewNoOpLogger())
	assert.NoError(t, r.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
