package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, logger.NewNoOpLogger()), mr
}

func testApp(id string) models.Application {
	return models.Application{
		ID:              id,
		ReferenceNumber: "GA-2026-" + id,
		ApplicantName:   "Applicant " + id,
		ProjectTitle:    "Project " + id,
		Status:          models.StatusSubmitted,
		SubmittedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestLoadApplications_EmptyWhenAbsent(t *testing.T) {
	s, _ := newTestStore(t)

	apps, err := s.LoadApplications(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestUpdateApplications_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		return append(apps, testApp("A1"), testApp("A2")), nil
	})
	require.NoError(t, err)

	apps, err := s.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "A1", apps[0].ID)
	assert.Equal(t, "A2", apps[1].ID)
}

func TestUpdateApplications_FnErrorAbortsWrite(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		return append(apps, testApp("A1")), nil
	}))
	before, err := mr.Get("grantflow:applications")
	require.NoError(t, err)

	sentinel := errors.NewNotFoundError("application", "missing")
	err = s.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		return nil, sentinel
	})
	assert.Equal(t, sentinel, err)

	after, err := mr.Get("grantflow:applications")
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed update must not touch the document")
}

func TestUpdateApplications_CorruptDocumentNotOverwritten(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("grantflow:applications", `{broken`))

	err := s.UpdateApplications(ctx, func(apps []models.Application) ([]models.Application, error) {
		return append(apps, testApp("A1")), nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerializationFailed))

	raw, err := mr.Get("grantflow:applications")
	require.NoError(t, err)
	assert.Equal(t, `{broken`, raw, "corrupt document must survive for inspection")
}

func TestBudgetConfig_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cfg, err := s.LoadBudgetConfig(ctx, 2026)
	require.NoError(t, err)
	assert.Nil(t, cfg, "missing fiscal year has no document")

	err = s.UpdateBudgetConfig(ctx, 2026, func(cur *models.BudgetConfig) (*models.BudgetConfig, error) {
		assert.Nil(t, cur)
		return &models.BudgetConfig{
			FiscalYear:  2026,
			TotalBudget: 100000,
			Categories:  []models.Category{{ID: "med", Name: "Medical", AllocatedBudget: 30000, IsActive: true}},
		}, nil
	})
	require.NoError(t, err)

	cfg, err = s.LoadBudgetConfig(ctx, 2026)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 2026, cfg.FiscalYear)
	require.Len(t, cfg.Categories, 1)

	// Fiscal years are isolated documents.
	other, err := s.LoadBudgetConfig(ctx, 2027)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCriteria_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	criteria, err := s.LoadCriteria(ctx)
	require.NoError(t, err)
	assert.Empty(t, criteria)

	err = s.UpdateCriteria(ctx, func(cur []models.RankingCriterion) ([]models.RankingCriterion, error) {
		return append(cur, models.RankingCriterion{ID: "impact", Name: "Impact", Weight: 100}), nil
	})
	require.NoError(t, err)

	criteria, err = s.LoadCriteria(ctx)
	require.NoError(t, err)
	require.Len(t, criteria, 1)
	assert.Equal(t, "impact", criteria[0].ID)
}

func TestLoadApplications_ReadFailure(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("grantflow:applications").SetErr(assert.AnError)

	s := New(rdb, logger.NewNoOpLogger())
	_, err := s.LoadApplications(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreReadFailed))
	assert.True(t, errors.AsStandard(err).Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
