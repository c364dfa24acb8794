// Package store persists the grant collections as whole JSON documents in
// Redis. Each collection is one document; mutations are read-modify-write
// under a per-collection mutex so concurrent in-process writers serialize
// instead of losing updates.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/grants/codec"
	"grantflow/internal/models"
)

const (
	applicationsKey = "grantflow:applications"
	criteriaKey     = "grantflow:criteria"
	budgetKeyPrefix = "grantflow:budget:"
)

func budgetKey(fiscalYear int) string {
	return fmt.Sprintf("%s%d", budgetKeyPrefix, fiscalYear)
}

// Store is the Redis-backed collection store.
type Store struct {
	rdb *redis.Client
	log logger.Logger

	appsMu     sync.Mutex
	criteriaMu sync.Mutex

	budgetMuMu sync.Mutex
	budgetMus  map[int]*sync.Mutex
}

// New creates a store over an established Redis client.
func New(rdb *redis.Client, log logger.Logger) *Store {
	return &Store{
		rdb:       rdb,
		log:       log,
		budgetMus: make(map[int]*sync.Mutex),
	}
}

func (s *Store) budgetMutex(fiscalYear int) *sync.Mutex {
	s.budgetMuMu.Lock()
	defer s.budgetMuMu.Unlock()
	mu, ok := s.budgetMus[fiscalYear]
	if !ok {
		mu = &sync.Mutex{}
		s.budgetMus[fiscalYear] = mu
	}
	return mu
}

// ==========================
// 1. Applications
// ==========================

// LoadApplications reads the application collection. A missing document is
// an empty collection; a corrupt one is a serialization error, never
// silently replaced.
func (s *Store) LoadApplications(ctx context.Context) ([]models.Application, error) {
	raw, err := s.rdb.Get(ctx, applicationsKey).Bytes()
	if err == redis.Nil {
		return []models.Application{}, nil
	}
	if err != nil {
		return nil, errors.NewStoreReadError(applicationsKey, err)
	}
	return codec.DecodeApplications(raw)
}

// UpdateApplications applies fn to the current collection and persists the
// result, serialized against other in-process writers. When fn returns an
// error nothing is written and the error propagates unchanged.
func (s *Store) UpdateApplications(ctx context.Context, fn func([]models.Application) ([]models.Application, error)) error {
	s.appsMu.Lock()
	defer s.appsMu.Unlock()

	apps, err := s.LoadApplications(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(apps)
	if err != nil {
		return err
	}

	raw, err := codec.EncodeApplications(updated)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, applicationsKey, raw, 0).Err(); err != nil {
		return errors.NewStoreWriteError(applicationsKey, err)
	}
	s.log.Debug("applications collection persisted", map[string]interface{}{
		"count": len(updated),
	})
	return nil
}

// ==========================
// 2. Budget
// ==========================

// LoadBudgetConfig reads the budget for a fiscal year, or nil when no
// document exists yet.
func (s *Store) LoadBudgetConfig(ctx context.Context, fiscalYear int) (*models.BudgetConfig, error) {
	key := budgetKey(fiscalYear)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreReadError(key, err)
	}
	cfg, err := codec.DecodeBudgetConfig(raw)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateBudgetConfig applies fn to the fiscal year's budget and persists the
// result. fn receives nil when no document exists yet and must return the
// full document to store.
func (s *Store) UpdateBudgetConfig(ctx context.Context, fiscalYear int, fn func(*models.BudgetConfig) (*models.BudgetConfig, error)) error {
	mu := s.budgetMutex(fiscalYear)
	mu.Lock()
	defer mu.Unlock()

	cfg, err := s.LoadBudgetConfig(ctx, fiscalYear)
	if err != nil {
		return err
	}

	updated, err := fn(cfg)
	if err != nil {
		return err
	}

	raw, err := codec.EncodeBudgetConfig(*updated)
	if err != nil {
		return err
	}
	key := budgetKey(fiscalYear)
	if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return errors.NewStoreWriteError(key, err)
	}
	s.log.Debug("budget config persisted", map[string]interface{}{
		"fiscalYear": fiscalYear,
	})
	return nil
}

// ==========================
// 3. Ranking Criteria
// ==========================

// LoadCriteria reads the criteria collection, empty when absent.
func (s *Store) LoadCriteria(ctx context.Context) ([]models.RankingCriterion, error) {
	raw, err := s.rdb.Get(ctx, criteriaKey).Bytes()
	if err == redis.Nil {
		return []models.RankingCriterion{}, nil
	}
	if err != nil {
		return nil, errors.NewStoreReadError(criteriaKey, err)
	}
	return codec.DecodeCriteria(raw)
}

// UpdateCriteria applies fn to the criteria collection and persists the
// result under the collection mutex.
func (s *Store) UpdateCriteria(ctx context.Context, fn func([]models.RankingCriterion) ([]models.RankingCriterion, error)) error {
	s.criteriaMu.Lock()
	defer s.criteriaMu.Unlock()

	criteria, err := s.LoadCriteria(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(criteria)
	if err != nil {
		return err
	}

	raw, err := codec.EncodeCriteria(updated)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, criteriaKey, raw, 0).Err(); err != nil {
		return errors.NewStoreWriteError(criteriaKey, err)
	}
	return nil
}
