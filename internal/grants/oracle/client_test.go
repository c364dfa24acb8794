package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantflow/internal/common/config"
	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.OracleConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    500,
		MaxRetries: 3,
		RetryDelay: 1,
	}, logger.NewNoOpLogger())
}

func testApp() models.Application {
	return models.Application{
		ID:                 "app-001",
		ReferenceNumber:    "GA-2026-ABCDEF",
		ProjectTitle:       "Community Garden",
		ProjectDescription: "Urban gardening",
		RequestedAmount:    8500,
		Status:             models.StatusSubmitted,
		Revision:           2,
	}
}

func TestCategorize(t *testing.T) {
	var gotIdemKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdemKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/categorize", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "sess-1", payload["sessionId"])
		assert.Equal(t, "app-001", payload["applicationId"])

		json.NewEncoder(w).Encode(CategorizationResult{
			CategoryID:  "env",
			Explanation: "environmental project",
			Confidence:  92,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result, err := c.Categorize(context.Background(), Session{ID: "sess-1"}, testApp())
	require.NoError(t, err)
	assert.Equal(t, "env", result.CategoryID)
	assert.InDelta(t, 92.0, result.Confidence, 1e-9)
	assert.Equal(t, "app-001:2", gotIdemKey)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestCategorize_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(CategorizationResult{CategoryID: "env", Confidence: 80})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result, err := c.Categorize(context.Background(), Session{ID: "sess-1"}, testApp())
	require.NoError(t, err)
	assert.Equal(t, "env", result.CategoryID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCategorize_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Categorize(context.Background(), Session{ID: "sess-1"}, testApp())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleCallFailed))
	assert.Equal(t, int32(4), calls.Load(), "initial attempt plus three retries")
}

func TestCategorize_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Categorize(context.Background(), Session{ID: "sess-1"}, testApp())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleBadResponse))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCategorize_RejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty category", `{"categoryId":"","confidence":50}`},
		{"confidence out of range", `{"categoryId":"env","confidence":150}`},
		{"negative confidence", `{"categoryId":"env","confidence":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			_, err := c.Categorize(context.Background(), Session{ID: "s"}, testApp())
			assert.True(t, errors.IsCode(err, errors.ErrCodeOracleBadResponse))
		})
	}
}

func TestCategorize_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(CategorizationResult{CategoryID: "env", Confidence: 80})
	}))
	defer srv.Close()

	c := NewClient(config.OracleConfig{
		BaseURL:    srv.URL,
		Timeout:    20,
		MaxRetries: 1,
		RetryDelay: 1,
	}, logger.NewNoOpLogger())

	_, err := c.Categorize(context.Background(), Session{ID: "s"}, testApp())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleTimeout))
}

func TestScore(t *testing.T) {
	criteria := []models.RankingCriterion{
		{ID: "impact", Name: "Impact", Weight: 60},
		{ID: "feas", Name: "Feasibility", Weight: 40},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/score", r.URL.Path)

		var payload struct {
			Criteria []map[string]interface{} `json:"criteria"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Len(t, payload.Criteria, 2)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"scores": []ScoreResult{
				{CriterionID: "impact", Score: 80, Reasoning: "broad reach"},
				{CriterionID: "feas", Score: 50, Reasoning: "partial plan"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	scores, err := c.Score(context.Background(), Session{ID: "s"}, testApp(), criteria)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "impact", scores[0].CriterionID)
	assert.Equal(t, 80.0, scores[0].Score)
}

func TestScore_RejectsIncompleteOrInvalid(t *testing.T) {
	criteria := []models.RankingCriterion{{ID: "impact", Name: "Impact", Weight: 100}}

	tests := []struct {
		name string
		body string
	}{
		{"missing criterion", `{"scores":[]}`},
		{"score out of range", `{"scores":[{"criterionId":"impact","score":120,"reasoning":"x"}]}`},
		{"empty reasoning", `{"scores":[{"criterionId":"impact","score":50,"reasoning":""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			_, err := c.Score(context.Background(), Session{ID: "s"}, testApp(), criteria)
			assert.True(t, errors.IsCode(err, errors.ErrCodeOracleBadResponse))
		})
	}
}

func TestIdempotencyKeyTracksRevision(t *testing.T) {
	app := testApp()
	key1 := idempotencyKey(app)
	app.Revision++
	key2 := idempotencyKey(app)
	assert.NotEqual(t, key1, key2)
}
