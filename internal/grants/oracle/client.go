// Package oracle is the HTTP client for the external categorization and
// scoring service. Every call carries an idempotency key derived from the
// application id and revision, so a retried call cannot double-apply.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"grantflow/internal/common/config"
	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/common/metrics"
	"grantflow/internal/models"
)

const (
	kindCategorize = "categorize"
	kindScore      = "score"
)

// Session identifies one oracle conversation. Callers hold and pass it
// explicitly; the client keeps no conversation state of its own.
type Session struct {
	ID string `json:"sessionId"`
}

// CategorizationResult is the oracle's category assignment for one
// application. Confidence is on a 0 to 100 scale.
type CategorizationResult struct {
	CategoryID  string  `json:"categoryId"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// ScoreResult is one raw per-criterion score from the oracle. Weighting is
// applied by the caller, never by the oracle.
type ScoreResult struct {
	CriterionID string  `json:"criterionId"`
	Score       float64 `json:"score"`
	Reasoning   string  `json:"reasoning"`
}

// Client calls the oracle over HTTP with bounded per-attempt timeouts and a
// fixed retry schedule for transport failures.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	log        logger.Logger
}

// NewClient builds an oracle client from configuration.
func NewClient(cfg config.OracleConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    time.Duration(cfg.Timeout) * time.Millisecond,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelay) * time.Millisecond,
		httpClient: &http.Client{},
		log:        log,
	}
}

// idempotencyKey anchors retried calls to one applicant-visible revision.
func idempotencyKey(app models.Application) string {
	return fmt.Sprintf("%s:%d", app.ID, app.Revision)
}

// Categorize asks the oracle to assign a category to the application.
func (c *Client) Categorize(ctx context.Context, session Session, app models.Application) (*CategorizationResult, error) {
	payload := map[string]interface{}{
		"sessionId":          session.ID,
		"applicationId":      app.ID,
		"projectTitle":       app.ProjectTitle,
		"projectDescription": app.ProjectDescription,
		"requestedAmount":    app.RequestedAmount,
	}

	var result CategorizationResult
	if err := c.call(ctx, kindCategorize, "/v1/categorize", idempotencyKey(app), payload, &result); err != nil {
		return nil, err
	}
	if result.CategoryID == "" {
		return nil, errors.NewOracleBadResponseError(kindCategorize, "empty categoryId")
	}
	if result.Confidence < 0 || result.Confidence > 100 {
		return nil, errors.NewOracleBadResponseError(kindCategorize,
			fmt.Sprintf("confidence %.3f out of range", result.Confidence))
	}
	return &result, nil
}

// Score asks the oracle for raw per-criterion scores for the application.
// The criteria sent are the ones applicable to the application's category.
func (c *Client) Score(ctx context.Context, session Session, app models.Application, criteria []models.RankingCriterion) ([]ScoreResult, error) {
	criteriaPayload := make([]map[string]interface{}, 0, len(criteria))
	for _, cr := range criteria {
		criteriaPayload = append(criteriaPayload, map[string]interface{}{
			"criterionId": cr.ID,
			"name":        cr.Name,
			"description": cr.Description,
		})
	}

	payload := map[string]interface{}{
		"sessionId":          session.ID,
		"applicationId":      app.ID,
		"projectTitle":       app.ProjectTitle,
		"projectDescription": app.ProjectDescription,
		"requestedAmount":    app.RequestedAmount,
		"categoryId":         app.CategoryID,
		"criteria":           criteriaPayload,
	}

	var envelope struct {
		Scores []ScoreResult `json:"scores"`
	}
	if err := c.call(ctx, kindScore, "/v1/score", idempotencyKey(app), payload, &envelope); err != nil {
		return nil, err
	}

	byID := make(map[string]ScoreResult, len(envelope.Scores))
	for _, s := range envelope.Scores {
		if s.Score < 0 || s.Score > 100 {
			return nil, errors.NewOracleBadResponseError(kindScore,
				fmt.Sprintf("criterion %s: score %.2f out of range", s.CriterionID, s.Score))
		}
		if s.Reasoning == "" {
			return nil, errors.NewOracleBadResponseError(kindScore,
				fmt.Sprintf("criterion %s: empty reasoning", s.CriterionID))
		}
		byID[s.CriterionID] = s
	}
	for _, cr := range criteria {
		if _, ok := byID[cr.ID]; !ok {
			return nil, errors.NewOracleBadResponseError(kindScore,
				fmt.Sprintf("missing score for criterion %s", cr.ID))
		}
	}
	return envelope.Scores, nil
}

// call runs one logical oracle request with retries. A 4xx response is a
// bad-response failure and is never retried; 5xx and transport errors are
// retried up to the configured count with a fixed delay.
func (c *Client) call(ctx context.Context, kind, path, idemKey string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewOracleBadResponseError(kind, fmt.Sprintf("marshal request: %s", err.Error()))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("retrying oracle call", map[string]interface{}{
				"kind":    kind,
				"attempt": attempt,
			})
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return errors.NewOracleTimeoutError(kind)
			}
		}

		retryable, err := c.attempt(ctx, kind, path, idemKey, body, out)
		if err == nil {
			metrics.OracleCallsTotal.WithLabelValues(kind, "success").Inc()
			return nil
		}
		if !retryable {
			metrics.OracleCallsTotal.WithLabelValues(kind, "failure").Inc()
			return err
		}
		lastErr = err
	}

	metrics.OracleCallsTotal.WithLabelValues(kind, "failure").Inc()
	return lastErr
}

func (c *Client) attempt(ctx context.Context, kind, path, idemKey string, body []byte, out interface{}) (retryable bool, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.OracleCallDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, errors.NewOracleCallFailedError(kind, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", idemKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return true, errors.NewOracleTimeoutError(kind)
		}
		return true, errors.NewOracleCallFailedError(kind, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, errors.NewOracleCallFailedError(kind, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return true, errors.NewOracleCallFailedError(kind,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
	case resp.StatusCode >= 400:
		return false, errors.NewOracleBadResponseError(kind,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return false, errors.NewOracleBadResponseError(kind,
			fmt.Sprintf("decode response: %s", err.Error()))
	}
	return false, nil
}
