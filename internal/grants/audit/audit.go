// Package audit persists the lifecycle transition history to Postgres.
// The trail is append-only; rows are never updated or deleted.
package audit

import (
	"context"
	"database/sql"

	"grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

const createTableDDL = `
CREATE TABLE IF NOT EXISTS application_status_history (
	id              BIGSERIAL PRIMARY KEY,
	application_id  TEXT        NOT NULL,
	previous_status TEXT        NOT NULL,
	new_status      TEXT        NOT NULL,
	actor           TEXT        NOT NULL,
	reason          TEXT        NOT NULL DEFAULT '',
	changed_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_history_application
	ON application_status_history (application_id, changed_at);
`

const insertSQL = `
INSERT INTO application_status_history
	(application_id, previous_status, new_status, actor, reason, changed_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const historySQL = `
SELECT application_id, previous_status, new_status, actor, reason, changed_at
FROM application_status_history
WHERE application_id = $1
ORDER BY changed_at ASC, id ASC`

// Recorder writes and reads the transition trail.
type Recorder struct {
	db  *sql.DB
	log logger.Logger
}

// NewRecorder creates a recorder over an established database handle.
func NewRecorder(db *sql.DB, log logger.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// EnsureSchema creates the history table when it does not exist yet.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableDDL); err != nil {
		return errors.NewAuditWriteError(err)
	}
	return nil
}

// Record appends one transition to the trail.
func (r *Recorder) Record(ctx context.Context, change models.StatusChange) error {
	_, err := r.db.ExecContext(ctx, insertSQL,
		change.ApplicationID,
		string(change.Previous),
		string(change.Next),
		change.Actor,
		change.Reason,
		change.At,
	)
	if err != nil {
		return errors.NewAuditWriteError(err)
	}
	r.log.Debug("transition recorded", map[string]interface{}{
		"applicationId": change.ApplicationID,
		"from":          string(change.Previous),
		"to":            string(change.Next),
	})
	return nil
}

// History returns an application's transitions in chronological order.
func (r *Recorder) History(ctx context.Context, applicationID string) ([]models.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx, historySQL, applicationID)
	if err != nil {
		return nil, errors.NewStoreReadError("application_status_history", err)
	}
	defer rows.Close()

	changes := []models.StatusChange{}
	for rows.Next() {
		var c models.StatusChange
		var prev, next string
		if err := rows.Scan(&c.ApplicationID, &prev, &next, &c.Actor, &c.Reason, &c.At); err != nil {
			return nil, errors.NewStoreReadError("application_status_history", err)
		}
		c.Previous = models.ApplicationStatus(prev)
		c.Next = models.ApplicationStatus(next)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreReadError("application_status_history", err)
	}
	return changes, nil
}
