// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	forgeerrors "github.com/zebrarx/claimforge/pkg/errors"
)

// Store persists submission results in SQLite so runs can be audited.
type Store struct {
	db *sql.DB
}

// NewStore creates a SQLite-backed result store and ensures schema.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSubmissionSchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record stores a single submission result.
func (s *Store) Record(ctx context.Context, result *Result) error {
	var responseJSON string
	if result.Response != nil {
		raw, err := json.Marshal(result.Response)
		if err != nil {
			return err
		}
		responseJSON = string(raw)
	}
	var validationText string
	if result.ValidationErr != nil {
		validationText = result.ValidationErr.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submission_results (
			message_id, state, schema_name, status_code, response_json, validation_error, sent_at, completed_at, attempts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.MessageID,
		string(result.State),
		result.SchemaName,
		result.StatusCode,
		responseJSON,
		validationText,
		normalizeTime(result.SentAt),
		normalizeTime(result.CompletedAt),
		result.Attempts,
	)
	return err
}

// Filter narrows what List returns.
type Filter struct {
	MessageID string
	State     State
	Limit     int
}

// List returns recorded results matching the filter, oldest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Result, error) {
	query := `
		SELECT message_id, state, schema_name, status_code, response_json, validation_error, sent_at, completed_at, attempts
		FROM submission_results
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.MessageID != "" {
		addFilter("message_id = ?", filter.MessageID)
	}
	if filter.State != "" {
		addFilter("state = ?", string(filter.State))
	}
	query += where + " ORDER BY completed_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		var (
			result         Result
			state          string
			responseJSON   string
			validationText string
			sent           sql.NullTime
			completed      sql.NullTime
		)
		if err := rows.Scan(
			&result.MessageID,
			&state,
			&result.SchemaName,
			&result.StatusCode,
			&responseJSON,
			&validationText,
			&sent,
			&completed,
			&result.Attempts,
		); err != nil {
			return nil, err
		}
		result.State = State(state)
		if responseJSON != "" {
			var response map[string]any
			if err := json.Unmarshal([]byte(responseJSON), &response); err == nil {
				result.Response = response
			}
		}
		if validationText != "" {
			result.ValidationErr = forgeerrors.New(forgeerrors.CodeValidation, validationText, nil)
		}
		if sent.Valid {
			result.SentAt = sent.Time
		}
		if completed.Valid {
			result.CompletedAt = completed.Time
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func ensureSubmissionSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS submission_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			state TEXT NOT NULL,
			schema_name TEXT,
			status_code INTEGER,
			response_json TEXT,
			validation_error TEXT,
			sent_at TIMESTAMP,
			completed_at TIMESTAMP,
			attempts INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_submission_message ON submission_results(message_id);
		CREATE INDEX IF NOT EXISTS idx_submission_state ON submission_results(state);
	`)
	return err
}

func normalizeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
