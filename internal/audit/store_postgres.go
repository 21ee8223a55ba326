package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/platform/sentinel"
)

// Schema creates the ledger table. The table carries no UPDATE/DELETE paths
// in this codebase; immutability is enforced by the absence of any API.
const Schema = `
CREATE TABLE IF NOT EXISTS action_log (
	seq         BIGSERIAL PRIMARY KEY,
	id          UUID        NOT NULL UNIQUE,
	target_kind TEXT        NOT NULL,
	target_id   TEXT        NOT NULL,
	actor_id    TEXT        NOT NULL,
	action      TEXT        NOT NULL,
	from_status TEXT        NOT NULL,
	to_status   TEXT        NOT NULL,
	reason      TEXT        NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS action_log_target_idx ON action_log (target_kind, target_id, seq);
CREATE INDEX IF NOT EXISTS action_log_actor_idx ON action_log (actor_id, seq);
`

// PostgresStore is the durable ledger backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the ledger DDL. Safe to run repeatedly.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply action_log schema: %w", err)
	}
	return nil
}

// Append inserts one entry. Insert failures surface as storage
// unavailability so the surrounding mutation aborts.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO action_log (id, target_kind, target_id, actor_id, action, from_status, to_status, reason, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.TargetKind),
		entry.TargetID,
		entry.ActorID,
		entry.Action,
		entry.FromStatus,
		entry.ToStatus,
		entry.Reason,
		entry.Timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("insert action_log entry: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return entry.ID, nil
}

// Query returns matching entries oldest first, resumable by the seq cursor.
func (s *PostgresStore) Query(ctx context.Context, filter Filter) (Page, error) {
	cursor := int64(0)
	if filter.Cursor != "" {
		parsed, err := strconv.ParseInt(filter.Cursor, 10, 64)
		if err != nil || parsed < 0 {
			return Page{}, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
		}
		cursor = parsed
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	query := `
		SELECT seq, id, target_kind, target_id, actor_id, action, from_status, to_status, reason, timestamp
		FROM action_log
		WHERE seq > $1
	`
	args := []any{cursor}
	if filter.TargetKind != "" {
		args = append(args, string(filter.TargetKind))
		query += fmt.Sprintf(" AND target_kind = $%d", len(args))
	}
	if filter.TargetID != "" {
		args = append(args, filter.TargetID)
		query += fmt.Sprintf(" AND target_id = $%d", len(args))
	}
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		query += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY seq ASC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query action_log: %w (%w)", err, sentinel.ErrUnavailable)
	}
	defer rows.Close()

	var (
		page    Page
		lastSeq int64
	)
	for rows.Next() {
		var (
			seq   int64
			entry Entry
			kind  string
		)
		if err := rows.Scan(&seq, &entry.ID, &kind, &entry.TargetID, &entry.ActorID,
			&entry.Action, &entry.FromStatus, &entry.ToStatus, &entry.Reason, &entry.Timestamp); err != nil {
			return Page{}, fmt.Errorf("scan action_log entry: %w", err)
		}
		entry.TargetKind = domain.EntityKind(kind)
		if len(page.Entries) == limit {
			page.NextCursor = strconv.FormatInt(lastSeq, 10)
			return page, rows.Err()
		}
		page.Entries = append(page.Entries, entry)
		lastSeq = seq
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate action_log: %w", err)
	}
	return page, nil
}

// Recent returns up to limit entries for one entity, newest first.
func (s *PostgresStore) Recent(ctx context.Context, kind domain.EntityKind, id string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	const query = `
		SELECT id, target_kind, target_id, actor_id, action, from_status, to_status, reason, timestamp
		FROM action_log
		WHERE target_kind = $1 AND target_id = $2
		ORDER BY seq DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, string(kind), id, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent action_log: %w (%w)", err, sentinel.ErrUnavailable)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry Entry
			k     string
		)
		if err := rows.Scan(&entry.ID, &k, &entry.TargetID, &entry.ActorID,
			&entry.Action, &entry.FromStatus, &entry.ToStatus, &entry.Reason, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan action_log entry: %w", err)
		}
		entry.TargetKind = domain.EntityKind(k)
		out = append(out, entry)
	}
	return out, rows.Err()
}
