package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists audit entries in PostgreSQL with details as jsonb.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds an audit store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts one audit row.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.Exec(ctx, `INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, details, source_address, created_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), $8)`,
		entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		entry.Details, entry.SourceAddress, entry.CreatedAt.UTC())
	return err
}

// Search returns matching rows ordered by timestamp descending.
func (s *PostgresStore) Search(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addCondition("actor_id", filter.ActorID)
	addCondition("action", filter.Action)
	addCondition("entity_type", filter.EntityType)

	query := `SELECT id, COALESCE(actor_id::text, ''), action, COALESCE(entity_type, ''), COALESCE(entity_id::text, ''),
		details, COALESCE(source_address, ''), created_at FROM audit_log`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Details, &e.SourceAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
