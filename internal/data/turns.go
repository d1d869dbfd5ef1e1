package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/domain"
	"github.com/meshbridge/meshtastic-llm-bridge/internal/biz/repo"
)

// turnRepo implements repo.TurnRepo on the sqlite turns table
type turnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a sqlite-backed turn repository
func NewTurnRepo(db *sql.DB) repo.TurnRepo {
	return &turnRepo{db: db}
}

// Append stores one turn and returns its autoincrement sequence ID
func (r *turnRepo) Append(ctx context.Context, senderID string, role domain.Role, content string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO turns (sender_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, senderID, string(role), content, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: append turn for %s: %v", repo.ErrStoreWrite, senderID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", repo.ErrStoreWrite, err)
	}
	return id, nil
}

// Recent returns up to limit turns for a sender, most-recent-last.
// Ordering is by sequence ID, so same-second turns keep insertion order.
func (r *turnRepo) Recent(ctx context.Context, senderID string, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sender_id, role, content, created_at
		FROM turns
		WHERE sender_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, senderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		var role string
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.SenderID, &role, &t.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = domain.Role(role)
		t.CreatedAt = time.Unix(createdAt, 0)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	// Query is newest-first; callers want oldest-first
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Prune deletes the sender's turns beyond the most recent keep, oldest-first
func (r *turnRepo) Prune(ctx context.Context, senderID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM turns
		WHERE sender_id = ?
		AND id NOT IN (
			SELECT id FROM turns
			WHERE sender_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
	`, senderID, senderID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune turns for %s: %w", senderID, err)
	}

	return result.RowsAffected()
}

// Senders lists every sender with stored history
func (r *turnRepo) Senders(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT sender_id FROM turns`)
	if err != nil {
		return nil, fmt.Errorf("failed to list senders: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		senders = append(senders, s)
	}
	return senders, rows.Err()
}

// Close closes the underlying database
func (r *turnRepo) Close() error {
	return r.db.Close()
}
