package reaction

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Toggle attaches the reaction if the user does not already have this exact
// value on the message, and detaches it if they do. Both arms are single
// statements keyed by the (message_id, user_id, reaction_value) unique
// constraint, so rapid double-clicks cannot produce duplicates in either
// table variant.
func (r *Repository) Toggle(ctx context.Context, v Variant, re *Reaction) (added bool, err error) {
	delQuery := `DELETE FROM ` + v.table() + `
		WHERE message_id = $1 AND user_id = $2 AND reaction_value = $3
		RETURNING id`

	var deletedID string
	err = r.db.QueryRowContext(ctx, delQuery, re.MessageID, re.UserID, re.Value).Scan(&deletedID)
	if err == nil {
		re.ID = deletedID
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	re.ID = uuid.NewString()
	insQuery := `INSERT INTO ` + v.table() + `
		(id, message_id, user_id, user_name, reaction_type, reaction_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id, user_id, reaction_value) DO NOTHING
		RETURNING created_at`

	err = r.db.QueryRowContext(ctx, insQuery,
		re.ID, re.MessageID, re.UserID, re.UserName, re.Type, re.Value).Scan(&re.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// A concurrent toggle won the insert; ours is a no-op.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByMessage returns the raw rows for one message, oldest first, which
// gives GroupAll its first-seen order.
func (r *Repository) ListByMessage(ctx context.Context, v Variant, messageID string) ([]Reaction, error) {
	query := `SELECT id, message_id, user_id, user_name, reaction_type, reaction_value, created_at
		FROM ` + v.table() + `
		WHERE message_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reaction
	for rows.Next() {
		var re Reaction
		if err := rows.Scan(&re.ID, &re.MessageID, &re.UserID, &re.UserName,
			&re.Type, &re.Value, &re.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, rows.Err()
}
