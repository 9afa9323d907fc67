package member

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("member not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = `id, owner_id, user_id, name, email, role, COALESCE(position, ''),
	status, presence, last_seen, chat_nickname, is_chat_blocked, created_at`

func (r *Repository) Insert(ctx context.Context, m *Member) error {
	query := `INSERT INTO team_members (id, owner_id, name, email, role, position, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Name, m.Email, m.Role, nullable(m.Position), m.Status)
	return err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Member, error) {
	query := `SELECT ` + columns + ` FROM team_members WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM team_members WHERE id = $1`, id)
	m, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// LinkOnAuth promotes every pending membership for the email to active with
// the user's id. Returns how many rows were linked.
func (r *Repository) LinkOnAuth(ctx context.Context, userID, email string) (int64, error) {
	query := `UPDATE team_members SET user_id = $1, status = $2
	          WHERE email = $3 AND user_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, StatusActive, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetBlocked flips the chat-block flag and reports the new value.
func (r *Repository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE team_members SET is_chat_blocked = $2 WHERE id = $1`, id, blocked)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsChatBlocked reports whether the user's membership under the owner is
// blocked. A user with no membership row is not blocked (the owner has none).
func (r *Repository) IsChatBlocked(ctx context.Context, ownerID, userID string) (bool, error) {
	var blocked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT is_chat_blocked FROM team_members WHERE owner_id = $1 AND user_id = $2`,
		ownerID, userID).Scan(&blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return blocked, nil
}

// UpdatePresence writes the published status onto every membership row the
// user holds. Zero rows is fine; the user may not belong to any team yet.
func (r *Repository) UpdatePresence(ctx context.Context, userID, status string, lastSeen time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE team_members SET presence = $2, last_seen = $3 WHERE user_id = $1`,
		userID, status, lastSeen)
	return err
}

func (r *Repository) SetNickname(ctx context.Context, ownerID, userID, nickname string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE team_members SET chat_nickname = $3 WHERE owner_id = $1 AND user_id = $2`,
		ownerID, userID, nullable(nickname))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*Member, error) {
	m := &Member{}
	err := row.Scan(&m.ID, &m.OwnerID, &m.UserID, &m.Name, &m.Email, &m.Role, &m.Position,
		&m.Status, &m.Presence, &m.LastSeen, &m.ChatNickname, &m.IsChatBlocked, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
