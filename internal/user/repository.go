package user

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("profile not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateProfile(ctx context.Context, p *Profile) (*Profile, error) {
	query := `INSERT INTO profiles (id, email, password, display_name, avatar_url)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.Password, p.DisplayName, nullable(p.AvatarURL))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	p := &Profile{}
	query := `SELECT id, email, password, display_name, COALESCE(avatar_url, ''), status, last_seen
	          FROM profiles WHERE email = $1`

	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&p.ID, &p.Email, &p.Password, &p.DisplayName, &p.AvatarURL, &p.Status, &p.LastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	p := &Profile{}
	query := `SELECT id, email, password, display_name, COALESCE(avatar_url, ''), status, last_seen
	          FROM profiles WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Email, &p.Password, &p.DisplayName, &p.AvatarURL, &p.Status, &p.LastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdatePresence writes the published status and freshens last_seen.
func (r *Repository) UpdatePresence(ctx context.Context, id, status string, lastSeen time.Time) error {
	query := `UPDATE profiles SET status = $2, last_seen = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, lastSeen)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
