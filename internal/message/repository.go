package message

import (
	"context"
	"database/sql"
	"time"
)

// HistoryLimit caps every fetched conversation at its most recent rows.
// Older history is a non-goal; the retention sweeper prunes it server-side.
const HistoryLimit = 100

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const teamColumns = `id, owner_id, sender_id, sender_name, COALESCE(sender_avatar, ''), body,
	file_url, file_name, file_type, reply_to_id, reply_to_preview, reply_to_sender, created_at`

func (r *Repository) InsertTeam(ctx context.Context, m *Message) (*Message, error) {
	query := `INSERT INTO team_messages
		(id, owner_id, sender_id, sender_name, sender_avatar, body,
		 file_url, file_name, file_type, reply_to_id, reply_to_preview, reply_to_sender)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.OwnerID, m.SenderID, m.SenderName, nullable(m.SenderAvatar), m.Body,
		m.FileURL, m.FileName, m.FileType, m.ReplyToID, m.ReplyToPreview, m.ReplyToSender,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecentTeam returns the newest HistoryLimit rows in ascending created_at
// order. Newest-N-desc then reverse keeps the index scan cheap.
func (r *Repository) RecentTeam(ctx context.Context, ownerID string) ([]Message, error) {
	query := `SELECT ` + teamColumns + `
		FROM team_messages
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, ownerID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.SenderID, &m.SenderName, &m.SenderAvatar, &m.Body,
			&m.FileURL, &m.FileName, &m.FileType, &m.ReplyToID, &m.ReplyToPreview, &m.ReplyToSender,
			&m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverse(msgs)
	return msgs, nil
}

const privateColumns = `id, owner_id, sender_id, receiver_id, sender_name, COALESCE(sender_avatar, ''), body,
	file_url, file_name, file_type, reply_to_id, reply_to_preview, reply_to_sender, is_read, created_at`

func (r *Repository) InsertPrivate(ctx context.Context, m *Message) (*Message, error) {
	query := `INSERT INTO private_messages
		(id, owner_id, sender_id, receiver_id, sender_name, sender_avatar, body,
		 file_url, file_name, file_type, reply_to_id, reply_to_preview, reply_to_sender)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.OwnerID, m.SenderID, m.ReceiverID, m.SenderName, nullable(m.SenderAvatar), m.Body,
		m.FileURL, m.FileName, m.FileType, m.ReplyToID, m.ReplyToPreview, m.ReplyToSender,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecentPrivate returns the newest rows of the 1:1 thread between a and b
// under ownerID, ascending.
func (r *Repository) RecentPrivate(ctx context.Context, ownerID, a, b string) ([]Message, error) {
	query := `SELECT ` + privateColumns + `
		FROM private_messages
		WHERE owner_id = $1
		  AND ((sender_id = $2 AND receiver_id = $3) OR (sender_id = $3 AND receiver_id = $2))
		ORDER BY created_at DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, ownerID, a, b, HistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.SenderID, &m.ReceiverID, &m.SenderName, &m.SenderAvatar, &m.Body,
			&m.FileURL, &m.FileName, &m.FileType, &m.ReplyToID, &m.ReplyToPreview, &m.ReplyToSender,
			&m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverse(msgs)
	return msgs, nil
}

// MarkRead flips is_read on every message from senderID addressed to
// receiverID. Returns the number of rows flipped.
func (r *Repository) MarkRead(ctx context.Context, ownerID, senderID, receiverID string) (int64, error) {
	query := `UPDATE private_messages SET is_read = TRUE
		WHERE owner_id = $1 AND sender_id = $2 AND receiver_id = $3 AND is_read = FALSE`

	res, err := r.db.ExecContext(ctx, query, ownerID, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCounts groups unread private messages addressed to receiverID by
// sender. The is_read column stays authoritative; this is the derived view.
func (r *Repository) UnreadCounts(ctx context.Context, receiverID string) (map[string]int, error) {
	query := `SELECT sender_id, COUNT(*) FROM private_messages
		WHERE receiver_id = $1 AND is_read = FALSE
		GROUP BY sender_id`

	rows, err := r.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sender string
		var n int
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, err
		}
		counts[sender] = n
	}
	return counts, rows.Err()
}

// ClearTeam hard-deletes every team message under the owner.
func (r *Repository) ClearTeam(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM team_messages WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearPrivate hard-deletes the 1:1 thread between a and b under the owner.
func (r *Repository) ClearPrivate(ctx context.Context, ownerID, a, b string) (int64, error) {
	query := `DELETE FROM private_messages
		WHERE owner_id = $1
		  AND ((sender_id = $2 AND receiver_id = $3) OR (sender_id = $3 AND receiver_id = $2))`
	res, err := r.db.ExecContext(ctx, query, ownerID, a, b)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOlderThan removes messages past the retention cutoff from both
// tables. Used by the scheduled sweeper only.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"team_messages", "private_messages"} {
		res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE created_at < $1`, cutoff)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func reverse(msgs []Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
