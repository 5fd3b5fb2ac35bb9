package store

import (
	"database/sql"

	"github.com/heyfriend/heyfriend/internal/backend"
)

// InsertReaction stores a reaction. The same user may react with the same
// emoji more than once.
func (db *DB) InsertReaction(r *backend.Reaction) error {
	_, err := db.Exec(`
		INSERT INTO reactions (id, message_id, user_id, emoji, timestamp)
		VALUES (?, ?, ?, ?, ?)`, r.ID, r.MessageID, r.UserID, r.Emoji, millis(r.Timestamp))
	return err
}

// GetReaction returns a reaction by ID, nil if absent.
func (db *DB) GetReaction(id string) (*backend.Reaction, error) {
	var r backend.Reaction
	var ts int64
	err := db.QueryRow(`
		SELECT id, message_id, user_id, emoji, timestamp
		FROM reactions WHERE id = ?`, id).
		Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Timestamp = fromMillis(ts)
	return &r, nil
}

// DeleteReaction removes a reaction.
func (db *DB) DeleteReaction(id string) error {
	_, err := db.Exec(`DELETE FROM reactions WHERE id = ?`, id)
	return err
}

// ListReactions returns a message's reactions, oldest first.
func (db *DB) ListReactions(messageID string) ([]backend.Reaction, error) {
	rows, err := db.Query(`
		SELECT id, message_id, user_id, emoji, timestamp
		FROM reactions
		WHERE message_id = ?
		ORDER BY timestamp, rowid`, messageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []backend.Reaction{}
	for rows.Next() {
		var r backend.Reaction
		var ts int64
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &ts); err != nil {
			return nil, err
		}
		r.Timestamp = fromMillis(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}
