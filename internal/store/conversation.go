package store

import (
	"database/sql"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
)

// InsertConversation stores a conversation and its initial members.
func (db *DB) InsertConversation(c *backend.Conversation) error {
	return db.InTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO conversations (id, name, description, is_group, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Description, c.IsGroup, millis(c.CreatedAt)); err != nil {
			return err
		}
		for _, m := range c.Members {
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO members (conversation_id, principal, joined_at)
				VALUES (?, ?, ?)`, c.ID, m, millis(c.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetConversation returns a conversation with its members, nil if absent.
func (db *DB) GetConversation(id string) (*backend.Conversation, error) {
	var c backend.Conversation
	var created int64
	err := db.QueryRow(`
		SELECT id, name, description, is_group, created_at
		FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.IsGroup, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(created)
	c.Members, err = db.members(id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) members(conversationID string) ([]backend.Principal, error) {
	rows, err := db.Query(`
		SELECT principal FROM members
		WHERE conversation_id = ?
		ORDER BY joined_at, principal`, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []backend.Principal
	for rows.Next() {
		var p backend.Principal
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// IsMember reports whether p belongs to the conversation.
func (db *DB) IsMember(conversationID string, p backend.Principal) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM members
		WHERE conversation_id = ? AND principal = ?`, conversationID, p).Scan(&n)
	return n > 0, err
}

// AddMember adds p to a conversation; adding an existing member is a no-op.
func (db *DB) AddMember(conversationID string, p backend.Principal) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO members (conversation_id, principal, joined_at)
		VALUES (?, ?, ?)`, conversationID, p, millis(Now()))
	return err
}

// RemoveMember removes p from a conversation.
func (db *DB) RemoveMember(conversationID string, p backend.Principal) error {
	_, err := db.Exec(`DELETE FROM members WHERE conversation_id = ? AND principal = ?`, conversationID, p)
	return err
}

// ListConversationIDs returns the conversations p belongs to, most
// recently active first.
func (db *DB) ListConversationIDs(p backend.Principal) ([]string, error) {
	rows, err := db.Query(`
		SELECT c.id
		FROM conversations c
		JOIN members m ON m.conversation_id = c.id AND m.principal = ?
		ORDER BY COALESCE((SELECT MAX(timestamp) FROM messages WHERE conversation_id = c.id), c.created_at) DESC`, p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnreadCount counts messages from others after p's read mark that are
// not deleted.
func (db *DB) UnreadCount(conversationID string, p backend.Principal) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM messages msg
		JOIN members m ON m.conversation_id = msg.conversation_id AND m.principal = ?
		WHERE msg.conversation_id = ?
			AND msg.sender != ?
			AND msg.status != ?
			AND msg.timestamp > m.last_read_at`,
		p, conversationID, p, backend.StatusDeleted).Scan(&n)
	return n, err
}

// MarkRead moves p's read mark forward to at and marks the messages from
// others up to it as read. It never moves the mark backwards.
func (db *DB) MarkRead(conversationID string, p backend.Principal, at time.Time) error {
	ms := millis(at)
	return db.InTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			UPDATE members SET last_read_at = MAX(last_read_at, ?)
			WHERE conversation_id = ? AND principal = ?`, ms, conversationID, p); err != nil {
			return err
		}
		_, err := tx.Exec(`
			UPDATE messages SET status = ?
			WHERE conversation_id = ? AND sender != ? AND timestamp <= ?
				AND status IN (?, ?)`,
			backend.StatusRead, conversationID, p, ms, backend.StatusSent, backend.StatusReceived)
		return err
	})
}
