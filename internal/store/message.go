package store

import (
	"database/sql"

	"github.com/heyfriend/heyfriend/internal/backend"
)

const messageColumns = `id, conversation_id, sender, content, media_type, status, media_id, media_url, timestamp`

func scanMessage(s scanner) (*backend.Message, error) {
	var m backend.Message
	var mediaID, mediaURL string
	var ts int64
	if err := s.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.MediaType, &m.Status, &mediaID, &mediaURL, &ts); err != nil {
		return nil, err
	}
	m.Timestamp = fromMillis(ts)
	if mediaID != "" || mediaURL != "" {
		m.Media = &backend.Blob{ID: mediaID, URL: mediaURL}
	}
	return &m, nil
}

// InsertMessage stores a new message.
func (db *DB) InsertMessage(m *backend.Message) error {
	mediaID, mediaURL := blobRef(m.Media)
	_, err := db.Exec(`
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Sender, m.Content, m.MediaType, m.Status, mediaID, mediaURL, millis(m.Timestamp))
	return err
}

// GetMessage returns a message by ID, nil if absent.
func (db *DB) GetMessage(id string) (*backend.Message, error) {
	m, err := scanMessage(db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// ListMessages returns up to limit messages of a conversation after
// skipping the offset most recent ones, in ascending time order.
func (db *DB) ListMessages(conversationID string, limit, offset int) ([]backend.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ? OFFSET ?`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	msgs := []backend.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// LastMessage returns the newest message of a conversation, nil if empty.
func (db *DB) LastMessage(conversationID string) (*backend.Message, error) {
	m, err := scanMessage(db.QueryRow(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT 1`, conversationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// SetMessageStatus overwrites a message's status. Callers enforce ordering;
// a deleted message keeps its status.
func (db *DB) SetMessageStatus(id string, st backend.MessageStatus) error {
	_, err := db.Exec(`UPDATE messages SET status = ? WHERE id = ? AND status != ?`,
		st, id, backend.StatusDeleted)
	return err
}

// SoftDeleteMessage marks a message deleted and drops its payload.
func (db *DB) SoftDeleteMessage(id string) error {
	_, err := db.Exec(`
		UPDATE messages SET status = ?, content = '', media_id = '', media_url = ''
		WHERE id = ?`, backend.StatusDeleted, id)
	return err
}
