package store

import (
	"database/sql"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
)

// Blob is uploaded media held by the backend.
type Blob struct {
	ID          string
	Owner       backend.Principal
	ContentType string
	Size        int64
	Data        []byte
	CreatedAt   time.Time
}

// InsertBlob stores uploaded bytes.
func (db *DB) InsertBlob(b *Blob) error {
	_, err := db.Exec(`
		INSERT INTO blobs (id, owner, content_type, size, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Owner, b.ContentType, len(b.Data), b.Data, millis(b.CreatedAt))
	return err
}

// GetBlob returns a blob with its bytes, nil if absent.
func (db *DB) GetBlob(id string) (*Blob, error) {
	var b Blob
	var created int64
	err := db.QueryRow(`
		SELECT id, owner, content_type, size, data, created_at
		FROM blobs WHERE id = ?`, id).
		Scan(&b.ID, &b.Owner, &b.ContentType, &b.Size, &b.Data, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.CreatedAt = fromMillis(created)
	return &b, nil
}

// PruneResult reports what a blob sweep removed.
type PruneResult struct {
	Blobs int64
	Bytes int64
}

// PruneBlobs deletes blobs created before cutoff that no message or
// profile picture refers to.
func (db *DB) PruneBlobs(cutoff time.Time) (PruneResult, error) {
	var res PruneResult
	err := db.InTx(func(tx *sql.Tx) error {
		const unreferenced = `
			created_at < ?
			AND id NOT IN (SELECT media_id FROM messages WHERE media_id != '')
			AND id NOT IN (SELECT picture_id FROM users WHERE picture_id != '')`
		if err := tx.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM blobs WHERE `+unreferenced, millis(cutoff)).
			Scan(&res.Blobs, &res.Bytes); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM blobs WHERE `+unreferenced, millis(cutoff))
		return err
	})
	return res, err
}
