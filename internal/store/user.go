package store

import (
	"database/sql"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
)

const userColumns = `principal, display_name, phone_number, gender, address, date_of_birth, picture_id, picture_url, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*backend.UserProfile, error) {
	var u backend.UserProfile
	var dob, created int64
	var picID, picURL string
	if err := s.Scan(&u.Principal, &u.DisplayName, &u.PhoneNumber, &u.Gender, &u.Address, &dob, &picID, &picURL, &created); err != nil {
		return nil, err
	}
	u.DateOfBirth = fromMillis(dob)
	u.CreatedAt = fromMillis(created)
	if picID != "" || picURL != "" {
		u.ProfilePicture = &backend.Blob{ID: picID, URL: picURL}
	}
	return &u, nil
}

func blobRef(b *backend.Blob) (string, string) {
	if b == nil {
		return "", ""
	}
	return b.ID, b.URL
}

// InsertUser stores a new profile. The caller checks phone uniqueness; the
// UNIQUE constraint is the backstop.
func (db *DB) InsertUser(u *backend.UserProfile) error {
	picID, picURL := blobRef(u.ProfilePicture)
	_, err := db.Exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Principal, u.DisplayName, u.PhoneNumber, u.Gender, u.Address,
		millis(u.DateOfBirth), picID, picURL, millis(u.CreatedAt))
	return err
}

// SaveUser replaces every field of an existing profile except its
// principal and creation time.
func (db *DB) SaveUser(u *backend.UserProfile) error {
	picID, picURL := blobRef(u.ProfilePicture)
	_, err := db.Exec(`
		UPDATE users SET display_name = ?, phone_number = ?, gender = ?, address = ?,
			date_of_birth = ?, picture_id = ?, picture_url = ?
		WHERE principal = ?`,
		u.DisplayName, u.PhoneNumber, u.Gender, u.Address,
		millis(u.DateOfBirth), picID, picURL, u.Principal)
	return err
}

// GetUser returns a profile by principal, nil if absent.
func (db *DB) GetUser(p backend.Principal) (*backend.UserProfile, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE principal = ?`, p))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// UserByPhone returns the profile owning phone, nil if absent.
func (db *DB) UserByPhone(phone string) (*backend.UserProfile, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE phone_number = ?`, phone))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// CountUsers returns the number of registered profiles.
func (db *DB) CountUsers() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// SearchUsersByName returns profiles whose display name contains term,
// ignoring case, ordered by name.
func (db *DB) SearchUsersByName(term string, limit int) ([]backend.UserProfile, error) {
	return db.searchUsers(`display_name LIKE '%' || ? || '%' ORDER BY display_name COLLATE NOCASE`, term, limit)
}

// SearchUsersByPhone returns profiles whose phone number contains term.
func (db *DB) SearchUsersByPhone(term string, limit int) ([]backend.UserProfile, error) {
	return db.searchUsers(`phone_number LIKE '%' || ? || '%' ORDER BY phone_number`, term, limit)
}

func (db *DB) searchUsers(where, term string, limit int) ([]backend.UserProfile, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT ?`, term, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := []backend.UserProfile{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetRole assigns a role, replacing any previous one.
func (db *DB) SetRole(p backend.Principal, role backend.UserRole) error {
	_, err := db.Exec(`
		INSERT INTO roles (principal, role) VALUES (?, ?)
		ON CONFLICT(principal) DO UPDATE SET role = excluded.role`, p, role)
	return err
}

// GetRole returns p's role, empty when none was assigned.
func (db *DB) GetRole(p backend.Principal) (backend.UserRole, error) {
	var role backend.UserRole
	err := db.QueryRow(`SELECT role FROM roles WHERE principal = ?`, p).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return role, err
}

// Now is the store's clock, truncated to the millisecond precision it keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
