package store

import "github.com/heyfriend/heyfriend/internal/backend"

// UpsertContact adds a contact or relabels an existing one with the same
// phone number.
func (db *DB) UpsertContact(owner backend.Principal, phone, label string) error {
	_, err := db.Exec(`
		INSERT INTO contacts (owner, phone_number, label)
		VALUES (?, ?, ?)
		ON CONFLICT(owner, phone_number) DO UPDATE SET label = excluded.label`,
		owner, phone, label)
	return err
}

// DeleteContact removes a contact; removing an unknown one is a no-op.
func (db *DB) DeleteContact(owner backend.Principal, phone string) error {
	_, err := db.Exec(`DELETE FROM contacts WHERE owner = ? AND phone_number = ?`, owner, phone)
	return err
}

// ListContacts returns owner's contacts. The display name comes from the
// registered profile with that phone number, falling back to the label.
func (db *DB) ListContacts(owner backend.Principal) ([]backend.Contact, error) {
	rows, err := db.Query(`
		SELECT c.owner, c.phone_number, c.label,
			COALESCE(NULLIF(u.display_name, ''), c.label) AS display_name
		FROM contacts c
		LEFT JOIN users u ON u.phone_number = c.phone_number
		WHERE c.owner = ?
		ORDER BY display_name COLLATE NOCASE`, owner)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []backend.Contact{}
	for rows.Next() {
		var c backend.Contact
		if err := rows.Scan(&c.Owner, &c.PhoneNumber, &c.ContactLabel, &c.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
