package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

func (r *SQLiteRepo) CreateContact(ctx context.Context, c *models.Contact) (string, error) {
	if c == nil {
		return "", fmt.Errorf("contact is nil")
	}
	if !c.Type.Valid() {
		return "", fmt.Errorf("invalid contact type %q", c.Type)
	}

	id := uuid.NewString()
	_, err := r.conn.Exec(ctx, `INSERT INTO contacts (id, name, type, label, email, phone, job, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, string(c.Type), nullIfEmpty(c.Label), c.Email, nullIfEmpty(c.Phone), nullIfEmpty(c.Job), now())
	if err != nil {
		return "", err
	}

	return id, nil
}

func (r *SQLiteRepo) ListContacts(ctx context.Context, typ *models.ContactType) ([]models.Contact, error) {
	q := `SELECT id, name, type, label, email, phone, job, created FROM contacts`
	args := []any{}
	if typ != nil {
		q += ` WHERE type = ?`
		args = append(args, string(*typ))
	}
	q += ` ORDER BY created DESC`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		var c models.Contact
		var label, phone, job sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &label, &c.Email, &phone, &job, &c.Created); err != nil {
			return nil, err
		}
		c.Label = label.String
		c.Phone = phone.String
		c.Job = job.String
		out = append(out, c)
	}

	return out, rows.Err()
}
