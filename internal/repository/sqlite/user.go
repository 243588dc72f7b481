package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (string, error) {
	if u == nil {
		return "", fmt.Errorf("user is nil")
	}

	id := uuid.NewString()
	ts := now()
	_, err := r.conn.Exec(ctx, `INSERT INTO users (id, name, email, initials, password_hash, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, u.Name, u.Email, u.Initials, u.PasswordHash, ts, ts)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, email, initials, password_hash, created, updated FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, email, initials, password_hash, created, updated FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var pw sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Initials, &pw, &u.Created, &u.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if pw.Valid {
		u.PasswordHash = pw.String
	}

	return &u, nil
}
