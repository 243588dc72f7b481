package sqlite

import (
	"context"
	"fmt"
	"strings"

	"database/sql"

	"github.com/google/uuid"

	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

// AppendActivity inserts an immutable feed entry. There is no update or
// delete path on purpose.
func (r *SQLiteRepo) AppendActivity(ctx context.Context, a *models.Activity) (string, error) {
	if a == nil {
		return "", fmt.Errorf("activity is nil")
	}
	if a.Type == "" {
		a.Type = models.ActivityOther
	}

	id := uuid.NewString()
	meta := a.Metadata
	if meta == "" {
		meta = "{}"
	}
	_, err := r.conn.Exec(ctx, `INSERT INTO job_activity (id, job_id, actor_user_id, actor_name, actor_initials, type, summary, metadata, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.JobID, nullIfEmpty(a.ActorUserID), nullIfEmpty(a.ActorName), nullIfEmpty(a.ActorInitials), string(a.Type), a.Summary, meta, now())
	if err != nil {
		return "", err
	}

	return id, nil
}

func (r *SQLiteRepo) ListJobActivity(ctx context.Context, jobID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, job_id, actor_user_id, actor_name, actor_initials, type, summary, metadata, created FROM job_activity WHERE job_id = ? ORDER BY created DESC, rowid DESC LIMIT ?`, jobID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows, false)
}

func (r *SQLiteRepo) ListFeed(ctx context.Context, types []models.ActivityType, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	q := `SELECT a.id, a.job_id, a.actor_user_id, a.actor_name, a.actor_initials, a.type, a.summary, a.metadata, a.created, j.address, j.customer_name FROM job_activity a JOIN jobs j ON j.id = a.job_id`
	args := []any{}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		q += ` WHERE a.type IN (` + strings.Join(placeholders, ", ") + `)`
	}
	q += ` ORDER BY a.created DESC, a.rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows, true)
}

func collectActivities(rows *sql.Rows, joined bool) ([]models.Activity, error) {
	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		var actorID, actorName, actorInitials sql.NullString
		dest := []any{&a.ID, &a.JobID, &actorID, &actorName, &actorInitials, &a.Type, &a.Summary, &a.Metadata, &a.Created}
		if joined {
			dest = append(dest, &a.JobAddress, &a.JobCustomerName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		a.ActorUserID = actorID.String
		a.ActorName = actorName.String
		a.ActorInitials = actorInitials.String
		if !a.Type.Valid() {
			a.Type = models.ActivityOther
		}
		out = append(out, a)
	}

	return out, rows.Err()
}
