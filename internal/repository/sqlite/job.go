package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

const jobColumns = `id, address, customer_name, customer_phone, customer_email, value, status, assignee_name, assignee_initials, proposal_status, comment_count, last_activity_at, last_comment_at, last_comment_snippet, priority, created, updated`

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (string, error) {
	if j == nil {
		return "", fmt.Errorf("job is nil")
	}
	if !j.Status.Valid() {
		return "", fmt.Errorf("invalid job status %q", j.Status)
	}
	if j.Priority == "" {
		j.Priority = models.PriorityNormal
	}
	if !j.Priority.Valid() {
		return "", fmt.Errorf("invalid job priority %q", j.Priority)
	}

	id := uuid.NewString()
	ts := now()
	_, err := r.conn.Exec(ctx, `INSERT INTO jobs (id, address, customer_name, customer_phone, customer_email, value, status, assignee_name, assignee_initials, proposal_status, priority, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, j.Address, j.CustomerName, nullIfEmpty(j.CustomerPhone), nullIfEmpty(j.CustomerEmail), j.Value, string(j.Status), j.AssigneeName, j.AssigneeInitials, nullIfEmpty(j.ProposalStatus), string(j.Priority), ts, ts)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (r *SQLiteRepo) GetJob(ctx context.Context, id string) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *SQLiteRepo) ListJobs(ctx context.Context, status *models.JobStatus) ([]models.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != nil {
		q += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	q += ` ORDER BY created DESC`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid job status %q", status)
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `UPDATE jobs SET status = ?, last_activity_at = ?, updated = ? WHERE id = ?`, string(status), ts, ts, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *SQLiteRepo) UpdateJobAssignee(ctx context.Context, id, name, initials string) error {
	ts := now()
	res, err := r.conn.Exec(ctx, `UPDATE jobs SET assignee_name = ?, assignee_initials = ?, last_activity_at = ?, updated = ? WHERE id = ?`, name, initials, ts, ts, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *SQLiteRepo) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.JobStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[models.JobStatus(status)] = count
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	var phone, email, proposal, snippet sql.NullString
	var lastActivity, lastComment sql.NullInt64
	if err := row.Scan(&j.ID, &j.Address, &j.CustomerName, &phone, &email, &j.Value, &j.Status, &j.AssigneeName, &j.AssigneeInitials, &proposal, &j.CommentCount, &lastActivity, &lastComment, &snippet, &j.Priority, &j.Created, &j.Updated); err != nil {
		return nil, err
	}

	j.CustomerPhone = phone.String
	j.CustomerEmail = email.String
	j.ProposalStatus = proposal.String
	j.LastCommentSnippet = snippet.String
	if lastActivity.Valid {
		j.LastActivityAt = &lastActivity.Int64
	}
	if lastComment.Valid {
		j.LastCommentAt = &lastComment.Int64
	}

	return &j, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
