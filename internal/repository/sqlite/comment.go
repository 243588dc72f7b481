package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/CodyCMAC/cmac-jobforge/internal/display"
	"github.com/CodyCMAC/cmac-jobforge/internal/pulse"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

const commentColumns = `id, job_id, author_user_id, author_name, author_initials, body, parent_comment_id, is_deleted, created, updated`

const snippetMax = 50

// CreateComment inserts the comment, its comment_created activity entry, and
// the job's denormalized comment columns in a single transaction, so a feed
// entry can never exist without its comment or vice versa.
func (r *SQLiteRepo) CreateComment(ctx context.Context, c *models.Comment) (string, error) {
	if c == nil {
		return "", fmt.Errorf("comment is nil")
	}

	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE id = ?`, c.JobID).Scan(&exists); err != nil {
		_ = tx.Rollback()
		return "", err
	}
	if exists == 0 {
		_ = tx.Rollback()
		return "", fmt.Errorf("job %s: %w", c.JobID, sql.ErrNoRows)
	}

	id := uuid.NewString()
	ts := now()
	var parent any
	if c.ParentCommentID != nil && *c.ParentCommentID != "" {
		parent = *c.ParentCommentID
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO job_comments (id, job_id, author_user_id, author_name, author_initials, body, parent_comment_id, is_deleted, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, c.JobID, c.AuthorUserID, c.AuthorName, c.AuthorInitials, c.Body, parent, ts, ts); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("insert comment: %w", err)
	}

	meta, _ := json.Marshal(map[string]string{"comment_id": id})
	if _, err := tx.ExecContext(ctx, `INSERT INTO job_activity (id, job_id, actor_user_id, actor_name, actor_initials, type, summary, metadata, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), c.JobID, c.AuthorUserID, c.AuthorName, c.AuthorInitials, string(models.ActivityCommentCreated), pulse.CommentSummary(c.AuthorName, c.Body), string(meta), ts); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("insert comment activity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE jobs SET comment_count = comment_count + 1, last_comment_at = ?, last_comment_snippet = ?, last_activity_at = ?, updated = ? WHERE id = ?`,
		ts, display.Snippet(c.Body, snippetMax), ts, ts, c.JobID); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("bump job comment columns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return id, nil
}

func (r *SQLiteRepo) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM job_comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns a job's visible comments oldest-first so callers can
// render them as a conversation.
func (r *SQLiteRepo) ListComments(ctx context.Context, jobID string) ([]models.Comment, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+commentColumns+` FROM job_comments WHERE job_id = ? AND is_deleted = 0 ORDER BY created ASC, rowid ASC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateCommentBody(ctx context.Context, id, body string) error {
	_, err := r.conn.Exec(ctx, `UPDATE job_comments SET body = ?, updated = ? WHERE id = ? AND is_deleted = 0`, body, now(), id)
	return err
}

// SoftDeleteComment flips the visibility flag and decrements the job's
// denormalized comment count, never below zero.
func (r *SQLiteRepo) SoftDeleteComment(ctx context.Context, id string) error {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var jobID string
	var deleted bool
	if err := tx.QueryRowContext(ctx, `SELECT job_id, is_deleted FROM job_comments WHERE id = ?`, id).Scan(&jobID, &deleted); err != nil {
		_ = tx.Rollback()
		return err
	}
	if deleted {
		// already gone; nothing to do
		return tx.Rollback()
	}

	if _, err := tx.ExecContext(ctx, `UPDATE job_comments SET is_deleted = 1, updated = ? WHERE id = ?`, now(), id); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE jobs SET comment_count = MAX(comment_count - 1, 0), updated = ? WHERE id = ?`, now(), jobID); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var parent sql.NullString
	var deleted int
	if err := row.Scan(&c.ID, &c.JobID, &c.AuthorUserID, &c.AuthorName, &c.AuthorInitials, &c.Body, &parent, &deleted, &c.Created, &c.Updated); err != nil {
		return nil, err
	}

	if parent.Valid {
		c.ParentCommentID = &parent.String
	}
	c.IsDeleted = deleted != 0

	return &c, nil
}
