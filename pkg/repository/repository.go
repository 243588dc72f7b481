package repository

import (
	"context"

	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (string, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) (string, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	// ListJobs returns jobs newest-first, optionally filtered by status.
	ListJobs(ctx context.Context, status *models.JobStatus) ([]models.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status models.JobStatus) error
	UpdateJobAssignee(ctx context.Context, id, name, initials string) error
	CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error)
}

type ContactRepo interface {
	CreateContact(ctx context.Context, c *models.Contact) (string, error)
	// ListContacts returns contacts newest-first, optionally filtered by type.
	ListContacts(ctx context.Context, typ *models.ContactType) ([]models.Contact, error)
}

type CommentRepo interface {
	// CreateComment persists the comment, appends its comment_created
	// activity entry, and updates the job's denormalized comment columns,
	// all in one transaction.
	CreateComment(ctx context.Context, c *models.Comment) (string, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// ListComments returns a job's non-deleted comments oldest-first.
	ListComments(ctx context.Context, jobID string) ([]models.Comment, error)
	UpdateCommentBody(ctx context.Context, id, body string) error
	SoftDeleteComment(ctx context.Context, id string) error
}

type ActivityRepo interface {
	AppendActivity(ctx context.Context, a *models.Activity) (string, error)
	// ListJobActivity returns one job's entries newest-first.
	ListJobActivity(ctx context.Context, jobID string, limit int) ([]models.Activity, error)
	// ListFeed returns the global feed newest-first with job address and
	// customer name joined in, optionally filtered by type.
	ListFeed(ctx context.Context, types []models.ActivityType, limit int) ([]models.Activity, error)
}
