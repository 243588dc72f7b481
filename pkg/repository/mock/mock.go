package mock

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	UserRepo     *UserRepo
	JobRepo      *JobRepo
	ContactRepo  *ContactRepo
	CommentRepo  *CommentRepo
	ActivityRepo *ActivityRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		UserRepo:     &UserRepo{},
		JobRepo:      &JobRepo{},
		ContactRepo:  &ContactRepo{},
		CommentRepo:  &CommentRepo{},
		ActivityRepo: &ActivityRepo{},
	}
}

type UserRepo struct {
	Stored    *models.User
	CreateErr error
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Stored = &models.User{ID: "user-1", Name: u.Name, Email: u.Email, Initials: u.Initials, PasswordHash: u.PasswordHash}
	return m.Stored.ID, nil
}

func (m *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

type JobRepo struct {
	mu        sync.Mutex
	Jobs      []models.Job
	CreateErr error
}

func (m *JobRepo) CreateJob(ctx context.Context, j *models.Job) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job := *j
	job.ID = "job-1"
	m.Jobs = append(m.Jobs, job)
	return job.ID, nil
}

func (m *JobRepo) GetJob(ctx context.Context, id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Jobs {
		if m.Jobs[i].ID == id {
			j := m.Jobs[i]
			return &j, nil
		}
	}
	return nil, nil
}

func (m *JobRepo) ListJobs(ctx context.Context, status *models.JobStatus) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Job
	for _, j := range m.Jobs {
		if status == nil || j.Status == *status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *JobRepo) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Jobs {
		if m.Jobs[i].ID == id {
			m.Jobs[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("job %s: %w", id, sql.ErrNoRows)
}

func (m *JobRepo) UpdateJobAssignee(ctx context.Context, id, name, initials string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Jobs {
		if m.Jobs[i].ID == id {
			m.Jobs[i].AssigneeName = name
			m.Jobs[i].AssigneeInitials = initials
			return nil
		}
	}
	return fmt.Errorf("job %s: %w", id, sql.ErrNoRows)
}

func (m *JobRepo) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[models.JobStatus]int64)
	for _, j := range m.Jobs {
		out[j.Status]++
	}
	return out, nil
}

// SetJobs replaces the stored jobs; safe to call while a reader is running.
func (m *JobRepo) SetJobs(jobs []models.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Jobs = jobs
}

type ContactRepo struct {
	Contacts  []models.Contact
	CreateErr error
}

func (m *ContactRepo) CreateContact(ctx context.Context, c *models.Contact) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	contact := *c
	contact.ID = "contact-1"
	m.Contacts = append(m.Contacts, contact)
	return contact.ID, nil
}

func (m *ContactRepo) ListContacts(ctx context.Context, typ *models.ContactType) ([]models.Contact, error) {
	var out []models.Contact
	for _, c := range m.Contacts {
		if typ == nil || c.Type == *typ {
			out = append(out, c)
		}
	}
	return out, nil
}

type CommentRepo struct {
	Comments  []models.Comment
	CreateErr error
}

func (m *CommentRepo) CreateComment(ctx context.Context, c *models.Comment) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	comment := *c
	comment.ID = "comment-1"
	m.Comments = append(m.Comments, comment)
	return comment.ID, nil
}

func (m *CommentRepo) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	for i := range m.Comments {
		if m.Comments[i].ID == id {
			c := m.Comments[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *CommentRepo) ListComments(ctx context.Context, jobID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range m.Comments {
		if c.JobID == jobID && !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *CommentRepo) UpdateCommentBody(ctx context.Context, id, body string) error {
	for i := range m.Comments {
		if m.Comments[i].ID == id && !m.Comments[i].IsDeleted {
			m.Comments[i].Body = body
		}
	}
	return nil
}

func (m *CommentRepo) SoftDeleteComment(ctx context.Context, id string) error {
	for i := range m.Comments {
		if m.Comments[i].ID == id {
			m.Comments[i].IsDeleted = true
		}
	}
	return nil
}

type ActivityRepo struct {
	mu        sync.Mutex
	Entries   []models.Activity
	AppendErr error
	ListErr   error
}

func (m *ActivityRepo) AppendActivity(ctx context.Context, a *models.Activity) (string, error) {
	if m.AppendErr != nil {
		return "", m.AppendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := *a
	entry.ID = "activity-1"
	m.Entries = append(m.Entries, entry)
	return entry.ID, nil
}

func (m *ActivityRepo) ListJobActivity(ctx context.Context, jobID string, limit int) ([]models.Activity, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for _, a := range m.Entries {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *ActivityRepo) ListFeed(ctx context.Context, types []models.ActivityType, limit int) ([]models.Activity, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(types) == 0 {
		return append([]models.Activity(nil), m.Entries...), nil
	}
	want := make(map[models.ActivityType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []models.Activity
	for _, a := range m.Entries {
		if want[a.Type] {
			out = append(out, a)
		}
	}
	return out, nil
}

// Add appends an entry; safe to call while a reader is running.
func (m *ActivityRepo) Add(a models.Activity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, a)
}
