package models

// Domain models matching the database schema in db/migrations/0001_init.sql

// JobStatus is the pipeline stage a job sits in. The set is closed; anything
// else is rejected on write.
type JobStatus string

const (
	StatusNew        JobStatus = "new"
	StatusScheduled  JobStatus = "scheduled"
	StatusSent       JobStatus = "sent"
	StatusSigned     JobStatus = "signed"
	StatusProduction JobStatus = "production"
	StatusComplete   JobStatus = "complete"
)

func (s JobStatus) Valid() bool {
	switch s {
	case StatusNew, StatusScheduled, StatusSent, StatusSigned, StatusProduction, StatusComplete:
		return true
	}
	return false
}

// Label returns the human-readable stage name shown in the pipeline UI.
func (s JobStatus) Label() string {
	switch s {
	case StatusNew:
		return "New Lead"
	case StatusScheduled:
		return "Appointment Scheduled"
	case StatusSent:
		return "Proposal Sent"
	case StatusSigned:
		return "Proposal Signed"
	case StatusProduction:
		return "Production"
	case StatusComplete:
		return "Complete"
	}
	return string(s)
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityLow, PriorityHigh:
		return true
	}
	return false
}

type ContactType string

const (
	ContactCustomer ContactType = "Customer"
	ContactCrew     ContactType = "Crew"
)

func (t ContactType) Valid() bool {
	return t == ContactCustomer || t == ContactCrew
}

// ActivityType enumerates the known kinds of job activity. Readers must treat
// values outside this set as ActivityOther rather than failing.
type ActivityType string

const (
	ActivityCommentCreated  ActivityType = "comment_created"
	ActivityStatusChanged   ActivityType = "status_changed"
	ActivityAssignedChanged ActivityType = "assigned_changed"
	ActivityJobCreated      ActivityType = "job_created"
	ActivityTaskCompleted   ActivityType = "task_completed"
	ActivityProposalCreated ActivityType = "proposal_created"
	ActivityProposalSent    ActivityType = "proposal_sent"
	ActivityProposalSigned  ActivityType = "proposal_signed"
	ActivityOther           ActivityType = "other"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCommentCreated, ActivityStatusChanged, ActivityAssignedChanged,
		ActivityJobCreated, ActivityTaskCompleted, ActivityProposalCreated,
		ActivityProposalSent, ActivityProposalSigned, ActivityOther:
		return true
	}
	return false
}

type User struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	Initials     string `json:"initials" db:"initials"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

type Job struct {
	ID                 string    `json:"id" db:"id"`
	Address            string    `json:"address" db:"address" validate:"required"`
	CustomerName       string    `json:"customer_name" db:"customer_name" validate:"required"`
	CustomerPhone      string    `json:"customer_phone,omitempty" db:"customer_phone"`
	CustomerEmail      string    `json:"customer_email,omitempty" db:"customer_email"`
	Value              float64   `json:"value" db:"value"`
	Status             JobStatus `json:"status" db:"status"`
	AssigneeName       string    `json:"assignee_name" db:"assignee_name"`
	AssigneeInitials   string    `json:"assignee_initials" db:"assignee_initials"`
	ProposalStatus     string    `json:"proposal_status,omitempty" db:"proposal_status"`
	CommentCount       int64     `json:"comment_count" db:"comment_count"`
	LastActivityAt     *int64    `json:"last_activity_at,omitempty" db:"last_activity_at"`
	LastCommentAt      *int64    `json:"last_comment_at,omitempty" db:"last_comment_at"`
	LastCommentSnippet string    `json:"last_comment_snippet,omitempty" db:"last_comment_snippet"`
	Priority           Priority  `json:"priority" db:"priority"`
	Created            int64     `json:"created" db:"created"`
	Updated            int64     `json:"updated" db:"updated"`
}

// Contact is an address-book entry. The Job field is a free-text link to a
// job by name or address, deliberately not a foreign key.
type Contact struct {
	ID      string      `json:"id" db:"id"`
	Name    string      `json:"name" db:"name" validate:"required"`
	Type    ContactType `json:"type" db:"type"`
	Label   string      `json:"label,omitempty" db:"label"`
	Email   string      `json:"email" db:"email" validate:"required,email"`
	Phone   string      `json:"phone,omitempty" db:"phone"`
	Job     string      `json:"job,omitempty" db:"job"`
	Created int64       `json:"created" db:"created"`
}

type Comment struct {
	ID              string  `json:"id" db:"id"`
	JobID           string  `json:"job_id" db:"job_id"`
	AuthorUserID    string  `json:"author_user_id" db:"author_user_id"`
	AuthorName      string  `json:"author_name" db:"author_name"`
	AuthorInitials  string  `json:"author_initials" db:"author_initials"`
	Body            string  `json:"body" db:"body"`
	ParentCommentID *string `json:"parent_comment_id,omitempty" db:"parent_comment_id"`
	IsDeleted       bool    `json:"is_deleted" db:"is_deleted"`
	Created         int64   `json:"created" db:"created"`
	Updated         int64   `json:"updated" db:"updated"`
}

// Activity is an append-only audit record of something happening on a job.
// Actor fields are empty for system-generated entries.
type Activity struct {
	ID            string       `json:"id" db:"id"`
	JobID         string       `json:"job_id" db:"job_id"`
	ActorUserID   string       `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorName     string       `json:"actor_name,omitempty" db:"actor_name"`
	ActorInitials string       `json:"actor_initials,omitempty" db:"actor_initials"`
	Type          ActivityType `json:"type" db:"type"`
	Summary       string       `json:"summary" db:"summary"`
	Metadata      string       `json:"metadata,omitempty" db:"metadata"`
	Created       int64        `json:"created" db:"created"`

	// Joined job columns, populated only by the global feed query.
	JobAddress      string `json:"job_address,omitempty" db:"-"`
	JobCustomerName string `json:"job_customer_name,omitempty" db:"-"`
}
