package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/CodyCMAC/cmac-jobforge/internal/display"
	"github.com/CodyCMAC/cmac-jobforge/internal/feed"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
	"github.com/CodyCMAC/cmac-jobforge/pkg/repository"
)

type JobsHandler struct {
	jobRepo      repository.JobRepo
	activityRepo repository.ActivityRepo
	bus          *feed.Bus
}

func NewJobsHandler(jr repository.JobRepo, ar repository.ActivityRepo, bus *feed.Bus) *JobsHandler {
	return &JobsHandler{jobRepo: jr, activityRepo: ar, bus: bus}
}

type createJobRequest struct {
	CustomerName  string `json:"customer_name"`
	Address       string `json:"address"`
	AssigneeName  string `json:"assignee_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	// Value arrives as a number or as raw form text; anything unparseable
	// falls back to zero.
	Value  any    `json:"value"`
	Status string `json:"status"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// jobView is a job row plus its display annotations.
type jobView struct {
	models.Job
	ValueDisplay  string               `json:"value_display"`
	Age           display.AgeIndicator `json:"age"`
	StatusBadge   string               `json:"status_badge"`
	ProposalBadge string               `json:"proposal_badge,omitempty"`
	UpdatedAgo    string               `json:"updated_ago"`
}

func newJobView(j models.Job, now time.Time) jobView {
	v := jobView{
		Job:          j,
		ValueDisplay: display.Currency(j.Value),
		Age:          display.Age(time.UnixMilli(j.Updated), now),
		StatusBadge:  display.StatusBadge(string(j.Status)),
		UpdatedAgo:   display.TimeAgo(time.UnixMilli(j.Updated), now),
	}
	if j.ProposalStatus != "" {
		v.ProposalBadge = display.ProposalBadge(j.ProposalStatus)
	}
	return v
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Address = strings.TrimSpace(req.Address)
	req.AssigneeName = strings.TrimSpace(req.AssigneeName)
	if req.CustomerName == "" || req.Address == "" {
		http.Error(w, "customer name and address are required", http.StatusBadRequest)
		return
	}
	if req.AssigneeName == "" {
		http.Error(w, "assignee name is required", http.StatusBadRequest)
		return
	}

	status := models.StatusNew
	if req.Status != "" {
		status = models.JobStatus(req.Status)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
	}

	value := parseMoney(req.Value)
	if value < 0 {
		http.Error(w, "value must be non-negative", http.StatusBadRequest)
		return
	}

	job := models.Job{
		Address:          req.Address,
		CustomerName:     req.CustomerName,
		CustomerPhone:    strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		Value:            value,
		Status:           status,
		AssigneeName:     req.AssigneeName,
		AssigneeInitials: display.Initials(req.AssigneeName),
		Priority:         models.PriorityNormal,
	}

	id, err := h.jobRepo.CreateJob(r.Context(), &job)
	if err != nil {
		logger.Error("create job", slog.Any("err", err))
		http.Error(w, "failed to create job", http.StatusInternalServerError)
		return
	}

	h.appendActivity(r, id, models.ActivityJobCreated,
		fmt.Sprintf("%s created job at %s for %s", actorNameOr(r, "Someone"), job.Address, job.CustomerName))

	h.bus.Publish(feed.KeyJobs, feed.KeyActivityFeed, feed.JobActivity(id))

	writeJSON(w, createdResponse{ID: id}, http.StatusCreated)
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var status *models.JobStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.JobStatus(s)
		if !st.Valid() {
			http.Error(w, "invalid status filter", http.StatusBadRequest)
			return
		}
		status = &st
	}

	jobs, err := h.jobRepo.ListJobs(r.Context(), status)
	if err != nil {
		logger.Error("list jobs", slog.Any("err", err))
		http.Error(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	views := make([]jobView, len(jobs))
	for i, j := range jobs {
		views[i] = newJobView(j, now)
	}

	writeJSON(w, map[string]any{"items": views, "total": len(views)}, http.StatusOK)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := h.jobRepo.GetJob(r.Context(), id)
	if err != nil {
		logger.Error("get job", slog.Any("err", err))
		http.Error(w, "failed to get job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	writeJSON(w, newJobView(*job, time.Now().UTC()), http.StatusOK)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *JobsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	status := models.JobStatus(req.Status)
	if !status.Valid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	if err := h.jobRepo.UpdateJobStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		logger.Error("update job status", slog.Any("err", err))
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	h.appendActivity(r, id, models.ActivityStatusChanged,
		fmt.Sprintf("%s moved job to %s", actorNameOr(r, "Someone"), status.Label()))

	h.bus.Publish(feed.KeyJobs, feed.KeyActivityFeed, feed.JobActivity(id))

	w.WriteHeader(http.StatusNoContent)
}

type updateAssigneeRequest struct {
	AssigneeName string `json:"assignee_name"`
}

func (h *JobsHandler) UpdateAssignee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateAssigneeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.AssigneeName)
	if name == "" {
		http.Error(w, "assignee name is required", http.StatusBadRequest)
		return
	}

	if err := h.jobRepo.UpdateJobAssignee(r.Context(), id, name, display.Initials(name)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		logger.Error("update job assignee", slog.Any("err", err))
		http.Error(w, "failed to update assignee", http.StatusInternalServerError)
		return
	}

	h.appendActivity(r, id, models.ActivityAssignedChanged,
		fmt.Sprintf("%s assigned job to %s", actorNameOr(r, "Someone"), name))

	h.bus.Publish(feed.KeyJobs, feed.KeyActivityFeed, feed.JobActivity(id))

	w.WriteHeader(http.StatusNoContent)
}

// appendActivity records an audit entry for a job mutation. Failures degrade
// to a logged warning; the mutation itself already succeeded.
func (h *JobsHandler) appendActivity(r *http.Request, jobID string, typ models.ActivityType, summary string) {
	a := &models.Activity{JobID: jobID, Type: typ, Summary: summary}
	if actor := ActorFromContext(r.Context()); actor != nil {
		a.ActorUserID = actor.UserID
		a.ActorName = actor.Name
		a.ActorInitials = actor.Initials
	}
	if _, err := h.activityRepo.AppendActivity(r.Context(), a); err != nil {
		logger.Warn("append job activity", slog.String("job_id", jobID), slog.Any("err", err))
	}
}

func actorNameOr(r *http.Request, fallback string) string {
	if actor := ActorFromContext(r.Context()); actor != nil && actor.Name != "" {
		return actor.Name
	}
	return fallback
}

// parseMoney coerces the form's value field to a non-negative dollar amount,
// falling back to zero for blanks and garbage.
func parseMoney(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(val), "$"))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
