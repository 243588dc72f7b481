package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/CodyCMAC/cmac-jobforge/internal/feed"
	"github.com/CodyCMAC/cmac-jobforge/internal/pulse"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
	"github.com/CodyCMAC/cmac-jobforge/pkg/repository"
)

type CommentsHandler struct {
	commentRepo repository.CommentRepo
	bus         *feed.Bus
}

func NewCommentsHandler(cr repository.CommentRepo, bus *feed.Bus) *CommentsHandler {
	return &CommentsHandler{commentRepo: cr, bus: bus}
}

type createCommentRequest struct {
	Body            string  `json:"body"`
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

// commentView carries the per-viewer eligibility flags alongside the row, so
// the client never re-implements the edit/delete rules.
type commentView struct {
	models.Comment
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func (h *CommentsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	comments, err := h.commentRepo.ListComments(r.Context(), jobID)
	if err != nil {
		logger.Error("list comments", slog.Any("err", err))
		http.Error(w, "failed to list comments", http.StatusInternalServerError)
		return
	}

	var viewerID string
	if actor := ActorFromContext(r.Context()); actor != nil {
		viewerID = actor.UserID
	}

	now := time.Now().UTC()
	views := make([]commentView, len(comments))
	for i := range comments {
		views[i] = commentView{
			Comment:   comments[i],
			CanEdit:   pulse.CanEdit(&comments[i], viewerID, now),
			CanDelete: pulse.CanDelete(&comments[i], viewerID),
		}
	}

	writeJSON(w, map[string]any{"items": views, "total": len(views)}, http.StatusOK)
}

func (h *CommentsHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	actor := ActorFromContext(r.Context())
	if actor == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		http.Error(w, "comment body is required", http.StatusBadRequest)
		return
	}

	comment := models.Comment{
		JobID:           jobID,
		AuthorUserID:    actor.UserID,
		AuthorName:      actor.Name,
		AuthorInitials:  actor.Initials,
		Body:            body,
		ParentCommentID: req.ParentCommentID,
	}

	id, err := h.commentRepo.CreateComment(r.Context(), &comment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		logger.Error("create comment", slog.Any("err", err))
		http.Error(w, "failed to create comment", http.StatusInternalServerError)
		return
	}

	// a comment touches its thread, both feeds, and the denormalized job row
	h.bus.Publish(feed.JobComments(jobID), feed.JobActivity(jobID), feed.KeyActivityFeed, feed.KeyJobs)

	writeJSON(w, createdResponse{ID: id}, http.StatusCreated)
}

func (h *CommentsHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	actor := ActorFromContext(r.Context())
	if actor == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		http.Error(w, "comment body is required", http.StatusBadRequest)
		return
	}

	comment, err := h.commentRepo.GetComment(r.Context(), id)
	if err != nil {
		logger.Error("get comment", slog.Any("err", err))
		http.Error(w, "failed to update comment", http.StatusInternalServerError)
		return
	}
	if comment == nil || comment.IsDeleted {
		http.Error(w, "comment not found", http.StatusNotFound)
		return
	}

	if !pulse.CanEdit(comment, actor.UserID, time.Now().UTC()) {
		http.Error(w, "comment can no longer be edited", http.StatusForbidden)
		return
	}

	if err := h.commentRepo.UpdateCommentBody(r.Context(), id, body); err != nil {
		logger.Error("update comment", slog.Any("err", err))
		http.Error(w, "failed to update comment", http.StatusInternalServerError)
		return
	}

	h.bus.Publish(feed.JobComments(comment.JobID))

	w.WriteHeader(http.StatusNoContent)
}

func (h *CommentsHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	actor := ActorFromContext(r.Context())
	if actor == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	comment, err := h.commentRepo.GetComment(r.Context(), id)
	if err != nil {
		logger.Error("get comment", slog.Any("err", err))
		http.Error(w, "failed to delete comment", http.StatusInternalServerError)
		return
	}
	if comment == nil || comment.IsDeleted {
		http.Error(w, "comment not found", http.StatusNotFound)
		return
	}

	if !pulse.CanDelete(comment, actor.UserID) {
		http.Error(w, "only the author can delete a comment", http.StatusForbidden)
		return
	}

	if err := h.commentRepo.SoftDeleteComment(r.Context(), id); err != nil {
		logger.Error("delete comment", slog.Any("err", err))
		http.Error(w, "failed to delete comment", http.StatusInternalServerError)
		return
	}

	// comment counts are denormalized onto the job list
	h.bus.Publish(feed.JobComments(comment.JobID), feed.KeyJobs)

	w.WriteHeader(http.StatusNoContent)
}
