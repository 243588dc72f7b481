package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/CodyCMAC/cmac-jobforge/internal/display"
	"github.com/CodyCMAC/cmac-jobforge/internal/pulse"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
	"github.com/CodyCMAC/cmac-jobforge/pkg/repository"
)

type ActivityHandler struct {
	activityRepo repository.ActivityRepo
}

func NewActivityHandler(ar repository.ActivityRepo) *ActivityHandler {
	return &ActivityHandler{activityRepo: ar}
}

// activityView is one feed line with its glyph and relative time attached.
type activityView struct {
	models.Activity
	Glyph      pulse.Glyph `json:"glyph"`
	CreatedAgo string      `json:"created_ago"`
}

// ListFeed serves the global activity feed, newest first, with job context
// joined in. Filters: types (comma list), limit (default 50, max 500).
func (h *ActivityHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var types []models.ActivityType
	if raw := q.Get("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				// unknown values are legal filters that match nothing
				types = append(types, models.ActivityType(part))
			}
		}
	}

	limit := 50
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	entries, err := h.activityRepo.ListFeed(r.Context(), types, limit)
	if err != nil {
		logger.Error("list activity feed", slog.Any("err", err))
		http.Error(w, "failed to list activity", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"items": annotate(entries), "total": len(entries)}, http.StatusOK)
}

// ListJobActivity serves one job's recent entries, newest first.
func (h *ActivityHandler) ListJobActivity(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	entries, err := h.activityRepo.ListJobActivity(r.Context(), jobID, limit)
	if err != nil {
		logger.Error("list job activity", slog.String("job_id", jobID), slog.Any("err", err))
		http.Error(w, "failed to list activity", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"items": annotate(entries), "total": len(entries)}, http.StatusOK)
}

func annotate(entries []models.Activity) []activityView {
	now := time.Now().UTC()
	views := make([]activityView, len(entries))
	for i, a := range entries {
		views[i] = activityView{
			Activity:   a,
			Glyph:      pulse.GlyphFor(a.Type),
			CreatedAgo: display.TimeAgo(time.UnixMilli(a.Created), now),
		}
	}
	return views
}
