package api_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/CodyCMAC/cmac-jobforge/api"
	"github.com/CodyCMAC/cmac-jobforge/internal/feed"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
	"github.com/CodyCMAC/cmac-jobforge/pkg/repository/mock"
)

func newCommentsHandler(t *testing.T) (*api.CommentsHandler, *mock.Mocks, *feed.Bus) {
	t.Helper()
	mocks := mock.NewMocks()
	bus := feed.NewBus(nil)
	t.Cleanup(bus.Close)
	return api.NewCommentsHandler(mocks.CommentRepo, bus), mocks, bus
}

func TestCreateComment(t *testing.T) {
	h, mocks, bus := newCommentsHandler(t)

	events, cancel := bus.Subscribe(4)
	defer cancel()

	// no actor means no comment
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/v1/jobs/j1/comments", jsonBody(t, map[string]string{"body": "hi"})), map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h.CreateComment(w, req)
	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", w.Result().StatusCode)
	}

	// blank body is rejected
	req = mux.SetURLVars(actorRequest(http.MethodPost, "/v1/jobs/j1/comments", jsonBody(t, map[string]string{"body": "   "})), map[string]string{"id": "j1"})
	w = httptest.NewRecorder()
	h.CreateComment(w, req)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank body, got %d", w.Result().StatusCode)
	}
	if len(mocks.CommentRepo.Comments) != 0 {
		t.Fatalf("rejected request must not store a comment")
	}

	// success stamps the author and invalidates all four caches
	req = mux.SetURLVars(actorRequest(http.MethodPost, "/v1/jobs/j1/comments", jsonBody(t, map[string]string{"body": "Looks good, let's proceed"})), map[string]string{"id": "j1"})
	w = httptest.NewRecorder()
	h.CreateComment(w, req)
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d", w.Result().StatusCode)
	}

	stored := mocks.CommentRepo.Comments[0]
	if stored.AuthorUserID != "user-1" || stored.AuthorName != "Alice Smith" || stored.AuthorInitials != "AS" {
		t.Fatalf("expected author stamped from actor, got %#v", stored)
	}
	if stored.JobID != "j1" {
		t.Fatalf("unexpected job id %q", stored.JobID)
	}

	select {
	case ev := <-events:
		for _, k := range []feed.Key{feed.JobComments("j1"), feed.JobActivity("j1"), feed.KeyActivityFeed, feed.KeyJobs} {
			if !ev.Has(k) {
				t.Fatalf("expected key %q in event, got %v", k, ev.Keys)
			}
		}
	default:
		t.Fatalf("expected a feed event after create")
	}

	// a missing job is a 404
	mocks.CommentRepo.CreateErr = sql.ErrNoRows
	req = mux.SetURLVars(actorRequest(http.MethodPost, "/v1/jobs/missing/comments", jsonBody(t, map[string]string{"body": "hi"})), map[string]string{"id": "missing"})
	w = httptest.NewRecorder()
	h.CreateComment(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing job, got %d", w.Result().StatusCode)
	}
}

func TestListComments_ViewerFlags(t *testing.T) {
	h, mocks, _ := newCommentsHandler(t)

	now := time.Now().UTC()
	mocks.CommentRepo.Comments = []models.Comment{
		{ID: "c1", JobID: "j1", AuthorUserID: "user-1", Body: "mine, fresh", Created: now.Add(-1 * time.Minute).UnixMilli()},
		{ID: "c2", JobID: "j1", AuthorUserID: "user-1", Body: "mine, old", Created: now.Add(-1 * time.Hour).UnixMilli()},
		{ID: "c3", JobID: "j1", AuthorUserID: "user-2", Body: "someone else's", Created: now.UnixMilli()},
	}

	req := mux.SetURLVars(actorRequest(http.MethodGet, "/v1/jobs/j1/comments", nil), map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h.ListComments(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Result().StatusCode)
	}

	var resp struct {
		Items []struct {
			ID        string `json:"id"`
			CanEdit   bool   `json:"can_edit"`
			CanDelete bool   `json:"can_delete"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("expected 3 comments, got %d", resp.Total)
	}

	flags := map[string][2]bool{}
	for _, it := range resp.Items {
		flags[it.ID] = [2]bool{it.CanEdit, it.CanDelete}
	}
	// a fresh own comment is editable and deletable
	if flags["c1"] != [2]bool{true, true} {
		t.Fatalf("unexpected flags for c1: %v", flags["c1"])
	}
	// the edit window has closed but delete has no time bound
	if flags["c2"] != [2]bool{false, true} {
		t.Fatalf("unexpected flags for c2: %v", flags["c2"])
	}
	// other authors' comments are untouchable
	if flags["c3"] != [2]bool{false, false} {
		t.Fatalf("unexpected flags for c3: %v", flags["c3"])
	}
}

func TestUpdateComment(t *testing.T) {
	h, mocks, bus := newCommentsHandler(t)

	now := time.Now().UTC()
	mocks.CommentRepo.Comments = []models.Comment{
		{ID: "c1", JobID: "j1", AuthorUserID: "user-1", Body: "fresh", Created: now.Add(-1 * time.Minute).UnixMilli()},
		{ID: "c2", JobID: "j1", AuthorUserID: "user-1", Body: "stale", Created: now.Add(-10 * time.Minute).UnixMilli()},
		{ID: "c3", JobID: "j1", AuthorUserID: "user-2", Body: "not mine", Created: now.UnixMilli()},
		{ID: "c4", JobID: "j1", AuthorUserID: "user-1", Body: "gone", IsDeleted: true, Created: now.UnixMilli()},
	}

	events, cancel := bus.Subscribe(4)
	defer cancel()

	edit := func(id, body string) *httptest.ResponseRecorder {
		req := mux.SetURLVars(actorRequest(http.MethodPatch, "/v1/comments/"+id, jsonBody(t, map[string]string{"body": body})), map[string]string{"id": id})
		w := httptest.NewRecorder()
		h.UpdateComment(w, req)
		return w
	}

	// inside the window
	if w := edit("c1", "fresh, edited"); w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Result().StatusCode)
	}
	got, _ := mocks.CommentRepo.GetComment(nil, "c1")
	if got.Body != "fresh, edited" {
		t.Fatalf("expected edited body, got %q", got.Body)
	}
	select {
	case ev := <-events:
		if !ev.Has(feed.JobComments("j1")) {
			t.Fatalf("expected thread key, got %v", ev.Keys)
		}
	default:
		t.Fatalf("expected a feed event after edit")
	}

	// window closed
	if w := edit("c2", "too late"); w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", w.Result().StatusCode)
	}
	// not the author
	if w := edit("c3", "hijack"); w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", w.Result().StatusCode)
	}
	// deleted reads as missing
	if w := edit("c4", "resurrect"); w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Result().StatusCode)
	}
	if w := edit("missing", "x"); w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Result().StatusCode)
	}
}

func TestDeleteComment(t *testing.T) {
	h, mocks, bus := newCommentsHandler(t)

	now := time.Now().UTC()
	mocks.CommentRepo.Comments = []models.Comment{
		{ID: "c1", JobID: "j1", AuthorUserID: "user-1", Body: "mine, old", Created: now.Add(-48 * time.Hour).UnixMilli()},
		{ID: "c2", JobID: "j1", AuthorUserID: "user-2", Body: "not mine", Created: now.UnixMilli()},
	}

	events, cancel := bus.Subscribe(4)
	defer cancel()

	del := func(id string) *httptest.ResponseRecorder {
		req := mux.SetURLVars(actorRequest(http.MethodDelete, "/v1/comments/"+id, nil), map[string]string{"id": id})
		w := httptest.NewRecorder()
		h.DeleteComment(w, req)
		return w
	}

	// age does not matter for delete, only authorship
	if w := del("c1"); w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Result().StatusCode)
	}
	got, _ := mocks.CommentRepo.GetComment(nil, "c1")
	if !got.IsDeleted {
		t.Fatalf("expected comment soft-deleted")
	}
	select {
	case ev := <-events:
		if !ev.Has(feed.JobComments("j1")) || !ev.Has(feed.KeyJobs) {
			t.Fatalf("expected thread and jobs keys, got %v", ev.Keys)
		}
	default:
		t.Fatalf("expected a feed event after delete")
	}

	if w := del("c2"); w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", w.Result().StatusCode)
	}
	// already deleted reads as missing
	if w := del("c1"); w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Result().StatusCode)
	}
	if w := del("missing"); w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Result().StatusCode)
	}

	// no actor, no delete
	req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/v1/comments/c2", nil), map[string]string{"id": "c2"})
	w := httptest.NewRecorder()
	h.DeleteComment(w, req)
	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", w.Result().StatusCode)
	}
}
