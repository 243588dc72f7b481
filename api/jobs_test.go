package api_test

import (
	"bytes"
	"encoding/json"
	"io"
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

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

func actorRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	actor := &api.Actor{UserID: "user-1", Name: "Alice Smith", Initials: "AS"}
	return req.WithContext(api.WithActor(req.Context(), actor))
}

func TestCreateJob(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		check      func(t *testing.T, m *mock.Mocks)
	}{
		{
			name: "MinimalForm",
			body: map[string]any{
				"customer_name": "Jane Doe",
				"address":       "1 Main St",
				"assignee_name": "Bob Smith",
				"value":         "",
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, m *mock.Mocks) {
				job, _ := m.JobRepo.GetJob(nil, "job-1")
				if job == nil {
					t.Fatalf("job not stored")
				}
				if job.Value != 0 {
					t.Fatalf("expected zero value for blank input, got %v", job.Value)
				}
				if job.Status != models.StatusNew {
					t.Fatalf("expected new status, got %q", job.Status)
				}
				if job.AssigneeInitials != "BS" {
					t.Fatalf("expected derived initials BS, got %q", job.AssigneeInitials)
				}
			},
		},
		{
			name: "FormattedValue",
			body: map[string]any{
				"customer_name": "Dana Whitfield",
				"address":       "42 Maple Ave",
				"assignee_name": "Cody Viveiros",
				"value":         "$12,500.50",
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, m *mock.Mocks) {
				job, _ := m.JobRepo.GetJob(nil, "job-1")
				if job.Value != 12500.50 {
					t.Fatalf("expected parsed value 12500.50, got %v", job.Value)
				}
			},
		},
		{
			name: "NumericValue",
			body: map[string]any{
				"customer_name": "Dana Whitfield",
				"address":       "42 Maple Ave",
				"assignee_name": "Cody Viveiros",
				"value":         9000,
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, m *mock.Mocks) {
				job, _ := m.JobRepo.GetJob(nil, "job-1")
				if job.Value != 9000 {
					t.Fatalf("expected value 9000, got %v", job.Value)
				}
			},
		},
		{
			name: "GarbageValueFallsBackToZero",
			body: map[string]any{
				"customer_name": "Jane Doe",
				"address":       "1 Main St",
				"assignee_name": "Bob Smith",
				"value":         "about twelve grand",
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, m *mock.Mocks) {
				job, _ := m.JobRepo.GetJob(nil, "job-1")
				if job.Value != 0 {
					t.Fatalf("expected zero value for garbage input, got %v", job.Value)
				}
			},
		},
		{
			name: "NegativeValueRejected",
			body: map[string]any{
				"customer_name": "Jane Doe",
				"address":       "1 Main St",
				"assignee_name": "Bob Smith",
				"value":         -5,
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "MissingCustomerName",
			body: map[string]any{
				"address":       "1 Main St",
				"assignee_name": "Bob Smith",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "MissingAssignee",
			body: map[string]any{
				"customer_name": "Jane Doe",
				"address":       "1 Main St",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "InvalidStatus",
			body: map[string]any{
				"customer_name": "Jane Doe",
				"address":       "1 Main St",
				"assignee_name": "Bob Smith",
				"status":        "bogus",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := mock.NewMocks()
			bus := feed.NewBus(nil)
			defer bus.Close()
			h := api.NewJobsHandler(mocks.JobRepo, mocks.ActivityRepo, bus)

			events, cancel := bus.Subscribe(4)
			defer cancel()

			req := actorRequest(http.MethodPost, "/v1/jobs", jsonBody(t, tt.body))
			w := httptest.NewRecorder()
			h.CreateJob(w, req)

			res := w.Result()
			defer res.Body.Close()
			if res.StatusCode != tt.wantStatus {
				data, _ := io.ReadAll(res.Body)
				t.Fatalf("expected status %d got %d body=%s", tt.wantStatus, res.StatusCode, string(data))
			}

			if tt.wantStatus != http.StatusCreated {
				if len(mocks.JobRepo.Jobs) != 0 {
					t.Fatalf("rejected request must not store a job")
				}
				return
			}

			if tt.check != nil {
				tt.check(t, mocks)
			}

			// every create records an audit entry and invalidates the caches
			entries, _ := mocks.ActivityRepo.ListJobActivity(nil, "job-1", 10)
			if len(entries) != 1 || entries[0].Type != models.ActivityJobCreated {
				t.Fatalf("expected one job_created entry, got %#v", entries)
			}
			if entries[0].ActorName != "Alice Smith" {
				t.Fatalf("expected actor stamped on activity, got %#v", entries[0])
			}

			select {
			case ev := <-events:
				if !ev.Has(feed.KeyJobs) || !ev.Has(feed.KeyActivityFeed) || !ev.Has(feed.JobActivity("job-1")) {
					t.Fatalf("unexpected event keys: %v", ev.Keys)
				}
			default:
				t.Fatalf("expected a feed event after create")
			}
		})
	}
}

func TestListJobs(t *testing.T) {
	mocks := mock.NewMocks()
	bus := feed.NewBus(nil)
	defer bus.Close()
	h := api.NewJobsHandler(mocks.JobRepo, mocks.ActivityRepo, bus)

	now := time.Now().UTC().UnixMilli()
	mocks.JobRepo.SetJobs([]models.Job{
		{ID: "j1", Address: "1 Main St", CustomerName: "Jane Doe", Value: 18450, Status: models.StatusScheduled, Updated: now},
		{ID: "j2", Address: "2 Oak St", CustomerName: "Marcus Reed", Value: 0, Status: models.StatusNew, Updated: now},
	})

	req := actorRequest(http.MethodGet, "/v1/jobs", nil)
	w := httptest.NewRecorder()
	h.ListJobs(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Result().StatusCode)
	}

	var resp struct {
		Items []struct {
			ID           string `json:"id"`
			ValueDisplay string `json:"value_display"`
			StatusBadge  string `json:"status_badge"`
			UpdatedAgo   string `json:"updated_ago"`
			Age          struct {
				Label string `json:"label"`
				Tone  string `json:"tone"`
			} `json:"age"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %#v", resp)
	}
	if resp.Items[0].ValueDisplay != "$18,450.00" {
		t.Fatalf("unexpected value display %q", resp.Items[0].ValueDisplay)
	}
	if resp.Items[1].ValueDisplay != "$0.00" {
		t.Fatalf("unexpected value display %q", resp.Items[1].ValueDisplay)
	}
	if resp.Items[0].UpdatedAgo != "just now" {
		t.Fatalf("unexpected updated_ago %q", resp.Items[0].UpdatedAgo)
	}
	if resp.Items[0].Age.Label != "On track" {
		t.Fatalf("unexpected age label %q", resp.Items[0].Age.Label)
	}

	// status filter
	req = actorRequest(http.MethodGet, "/v1/jobs?status=new", nil)
	w = httptest.NewRecorder()
	h.ListJobs(w, req)
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode filtered response: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ID != "j2" {
		t.Fatalf("expected only j2, got %#v", resp)
	}

	// unknown filter is a 400
	req = actorRequest(http.MethodGet, "/v1/jobs?status=bogus", nil)
	w = httptest.NewRecorder()
	h.ListJobs(w, req)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad filter, got %d", w.Result().StatusCode)
	}
}

func TestGetJob(t *testing.T) {
	mocks := mock.NewMocks()
	bus := feed.NewBus(nil)
	defer bus.Close()
	h := api.NewJobsHandler(mocks.JobRepo, mocks.ActivityRepo, bus)

	mocks.JobRepo.SetJobs([]models.Job{{ID: "j1", Address: "1 Main St", CustomerName: "Jane Doe", Status: models.StatusNew}})

	req := mux.SetURLVars(actorRequest(http.MethodGet, "/v1/jobs/j1", nil), map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h.GetJob(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Result().StatusCode)
	}

	req = mux.SetURLVars(actorRequest(http.MethodGet, "/v1/jobs/missing", nil), map[string]string{"id": "missing"})
	w = httptest.NewRecorder()
	h.GetJob(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Result().StatusCode)
	}
}

func TestUpdateStatus(t *testing.T) {
	mocks := mock.NewMocks()
	bus := feed.NewBus(nil)
	defer bus.Close()
	h := api.NewJobsHandler(mocks.JobRepo, mocks.ActivityRepo, bus)

	mocks.JobRepo.SetJobs([]models.Job{{ID: "j1", Status: models.StatusNew}})

	req := mux.SetURLVars(actorRequest(http.MethodPatch, "/v1/jobs/j1/status", jsonBody(t, map[string]string{"status": "signed"})), map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h.UpdateStatus(w, req)
	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Result().StatusCode)
	}

	job, _ := mocks.JobRepo.GetJob(nil, "j1")
	if job.Status != models.StatusSigned {
		t.Fatalf("expected signed, got %q", job.Status)
	}

	entries, _ := mocks.ActivityRepo.ListJobActivity(nil, "j1", 10)
	if len(entries) != 1 || entries[0].Type != models.ActivityStatusChanged {
		t.Fatalf("expected status_changed entry, got %#v", entries)
	}
	if entries[0].Summary != "Alice Smith moved job to Signed" {
		t.Fatalf("unexpected summary %q", entries[0].Summary)
	}

	// invalid status
	req = mux.SetURLVars(actorRequest(http.MethodPatch, "/v1/jobs/j1/status", jsonBody(t, map[string]string{"status": "bogus"})), map[string]string{"id": "j1"})
	w = httptest.NewRecorder()
	h.UpdateStatus(w, req)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Result().StatusCode)
	}

	// missing job
	req = mux.SetURLVars(actorRequest(http.MethodPatch, "/v1/jobs/missing/status", jsonBody(t, map[string]string{"status": "signed"})), map[string]string{"id": "missing"})
	w = httptest.NewRecorder()
	h.UpdateStatus(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Result().StatusCode)
	}
}

func TestUpdateAssignee(t *testing.T) {
	mocks := mock.NewMocks()
	bus := feed.NewBus(nil)
	defer bus.Close()
	h := api.NewJobsHandler(mocks.JobRepo, mocks.ActivityRepo, bus)

	mocks.JobRepo.SetJobs([]models.Job{{ID: "j1", AssigneeName: "Old Name", AssigneeInitials: "ON"}})

	req := mux.SetURLVars(actorRequest(http.MethodPatch, "/v1/jobs/j1/assignee", jsonBody(t, map[string]string{"assignee_name": "Ray Ortiz"})), map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h.UpdateAssignee(w, req)
	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Result().StatusCode)
	}

	job, _ := mocks.JobRepo.GetJob(nil, "j1")
	if job.AssigneeName != "Ray Ortiz" || job.AssigneeInitials != "RO" {
		t.Fatalf("unexpected assignee: %#v", job)
	}

	entries, _ := mocks.ActivityRepo.ListJobActivity(nil, "j1", 10)
	if len(entries) != 1 || entries[0].Type != models.ActivityAssignedChanged {
		t.Fatalf("expected assigned_changed entry, got %#v", entries)
	}

	// blank name
	req = mux.SetURLVars(actorRequest(http.MethodPatch, "/v1/jobs/j1/assignee", jsonBody(t, map[string]string{"assignee_name": "  "})), map[string]string{"id": "j1"})
	w = httptest.NewRecorder()
	h.UpdateAssignee(w, req)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Result().StatusCode)
	}
}
