package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/CodyCMAC/cmac-jobforge/internal/display"
	"github.com/CodyCMAC/cmac-jobforge/internal/feed"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
	"github.com/CodyCMAC/cmac-jobforge/pkg/repository"
)

type ContactsHandler struct {
	contactRepo repository.ContactRepo
	bus         *feed.Bus
}

func NewContactsHandler(cr repository.ContactRepo, bus *feed.Bus) *ContactsHandler {
	return &ContactsHandler{contactRepo: cr, bus: bus}
}

type createContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
	Label string `json:"label"`
	Job   string `json:"job"`
}

// contactView renders the table row shape: dashes for missing optionals and
// a short created date.
type contactView struct {
	models.Contact
	PhoneDisplay string `json:"phone_display"`
	JobDisplay   string `json:"job_display"`
	CreatedAgo   string `json:"created_ago"`
}

func (h *ContactsHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		http.Error(w, "name and email are required", http.StatusBadRequest)
		return
	}

	typ := models.ContactCustomer
	if req.Type != "" {
		typ = models.ContactType(req.Type)
		if !typ.Valid() {
			http.Error(w, "invalid contact type", http.StatusBadRequest)
			return
		}
	}

	contact := models.Contact{
		Name:  req.Name,
		Type:  typ,
		Label: strings.TrimSpace(req.Label),
		Email: req.Email,
		Phone: strings.TrimSpace(req.Phone),
		Job:   strings.TrimSpace(req.Job),
	}

	id, err := h.contactRepo.CreateContact(r.Context(), &contact)
	if err != nil {
		logger.Error("create contact", slog.Any("err", err))
		http.Error(w, "failed to create contact", http.StatusInternalServerError)
		return
	}

	h.bus.Publish(feed.KeyContacts)

	writeJSON(w, createdResponse{ID: id}, http.StatusCreated)
}

func (h *ContactsHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	var typ *models.ContactType
	if s := r.URL.Query().Get("type"); s != "" {
		t := models.ContactType(s)
		if !t.Valid() {
			http.Error(w, "invalid type filter", http.StatusBadRequest)
			return
		}
		typ = &t
	}

	contacts, err := h.contactRepo.ListContacts(r.Context(), typ)
	if err != nil {
		logger.Error("list contacts", slog.Any("err", err))
		http.Error(w, "failed to list contacts", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	views := make([]contactView, len(contacts))
	for i, c := range contacts {
		views[i] = contactView{
			Contact:      c,
			PhoneDisplay: dashIfEmpty(c.Phone),
			JobDisplay:   dashIfEmpty(c.Job),
			CreatedAgo:   display.TimeAgo(time.UnixMilli(c.Created), now),
		}
	}

	writeJSON(w, map[string]any{"items": views, "total": len(views)}, http.StatusOK)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
