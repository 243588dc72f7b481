package api

import (
	"github.com/gorilla/mux"

	"github.com/CodyCMAC/cmac-jobforge/internal/config"
	"github.com/CodyCMAC/cmac-jobforge/internal/db"
	"github.com/CodyCMAC/cmac-jobforge/internal/feed"
	"github.com/CodyCMAC/cmac-jobforge/internal/pulse"
	"github.com/CodyCMAC/cmac-jobforge/internal/repository/sqlite"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB, bus *feed.Bus, refresher *pulse.Refresher) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(db, nil)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	jobsHandler := NewJobsHandler(repo, repo, bus)
	contactsHandler := NewContactsHandler(repo, bus)
	commentsHandler := NewCommentsHandler(repo, bus)
	activityHandler := NewActivityHandler(repo)
	pulseHandler := NewPulseHandler(refresher)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Jobs endpoints
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/status", jobsHandler.UpdateStatus).Methods("PATCH")
	apiV1.HandleFunc("/jobs/{id}/assignee", jobsHandler.UpdateAssignee).Methods("PATCH")

	// Contacts endpoints
	apiV1.HandleFunc("/contacts", contactsHandler.CreateContact).Methods("POST")
	apiV1.HandleFunc("/contacts", contactsHandler.ListContacts).Methods("GET")

	// Comments endpoints
	apiV1.HandleFunc("/jobs/{id}/comments", commentsHandler.ListComments).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/comments", commentsHandler.CreateComment).Methods("POST")
	apiV1.HandleFunc("/comments/{id}", commentsHandler.UpdateComment).Methods("PATCH")
	apiV1.HandleFunc("/comments/{id}", commentsHandler.DeleteComment).Methods("DELETE")

	// Activity endpoints
	apiV1.HandleFunc("/activity", activityHandler.ListFeed).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/activity", activityHandler.ListJobActivity).Methods("GET")

	// Pulse dashboard snapshot
	apiV1.HandleFunc("/pulse", pulseHandler.GetPulse).Methods("GET")

	return r
}
