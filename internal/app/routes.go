package app

import (
	"github.com/gorilla/mux"

	"recorder-notifier/internal/handlers"
	"recorder-notifier/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, webhookPath string) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)

	// Webhook ingestion endpoint
	router.HandleFunc(webhookPath, h.HandleWebhook).Methods("POST")

	// Health check for external liveness probing
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
