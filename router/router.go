// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/anonvote/handlers"
	"github.com/danielhkuo/anonvote/middleware"
	"github.com/danielhkuo/anonvote/store"
)

func NewRouter(st store.Store, recompute handlers.Recomputer) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	submissionHandler := handlers.NewSubmissionHandler(st, recompute)
	resultsHandler := handlers.NewResultsHandler(st, recompute)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Submission funnel (incremental trigger)
	mux.HandleFunc("POST /submissions", middleware.WithLogging(submissionHandler.SubmitVote))

	// Full revalidate and retally (registry-change trigger)
	mux.HandleFunc("POST /recompute", middleware.WithLogging(resultsHandler.Recompute))

	// Read side
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /ledger", middleware.WithLogging(resultsHandler.GetLedger))
	mux.HandleFunc("GET /ledger/{public_id}", middleware.WithLogging(resultsHandler.GetLedger))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("anonvote API v1"))
	})

	return mux
}
