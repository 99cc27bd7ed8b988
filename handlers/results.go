// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/anonvote/middleware"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/store"
)

type ResultsHandler struct {
	results   store.ResultReader
	recompute Recomputer
}

func NewResultsHandler(results store.ResultReader, recompute Recomputer) *ResultsHandler {
	return &ResultsHandler{results: results, recompute: recompute}
}

// Recompute handles POST /recompute
// With ?wait=true the call blocks until a run that started after it
// finishes and returns that tally.
func (h *ResultsHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		h.recompute.Trigger(ReasonRegistry)
		middleware.JSONResponse(w, http.StatusAccepted, models.RecomputeResponse{
			Message: "Recompute scheduled",
		})
		return
	}

	res, err := h.recompute.RunNow(r.Context(), ReasonRegistry)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.RecomputeResponse{
		Message: "Recompute finished",
		Result:  &res,
	})
}

// GetResults handles GET /results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.results.LatestResult(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// GetLedger handles GET /ledger and GET /ledger/{public_id}
// The public id (path or ?public_id=) lets a voter find their own rows;
// ?status= keeps one final status.
func (h *ResultsHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	votes, err := h.results.Ledger(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	publicID := r.PathValue("public_id")
	if publicID == "" {
		publicID = q.Get("public_id")
	}
	publicID = models.PadPublicID(publicID)
	status := q.Get("status")

	out := make([]models.ValidatedVote, 0, len(votes))
	for _, v := range votes {
		if publicID != "" && v.PublicID != publicID {
			continue
		}
		if status != "" && string(v.FinalStatus) != status {
			continue
		}
		out = append(out, v)
	}
	middleware.JSONResponse(w, http.StatusOK, out)
}
