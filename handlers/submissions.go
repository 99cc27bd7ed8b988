// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/anonvote/ingest"
	"github.com/danielhkuo/anonvote/middleware"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/store"
)

// Recomputer schedules validate-then-tally runs. *recompute.Scheduler
// implements it.
type Recomputer interface {
	Trigger(reason string)
	RunNow(ctx context.Context, reason string) (models.TallyResult, error)
}

// Trigger reasons, logged by the scheduler.
const (
	ReasonSubmission = "submission"
	ReasonRegistry   = "registry"
)

type SubmissionHandler struct {
	submissions store.SubmissionStore
	recompute   Recomputer
	now         func() time.Time
}

func NewSubmissionHandler(submissions store.SubmissionStore, recompute Recomputer) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		recompute:   recompute,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SubmitVote handles POST /submissions
// Rows are stored as received and stamped with the server clock; credential
// checks happen in the next recompute.
func (h *SubmissionHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PublicID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "public_id is required")
		return
	}

	race2 := req.Race2Selections
	if len(race2) == 0 && req.Race2Text != "" {
		race2 = ingest.SplitSelections(req.Race2Text)
	}

	sub := models.VoteSubmission{
		ID:              uuid.NewString(),
		PublicID:        req.PublicID,
		SubmittedSecret: req.Secret,
		Timestamp:       h.now(),
		Race1Rankings:   req.Race1Rankings,
		Race2Selections: race2,
	}
	if err := h.submissions.AppendSubmission(r.Context(), &sub); err != nil {
		middleware.WriteError(w, err)
		return
	}

	// Never log the secret.
	slog.Info("submission received", "submission_id", sub.ID, "seq", sub.Seq)
	h.recompute.Trigger(ReasonSubmission)

	middleware.JSONResponse(w, http.StatusAccepted, models.SubmitVoteResponse{
		SubmissionID: sub.ID,
		Message:      "Submission accepted; validation runs asynchronously",
	})
}
