// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recompute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/store"
)

// DefaultMaxTries bounds whole-run retries on transient store errors.
const DefaultMaxTries = 5

// Engine runs Compute between one snapshot read and one result write.
type Engine struct {
	Credentials  store.CredentialStore
	Submissions  store.SubmissionStore
	Results      store.ResultWriter
	MasterSecret string
	Options      Options

	// MaxTries and RetryInterval tune the retry policy. Zero uses defaults.
	MaxTries      uint
	RetryInterval time.Duration

	Logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// Run reads one credential snapshot and the submission list, computes, then
// writes the ledger and the tally and scrubs raw secrets. Transient store
// errors restart the whole run; nothing is resumed halfway.
func (e *Engine) Run(ctx context.Context) (models.TallyResult, error) {
	if e.MasterSecret == "" {
		return models.TallyResult{}, fmt.Errorf("%w: master secret is required", models.ErrConfiguration)
	}
	logger := resolveLogger(e.Logger)

	b := backoff.NewExponentialBackOff()
	if e.RetryInterval > 0 {
		b.InitialInterval = e.RetryInterval
	}
	tries := e.MaxTries
	if tries == 0 {
		tries = DefaultMaxTries
	}

	return backoff.Retry(ctx, func() (models.TallyResult, error) {
		res, err := e.runOnce(ctx, logger)
		if err != nil && !errors.Is(err, models.ErrTransientStore) {
			return res, backoff.Permanent(err)
		}
		return res, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("recompute failed, retrying", "error", err, "wait", wait)
		}),
	)
}

func (e *Engine) runOnce(ctx context.Context, logger *slog.Logger) (models.TallyResult, error) {
	runID := e.id()
	start := e.clock()

	snap, err := e.Credentials.Snapshot(ctx)
	if err != nil {
		return models.TallyResult{}, err
	}
	subs, err := e.Submissions.Submissions(ctx)
	if err != nil {
		return models.TallyResult{}, err
	}

	out, computeErr := Compute(Input{
		Snapshot:     snap,
		Submissions:  subs,
		MasterSecret: e.MasterSecret,
		Options:      e.Options,
	})
	if computeErr != nil && out.Votes == nil {
		return models.TallyResult{}, computeErr
	}

	// The ledger stands even when the tally is misconfigured.
	if err := e.Results.WriteLedger(ctx, runID, out.Votes); err != nil {
		return models.TallyResult{}, err
	}
	if err := e.scrub(ctx, subs, out.Votes); err != nil {
		return models.TallyResult{}, err
	}
	if computeErr != nil {
		logger.Error("tally failed", "run_id", runID, "error", computeErr)
		return models.TallyResult{}, computeErr
	}

	res := out.Result
	res.RunID = runID
	res.ComputedAt = e.clock()
	if err := e.Results.WriteResult(ctx, res); err != nil {
		return models.TallyResult{}, err
	}

	logger.Info("recompute finished",
		"run_id", runID,
		"submissions", len(subs),
		"countable", res.Summary.CountableVotes,
		"active_credentials", res.Summary.ActiveCredentials,
		"duration", e.clock().Sub(start),
	)
	return res, nil
}

// scrub overwrites every raw secret that was just validated.
func (e *Engine) scrub(ctx context.Context, subs []models.VoteSubmission, votes []models.ValidatedVote) error {
	keys := make(map[string]string, len(votes))
	for _, v := range votes {
		keys[v.SubmissionID] = v.RecomputedPublicKey
	}
	for _, sub := range subs {
		if sub.SecretDigested {
			continue
		}
		err := e.Submissions.ScrubSecret(ctx, sub.ID, keys[sub.ID])
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now().UTC()
}

func (e *Engine) id() string {
	if e.newID != nil {
		return e.newID()
	}
	return uuid.NewString()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
