// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the anonvote API.

# Handler Types

  - SubmissionHandler: the submission funnel (POST /submissions)
  - ResultsHandler: recompute triggers and the read side (tally, ledger)

Handlers take the store interfaces they need and a Recomputer, which
*recompute.Scheduler implements:

	sched := recompute.NewScheduler(ctx, engine, logger)
	submissions := handlers.NewSubmissionHandler(st, sched)
	results := handlers.NewResultsHandler(st, sched)

# Submissions

A submission is stored exactly as received and answered with 202. Nothing
about the credential is checked here; the next recompute classifies it.
Race 2 may arrive as a list (race_2_selections) or as free text (race_2),
which is split on commas, semicolons and newlines.

# Recompute

Both triggers share one scheduler, so a burst of submissions collapses into
at most one follow-up run. POST /recompute?wait=true blocks until a run that
started after the request finishes.

# Secrets

Secrets are never logged or echoed. The ledger exposes recomputed public
keys only.
*/
package handlers
