// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the anonvote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	sched := recompute.NewScheduler(ctx, engine, logger)
	mux := router.NewRouter(st, sched)

# Endpoints

Health:

	GET /health

Triggers:

	POST /submissions            - Append one funnel row, schedule a recompute (202)
	POST /recompute              - Schedule a full revalidate and retally (202)
	POST /recompute?wait=true    - Run and return the fresh tally (200)

Read side:

	GET /results                 - Latest tally
	GET /ledger                  - Validated-vote ledger, no secrets
	GET /ledger/{public_id}      - Ledger rows for one public id
*/
package router
