// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package recompute turns stored submissions into a ledger and a tally.

Compute is the pure core: same snapshot, same submissions, same options,
same output. Engine.Run wraps it with I/O at both ends:

 1. Read one credential snapshot and the submission list
 2. Compute
 3. Write the validated-vote ledger
 4. Overwrite raw secrets with their recomputed keys
 5. Write the tally result

Transient store errors restart the run from step 1 with exponential
backoff. A tally configuration error still leaves the ledger written.

Scheduler serializes runs. A new submission and a registry change both
call Trigger; triggers that arrive during a run collapse into a single
follow-up run.
*/
package recompute
