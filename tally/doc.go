// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally scores countable ballots.

# Borda

A candidate at 0-based rank i earns N-i points, where N is the configured
maximum rank or, when unset, the size of the candidate universe. Ranks at
or beyond N earn nothing but still show up in the per-rank counts.

Rows are ordered by:

 1. Points (descending)
 2. Per-rank counts, compared rank by rank (descending)
 3. Candidate name (ascending, collated for the configured locale)

# Plurality

Each distinct name on a ballot earns one vote. Rows are ordered by votes
descending, then name.

Both methods return an empty scoreboard with Placeholder set when there
is nothing to count.
*/
package tally
