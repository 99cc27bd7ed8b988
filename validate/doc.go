// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package validate classifies vote submissions against a credential snapshot
and resolves duplicates.

Classification checks run in a fixed order: unknown id, wrong secret,
revoked, valid. A revoked key presented with its own secret therefore
reports "credential revoked".

	status, key := validate.Classify(sub, snapshot, masterSecret)

Deduplicate walks one public id's submissions in arrival order. The first
valid, non-blank submission is countable; everything after it is a
duplicate. ValidateAll runs both steps for a whole submission list.
*/
package validate
