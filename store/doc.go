// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists credentials, submissions and recompute output.

# Interfaces

Callers depend on the narrow interfaces (CredentialStore, IssuanceLog,
SubmissionStore, ResultWriter, ResultReader). Store bundles them for the
server process.

# Implementations

SQLStore runs on SQLite (modernc.org/sqlite, the default) or PostgreSQL
(lib/pq):

	s, err := store.Open("sqlite", "anonvote.db")
	s, err := store.Open("postgres", "postgres://...")

MemoryStore keeps everything in process memory for tests and dry runs.

# Caching

CachedCredentials wraps any CredentialStore with a TTL snapshot cache.
It is passed explicitly to whoever needs it; there is no package-level
cache.

# Errors

Driver failures are wrapped in models.StoreError, so
errors.Is(err, models.ErrTransientStore) holds. Lookups that match nothing
return ErrNotFound.
*/
package store
