// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware wraps the API's handlers and owns the JSON envelope.

Every route goes through WithLogging, which writes a single "http request"
line after the handler returns (method, path, remote, status, duration_ms).
Bodies are never logged since a submission carries the voter's secret.

	mux.HandleFunc("POST /submissions", middleware.WithLogging(h.SubmitVote))
	server := http.Server{Handler: middleware.CORS(mux)}

Handlers answer with JSONResponse and report failures through WriteError,
which turns the error kind into a status:

	store.ErrNotFound            404
	models.ErrMalformedInput     400
	models.ErrTallyConfiguration 422
	models.ErrTransientStore     503
	anything else                500

A 5xx body only says "internal error"; the cause is logged.
*/
package middleware
