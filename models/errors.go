// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration aborts a run; the master secret is never defaulted.
	ErrConfiguration = errors.New("configuration error")
	// ErrMalformedInput rejects a roster batch before any credential is issued.
	ErrMalformedInput = errors.New("malformed input")
	// ErrTallyConfiguration is fatal to the tally step only.
	ErrTallyConfiguration = errors.New("tally configuration error")
	// ErrTransientStore marks collaborator I/O failures; the run is retried whole.
	ErrTransientStore = errors.New("transient store error")
)

// StoreError wraps a failed store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransientStore) match any StoreError.
func (e *StoreError) Is(target error) bool {
	return target == ErrTransientStore
}

// WrapStore returns nil for a nil err.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
