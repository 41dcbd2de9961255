// ABOUTME: Common storage errors
// ABOUTME: Enables consistent error handling across the session and history stores

package storage

import "errors"

// ErrNotFound is returned when a requested session does not exist or its
// stored record could not be read.
var ErrNotFound = errors.New("not found")
