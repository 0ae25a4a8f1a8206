// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrConflict indicates that a conditional
// seat update lost a race against a concurrent writer, while
// ErrSeatNotFound signals that the requested seat does not exist.
package repository

import "errors"

// ErrSeatNotFound is returned when no seat exists under the requested
// identifier. Handlers should translate this into an HTTP 404 response.
var ErrSeatNotFound = errors.New("seat not found")

// ErrReservationNotFound is returned when no reservation exists under
// the requested identifier. Handlers should translate this into an
// HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrConflict is returned when a compare-and-set write finds that the
// seat's state changed between read and write. The losing writer must
// not be silently overwritten; callers decide whether to compensate or
// surface the conflict. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")
