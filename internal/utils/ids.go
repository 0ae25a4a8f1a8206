package utils // package utils provides small helpers shared across the service

import (
	"crypto/rand" // secure random number generation
	"encoding/hex"
)

// NewReservationID returns a random 20-byte hex identifier for a new
// reservation.  The original backend received document IDs from its
// datastore; here they are generated up front so the reservation row
// and the seat's current_reservation_id can be written in either
// order.
func NewReservationID() (string, error) {
	return randomHex(20)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  If the random number
// generator fails, an error is returned.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
