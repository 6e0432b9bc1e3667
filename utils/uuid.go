package utils

import (
	"github.com/google/uuid"
)

// NewRequestID returns a fresh id used to correlate outgoing requests in server logs
func NewRequestID() string {
	return uuid.NewString()
}
