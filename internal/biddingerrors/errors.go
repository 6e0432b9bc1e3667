package biddingerrors

import (
	"errors"
	"fmt"
)

// Client-side validation errors
var (
	ErrInvalidBid    = errors.New("invalid bid")
	ErrNoActiveItem  = errors.New("no active item")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Upstream and transport errors
var (
	ErrBidRejected = errors.New("bid rejected")
	ErrTransport   = errors.New("transport failure")
	ErrUpstream    = errors.New("upstream error")
)

// Session lifecycle errors
var (
	ErrStaleFetch    = errors.New("stale fetch discarded")
	ErrSessionClosed = errors.New("session closed")
	ErrAuctionEnded  = errors.New("auction ended")
)

// BidRejectedError carries the server's human-readable rejection message verbatim
type BidRejectedError struct {
	Message string
}

func (e *BidRejectedError) Error() string {
	if e.Message == "" {
		return ErrBidRejected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrBidRejected, e.Message)
}

func (e *BidRejectedError) Unwrap() error { return ErrBidRejected }

// APIError is a non-2xx response from the auction service
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return ErrUpstream }
