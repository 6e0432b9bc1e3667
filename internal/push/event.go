package push

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// Event names bound by the reconciler
const (
	EventActiveItem      = "active-item-event"
	EventBid             = "bid-event"
	EventMembers         = "auction-members"
	EventAuctionState    = "active-auction-event-"
	EventAuctionStateAll = "active-auction-event-all"

	// EventReconnected is synthesised by a transport after it re-establishes
	// its subscriptions; anything published while it was down is lost.
	EventReconnected = "transport:reconnected"
)

// Event is one push notification. Data is the decoded JSON payload.
type Event struct {
	Channel    string
	Name       string
	Data       json.RawMessage
	ReceivedAt time.Time
}

// Dispatcher receives events. Transports call it from a single goroutine.
type Dispatcher func(Event)

// Subscriber delivers events for a set of channels until ctx is cancelled.
// Delivery is at-least-once with no ordering across event names.
type Subscriber interface {
	Run(ctx context.Context, channels []string, dispatch Dispatcher) error
}

// AuctionStateEventFor is the per-user auction start/stop event name
func AuctionStateEventFor(userID int64) string {
	return EventAuctionState + strconv.FormatInt(userID, 10)
}
