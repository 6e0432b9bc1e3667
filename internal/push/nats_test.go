package push

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-bidsync/internal/biddingerrors"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestNATSSubscriber_Subjects(t *testing.T) {
	t.Parallel()

	n := NewNATSSubscriber("nats://127.0.0.1:4222", "auctions")
	require.Equal(t, "auctions.auction-a1.bid-event", n.Subject("auction-a1", EventBid))

	tests := []struct {
		subject     string
		wantChannel string
		wantEvent   string
		wantOK      bool
	}{
		{subject: "auctions.auction-a1.bid-event", wantChannel: "auction-a1", wantEvent: EventBid, wantOK: true},
		{subject: "auctions.auctions.active-auction-event-all", wantChannel: "auctions", wantEvent: EventAuctionStateAll, wantOK: true},
		{subject: "other.auction-a1.bid-event"},
		{subject: "auctions.auction-a1"},
		{subject: "auctions.auction-a1.bid.event"},
		{subject: "auctions..bid-event"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.subject, func(t *testing.T) {
			t.Parallel()
			channel, event, ok := n.parseSubject(tc.subject)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantChannel, channel)
			require.Equal(t, tc.wantEvent, event)
		})
	}
}

func TestNATSSubscriber_UnreachableServer(t *testing.T) {
	t.Parallel()

	n := NewNATSSubscriber("nats://127.0.0.1:1", "auctions", nats.Timeout(200*time.Millisecond))
	err := n.Run(context.Background(), []string{"auction-a1"}, func(Event) {
		t.Error("nothing should be dispatched")
	})
	require.True(t, errors.Is(err, biddingerrors.ErrTransport), "got %v", err)
}
