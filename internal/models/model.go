package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NoItemID is the item id sentinel meaning "no item is open for bidding"
const NoItemID int64 = 0

// Member represents a viewer connected to an auction
type Member struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

// MemberRecord is the wire form returned by the members endpoint
type MemberRecord struct {
	UserID int64 `json:"userId"`
	User   struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

// Member flattens the wire record, preferring the nested user id when present
func (r MemberRecord) Member() Member {
	id := r.UserID
	if r.User.ID != 0 {
		id = r.User.ID
	}
	return Member{UserID: id, Name: r.User.Name}
}

// Bid represents an accepted bid on an auction item
type Bid struct {
	UserID    int64           `json:"userId"`
	BidAmount decimal.Decimal `json:"bidAmount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Seed is an item's bracket seed. Upstream sends it as a number or a string
// ("1", "16a"); both decode to the same textual form.
type Seed string

func (s *Seed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		*s = Seed(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	*s = Seed(num.String())
	return nil
}

// AuctionItem represents one lot of an auction. Bids are ordered newest-first.
type AuctionItem struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Seed                Seed            `json:"seed,omitempty"`
	Region              string          `json:"region,omitempty"`
	StartingBid         decimal.Decimal `json:"startingBid"`
	MinimumBidIncrement decimal.Decimal `json:"minimumBidIncrement"`
	SoldTo              *int64          `json:"soldTo"`
	Bids                []Bid           `json:"bids"`
}

// Clone returns a deep copy so callers can never alias tracker state
func (i AuctionItem) Clone() AuctionItem {
	out := i
	if i.SoldTo != nil {
		soldTo := *i.SoldTo
		out.SoldTo = &soldTo
	}
	out.Bids = append([]Bid(nil), i.Bids...)
	return out
}

// AuctionSummary is the response of the get-by-id endpoint
type AuctionSummary struct {
	Name         string        `json:"name"`
	StreamURL    string        `json:"streamUrl"`
	Items        []AuctionItem `json:"items"`
	ActiveItemID int64         `json:"activeItemId"`
}

// BidResult is the response of the place-bid endpoint.
// Winning is a hint only; authoritative state comes from the next item fetch.
type BidResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Winning *bool  `json:"winning,omitempty"`
}

// ViewerBidState is derived from the active item, never stored
type ViewerBidState struct {
	CurrentMinimumBid decimal.Decimal `json:"currentMinimumBid"`
	IsViewerWinning   bool            `json:"isViewerWinning"`
	LeadingBid        *Bid            `json:"leadingBid,omitempty"`
}
