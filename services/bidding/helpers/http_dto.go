package helpers

import "github.com/shopspring/decimal"

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type BidResponse struct {
	ItemID      int64  `json:"item_id"`
	Amount      string `json:"amount"`
	WinningHint *bool  `json:"winning_hint,omitempty"`
	Message     string `json:"server_message,omitempty"`
}

type MemberResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type ItemResponse struct {
	ID                  int64         `json:"id"`
	Name                string        `json:"name"`
	Seed                string        `json:"seed"`
	Region              string        `json:"region"`
	StartingBid         string        `json:"starting_bid"`
	MinimumBidIncrement string        `json:"minimum_bid_increment"`
	SoldTo              *int64        `json:"sold_to,omitempty"`
	Bids                []BidSnapshot `json:"bids"`
}

type BidSnapshot struct {
	UserID    int64  `json:"user_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type SessionResponse struct {
	SessionID         string        `json:"session_id"`
	AuctionID         string        `json:"auction_id"`
	ViewerID          int64         `json:"viewer_id"`
	Members           int           `json:"members"`
	Ended             bool          `json:"ended"`
	State             string        `json:"state"`
	ActiveItemID      int64         `json:"active_item_id"`
	Item              *ItemResponse `json:"item,omitempty"`
	CurrentMinimumBid string        `json:"current_minimum_bid,omitempty"`
	IsViewerWinning   bool          `json:"is_viewer_winning"`
	LeadingBid        *BidSnapshot  `json:"leading_bid,omitempty"`
}
