package bidding

import (
	"context"
	"fmt"

	"auction-bidsync/internal/biddingerrors"
	"auction-bidsync/internal/models"
	"auction-bidsync/internal/tracker"
	"auction-bidsync/utils"

	"github.com/shopspring/decimal"
)

// BidPlacer submits bids to the auction service
type BidPlacer interface {
	PlaceBid(ctx context.Context, auctionID string, itemID int64, amount decimal.Decimal) (models.BidResult, error)
}

// ItemReader exposes the read side of the active item tracker
type ItemReader interface {
	ActiveItem() (models.AuctionItem, bool)
	ViewerID() int64
}

// Outcome describes an accepted bid. WinningHint echoes the server's optimistic
// flag and is only fit for immediate feedback; the tracker stays authoritative.
type Outcome struct {
	ItemID      int64           `json:"itemId"`
	Amount      decimal.Decimal `json:"amount"`
	WinningHint *bool           `json:"winningHint,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// BiddingService submits bids for one auction session. It never writes to the
// tracker and does not queue or deduplicate concurrent submissions.
type BiddingService struct {
	api       BidPlacer
	items     ItemReader
	auctionID string
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(api BidPlacer, items ItemReader, auctionID string) *BiddingService {
	return &BiddingService{
		api:       api,
		items:     items,
		auctionID: auctionID,
	}
}

// PlaceBid submits amount for itemID and reports the server's verdict
func (s *BiddingService) PlaceBid(ctx context.Context, itemID int64, amount decimal.Decimal) (Outcome, error) {
	if err := s.validateBid(itemID, amount); err != nil {
		return Outcome{}, err
	}

	res, err := s.api.PlaceBid(ctx, s.auctionID, itemID, amount)
	if err != nil {
		utils.Error("bid submission failed", map[string]any{
			"auction_id": s.auctionID,
			"item_id":    itemID,
			"amount":     amount.StringFixed(2),
			"error":      err.Error(),
		})
		return Outcome{}, fmt.Errorf("service: failed to place bid on item %d: %w", itemID, err)
	}

	if !res.Status {
		utils.Warn("bid rejected by server", map[string]any{
			"auction_id": s.auctionID,
			"item_id":    itemID,
			"amount":     amount.StringFixed(2),
			"reason":     res.Message,
		})
		return Outcome{}, &biddingerrors.BidRejectedError{Message: res.Message}
	}

	utils.Info("bid accepted", map[string]any{
		"auction_id": s.auctionID,
		"item_id":    itemID,
		"amount":     amount.StringFixed(2),
	})
	return Outcome{ItemID: itemID, Amount: amount, WinningHint: res.Winning, Message: res.Message}, nil
}

// PlaceBidOnActive bids on the tracked item. A nil amount defaults to the
// current minimum bid derived from the tracker's latest snapshot.
func (s *BiddingService) PlaceBidOnActive(ctx context.Context, amount *decimal.Decimal) (Outcome, error) {
	item, ok := s.items.ActiveItem()
	if !ok {
		return Outcome{}, fmt.Errorf("service: %w - nothing is open for bidding", biddingerrors.ErrNoActiveItem)
	}

	bid := tracker.DeriveBidState(item, s.items.ViewerID()).CurrentMinimumBid
	if amount != nil {
		bid = *amount
	}
	return s.PlaceBid(ctx, item.ID, bid)
}

// validateBid checks what the client can know without asking the server
func (s *BiddingService) validateBid(itemID int64, amount decimal.Decimal) error {
	if itemID <= models.NoItemID {
		return fmt.Errorf("service: %w - item id %d", biddingerrors.ErrNoActiveItem, itemID)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}
	return nil
}
