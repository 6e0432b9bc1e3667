package tracker

import (
	"auction-bidsync/internal/models"
)

// DeriveBidState computes the viewer's view of an item. It trusts the server's
// newest-first bid order and never re-sorts.
func DeriveBidState(item models.AuctionItem, viewerID int64) models.ViewerBidState {
	if len(item.Bids) == 0 {
		return models.ViewerBidState{
			CurrentMinimumBid: item.StartingBid,
			IsViewerWinning:   false,
		}
	}

	leading := item.Bids[0]
	return models.ViewerBidState{
		CurrentMinimumBid: leading.BidAmount.Add(item.MinimumBidIncrement),
		IsViewerWinning:   leading.UserID == viewerID,
		LeadingBid:        &leading,
	}
}
