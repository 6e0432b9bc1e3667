package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-bidsync/internal/biddingerrors"
	model "auction-bidsync/internal/models"
	"auction-bidsync/internal/session"
	"auction-bidsync/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message.
// Server-side bid rejections keep the server's message verbatim.
func MapErrorToHTTP(err error) (int, string) {
	var rejected *biddingerrors.BidRejectedError
	var apiErr *biddingerrors.APIError

	switch {
	case errors.As(err, &rejected):
		if rejected.Message == "" {
			return http.StatusConflict, "bid rejected"
		}
		return http.StatusConflict, rejected.Message
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrNoActiveItem):
		return http.StatusConflict, "no active item"
	case errors.Is(err, biddingerrors.ErrAuctionEnded):
		return http.StatusGone, "auction has ended"
	case errors.Is(err, biddingerrors.ErrSessionClosed):
		return http.StatusGone, "session closed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "auction service timed out"
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		return http.StatusNotFound, "not found upstream"
	case errors.Is(err, biddingerrors.ErrTransport), errors.Is(err, biddingerrors.ErrUpstream):
		return http.StatusBadGateway, "auction service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// ToSessionResponse flattens a session view for the wire
func ToSessionResponse(v session.View) SessionResponse {
	resp := SessionResponse{
		SessionID:    v.SessionID,
		AuctionID:    v.AuctionID,
		ViewerID:     v.ViewerID,
		Members:      v.Members,
		Ended:        v.Ended,
		State:        v.Tracker.State.String(),
		ActiveItemID: v.Tracker.ItemID,
	}
	if v.Tracker.Item != nil {
		item := ToItemResponse(*v.Tracker.Item)
		resp.Item = &item
	}
	if bs := v.Tracker.BidState; bs != nil {
		resp.CurrentMinimumBid = bs.CurrentMinimumBid.StringFixed(2)
		resp.IsViewerWinning = bs.IsViewerWinning
		if bs.LeadingBid != nil {
			lead := ToBidSnapshot(*bs.LeadingBid)
			resp.LeadingBid = &lead
		}
	}
	return resp
}

func ToItemResponse(item model.AuctionItem) ItemResponse {
	resp := ItemResponse{
		ID:                  item.ID,
		Name:                item.Name,
		Seed:                string(item.Seed),
		Region:              item.Region,
		StartingBid:         item.StartingBid.StringFixed(2),
		MinimumBidIncrement: item.MinimumBidIncrement.StringFixed(2),
		SoldTo:              item.SoldTo,
		Bids:                make([]BidSnapshot, 0, len(item.Bids)),
	}
	for _, b := range item.Bids {
		resp.Bids = append(resp.Bids, ToBidSnapshot(b))
	}
	return resp
}

func ToBidSnapshot(b model.Bid) BidSnapshot {
	return BidSnapshot{
		UserID:    b.UserID,
		Amount:    b.BidAmount.StringFixed(2),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
