package handler

import (
	"context"
	"fmt"
	"net/http"

	bidding "auction-bidsync/internal/biddingService"
	model "auction-bidsync/internal/models"
	"auction-bidsync/internal/session"
	"auction-bidsync/services/bidding/helpers"
	"auction-bidsync/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SessionServiceInterface interface {
	View() session.View
	Members() []model.Member
	PlaceBid(ctx context.Context, amount *decimal.Decimal) (bidding.Outcome, error)
	Refresh(ctx context.Context) error
	Leave(ctx context.Context) error
}

type SessionHandler struct {
	service SessionServiceInterface
}

func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

// GetSessionHandler handles GET /session
func (h *SessionHandler) GetSessionHandler(c *gin.Context) {
	view := h.service.View()
	utils.JSONResponse(c, http.StatusOK, helpers.ToSessionResponse(view), "session retrieved successfully")
}

// GetMembersHandler handles GET /session/members
func (h *SessionHandler) GetMembersHandler(c *gin.Context) {
	members := h.service.Members()

	resp := make([]helpers.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, helpers.MemberResponse{UserID: m.UserID, Name: m.Name})
	}

	utils.JSONResponse(c, http.StatusOK, resp, "members retrieved successfully")
}

// PlaceBidHandler handles POST /session/bids. An empty body or a missing
// amount bids the current minimum.
func (h *SessionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.HandleBindError(c, "PlaceBidHandler", err)
			return
		}
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		helpers.HandleBindError(c, "PlaceBidHandler", fmt.Errorf("amount must be positive, got %s", req.Amount.String()))
		return
	}

	out, err := h.service.PlaceBid(c.Request.Context(), req.Amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"handler": "PlaceBidHandler",
			"status":  status,
			"error":   err.Error(),
		})
		return
	}

	resp := helpers.BidResponse{
		ItemID:      out.ItemID,
		Amount:      out.Amount.StringFixed(2),
		WinningHint: out.WinningHint,
		Message:     out.Message,
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"item_id": out.ItemID,
		"amount":  resp.Amount,
	})
}

// RefreshHandler handles POST /session/refresh
func (h *SessionHandler) RefreshHandler(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("RefreshHandler: resync failed", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToSessionResponse(h.service.View()), "session refreshed successfully")
}

// LeaveHandler handles POST /session/leave
func (h *SessionHandler) LeaveHandler(c *gin.Context) {
	if err := h.service.Leave(c.Request.Context()); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("LeaveHandler: leave failed", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "left auction successfully")
	helpers.LogSuccess("LeaveHandler", "left auction successfully", nil)
}
