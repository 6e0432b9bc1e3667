package auctionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"auction-bidsync/internal/biddingerrors"
	"auction-bidsync/internal/models"
	"auction-bidsync/utils"

	"github.com/shopspring/decimal"
)

const maxErrorBody = 4 << 10

// Client talks to the external auction service. Every call is bounded by the
// request timeout even when the caller's context has no deadline.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token issued by the identity provider
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type placeBidRequest struct {
	BidAmount decimal.Decimal `json:"bidAmount"`
}

// Join attaches the viewer to an auction. The server tolerates repeated joins.
func (c *Client) Join(ctx context.Context, auctionID string) error {
	return c.do(ctx, http.MethodGet, auctionPath(auctionID, "join"), nil, nil)
}

// Leave detaches userID from an auction
func (c *Client) Leave(ctx context.Context, auctionID string, userID int64) error {
	return c.do(ctx, http.MethodPost, auctionPath(auctionID, strconv.FormatInt(userID, 10), "leave"), nil, nil)
}

// GetAuction fetches the auction summary including the active item id
func (c *Client) GetAuction(ctx context.Context, auctionID string) (models.AuctionSummary, error) {
	var summary models.AuctionSummary
	err := c.do(ctx, http.MethodGet, auctionPath(auctionID, "get-by-id"), nil, &summary)
	return summary, err
}

// GetActiveItem fetches one item with its bids, newest first
func (c *Client) GetActiveItem(ctx context.Context, auctionID string, itemID int64) (models.AuctionItem, error) {
	var item models.AuctionItem
	err := c.do(ctx, http.MethodGet, auctionPath(auctionID, strconv.FormatInt(itemID, 10), "get-active-item"), nil, &item)
	return item, err
}

// GetMembers fetches the full member roster of an auction
func (c *Client) GetMembers(ctx context.Context, auctionID string) ([]models.Member, error) {
	var records []models.MemberRecord
	if err := c.do(ctx, http.MethodGet, auctionPath(auctionID, "members"), nil, &records); err != nil {
		return nil, err
	}
	members := make([]models.Member, 0, len(records))
	for _, r := range records {
		members = append(members, r.Member())
	}
	return members, nil
}

// PlaceBid submits a bid. A business-rule rejection is returned as a result with
// Status false, whether the server reports it with 200 or with an error status.
func (c *Client) PlaceBid(ctx context.Context, auctionID string, itemID int64, amount decimal.Decimal) (models.BidResult, error) {
	var result models.BidResult
	err := c.do(ctx, http.MethodPost, auctionPath(auctionID, strconv.FormatInt(itemID, 10), "bid"), placeBidRequest{BidAmount: amount}, &result)

	var apiErr *biddingerrors.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		var rejected models.BidResult
		if json.Unmarshal([]byte(apiErr.Body), &rejected) == nil && !rejected.Status && rejected.Message != "" {
			return rejected, nil
		}
	}
	return result, err
}

func auctionPath(auctionID string, parts ...string) string {
	p := "/auctions/" + url.PathEscape(auctionID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("auctionapi: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("auctionapi: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", utils.NewRequestID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auctionapi: %s %s: %w: %w", method, path, biddingerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &biddingerrors.APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("auctionapi: decode %s %s: %w: %w", method, path, biddingerrors.ErrUpstream, err)
	}
	return nil
}
