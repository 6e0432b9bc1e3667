package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"auction-bidsync/internal/biddingerrors"
	"auction-bidsync/internal/models"
	"auction-bidsync/internal/push"
	"auction-bidsync/internal/tracker"
	"auction-bidsync/utils"
)

// ItemTracker is the write side of the active item tracker
type ItemTracker interface {
	Begin(itemID int64) *tracker.Pending
	BeginIf(version uint64, itemID int64) (*tracker.Pending, bool)
	Version() uint64
	Clear()
	ActiveItemID() int64
}

// MemberRefresher replaces the member roster from the server
type MemberRefresher interface {
	FetchMembers(ctx context.Context) ([]models.Member, error)
}

// AuctionFetcher loads the auction summary used for a full resync
type AuctionFetcher interface {
	GetAuction(ctx context.Context, auctionID string) (models.AuctionSummary, error)
}

// Reconciler turns push events into tracker and roster refreshes. Payload data
// is only used to pick what to fetch; it is never applied as state.
type Reconciler struct {
	auctionID string
	viewerID  int64
	items     ItemTracker
	members   MemberRefresher
	auctions  AuctionFetcher
	onEnded   func()

	ended atomic.Bool
	wg    sync.WaitGroup
}

// New creates a reconciler for one auction session. onEnded runs at most once,
// when the auction is announced as stopped.
func New(auctionID string, viewerID int64, items ItemTracker, members MemberRefresher, auctions AuctionFetcher, onEnded func()) *Reconciler {
	return &Reconciler{
		auctionID: auctionID,
		viewerID:  viewerID,
		items:     items,
		members:   members,
		auctions:  auctions,
		onEnded:   onEnded,
	}
}

// Channels lists the push channels the session must subscribe to
func Channels(auctionChannel, globalChannel string) []string {
	if globalChannel == "" || globalChannel == auctionChannel {
		return []string{auctionChannel}
	}
	return []string{auctionChannel, globalChannel}
}

// Dispatch handles one event. Loads take their place in line synchronously,
// in event order, and fetch in the background; use Wait to block until they
// settle. Dispatch must not be called concurrently with itself.
func (r *Reconciler) Dispatch(ctx context.Context, e push.Event) {
	if r.ended.Load() {
		return
	}

	switch {
	case e.Name == push.EventActiveItem:
		r.handleActiveItem(ctx, e)
	case e.Name == push.EventBid:
		r.handleBid(ctx, e)
	case e.Name == push.EventMembers:
		r.spawn(func() { r.refreshMembers(ctx) })
	case e.Name == push.EventAuctionStateAll || e.Name == push.AuctionStateEventFor(r.viewerID):
		r.handleAuctionState(e)
	case strings.HasPrefix(e.Name, push.EventAuctionState):
		// another viewer's private signal
	case e.Name == push.EventReconnected:
		r.spawn(func() {
			if err := r.Resync(ctx); err != nil {
				utils.Warn("resync after reconnect failed", map[string]any{"auction_id": r.auctionID, "error": err.Error()})
			}
		})
	default:
		utils.Debug("ignoring push event", map[string]any{"event": e.Name, "channel": e.Channel})
	}
}

// Resync replaces local state from the auction summary and member list. The
// summary only moves the tracker if no event moved it while the summary was
// being fetched.
func (r *Reconciler) Resync(ctx context.Context) error {
	version := r.items.Version()
	summary, err := r.auctions.GetAuction(ctx, r.auctionID)
	if err != nil {
		return fmt.Errorf("reconciler: resync auction %s: %w", r.auctionID, err)
	}
	pending, ok := r.items.BeginIf(version, summary.ActiveItemID)
	if !ok {
		utils.Debug("resync summary superseded by a newer event", map[string]any{
			"auction_id":   r.auctionID,
			"summary_item": summary.ActiveItemID,
			"tracked_item": r.items.ActiveItemID(),
		})
	}
	r.refreshMembers(ctx)
	r.resolve(ctx, pending, "resync")
	return nil
}

// Wait blocks until every fetch started by Dispatch has finished
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Ended reports whether the auction was announced as stopped
func (r *Reconciler) Ended() bool {
	return r.ended.Load()
}

func (r *Reconciler) handleActiveItem(ctx context.Context, e push.Event) {
	var p itemPayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		utils.Warn("malformed active item payload, clearing", map[string]any{"auction_id": r.auctionID, "error": err.Error()})
		r.items.Clear()
		return
	}
	if p.AuctionID != "" && string(p.AuctionID) != r.auctionID {
		return
	}

	r.begin(ctx, p.itemID(), e.Name)
}

func (r *Reconciler) handleBid(ctx context.Context, e push.Event) {
	itemID := r.items.ActiveItemID()
	if itemID == models.NoItemID {
		var p itemPayload
		if err := json.Unmarshal(e.Data, &p); err == nil && (p.AuctionID == "" || string(p.AuctionID) == r.auctionID) {
			itemID = p.itemID()
		}
	}
	if itemID == models.NoItemID {
		utils.Debug("bid event with no item to refresh", map[string]any{"auction_id": r.auctionID})
		return
	}
	r.begin(ctx, itemID, e.Name)
}

func (r *Reconciler) handleAuctionState(e push.Event) {
	var p auctionStatePayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		utils.Warn("malformed auction state payload", map[string]any{"event": e.Name, "error": err.Error()})
		return
	}
	if p.AuctionID != "" && string(p.AuctionID) != r.auctionID {
		return
	}
	if !p.ended() {
		return
	}
	if r.ended.CompareAndSwap(false, true) {
		utils.Info("auction ended", map[string]any{"auction_id": r.auctionID, "event": e.Name})
		if r.onEnded != nil {
			r.onEnded()
		}
	}
}

// begin claims the tracker for itemID now and fetches in the background.
// A sentinel id clears the tracker instead.
func (r *Reconciler) begin(ctx context.Context, itemID int64, cause string) {
	pending := r.items.Begin(itemID)
	if pending == nil {
		return
	}
	r.spawn(func() { r.resolve(ctx, pending, cause) })
}

func (r *Reconciler) resolve(ctx context.Context, pending *tracker.Pending, cause string) {
	err := pending.Resolve(ctx)
	switch {
	case err == nil:
	case errors.Is(err, biddingerrors.ErrStaleFetch):
		utils.Debug("discarded superseded item fetch", map[string]any{"item_id": pending.ItemID(), "cause": cause})
	default:
		utils.Warn("item fetch failed, no active item", map[string]any{
			"auction_id": r.auctionID,
			"item_id":    pending.ItemID(),
			"cause":      cause,
			"error":      err.Error(),
		})
	}
}

func (r *Reconciler) refreshMembers(ctx context.Context) {
	if _, err := r.members.FetchMembers(ctx); err != nil {
		utils.Warn("member refresh failed, keeping stale roster", map[string]any{"auction_id": r.auctionID, "error": err.Error()})
	}
}

func (r *Reconciler) spawn(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}
