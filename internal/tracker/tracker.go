package tracker

import (
	"context"
	"fmt"
	"sync"

	"auction-bidsync/internal/biddingerrors"
	"auction-bidsync/internal/models"

	"github.com/shopspring/decimal"
)

// State is the tracker's position in the active-item lifecycle
type State int

const (
	NoActiveItem State = iota
	ItemLoading
	ItemActive
)

func (s State) String() string {
	switch s {
	case NoActiveItem:
		return "no_active_item"
	case ItemLoading:
		return "item_loading"
	case ItemActive:
		return "item_active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText lets State render as its name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ItemFetcher loads one auction item from the authoritative source
type ItemFetcher interface {
	GetActiveItem(ctx context.Context, auctionID string, itemID int64) (models.AuctionItem, error)
}

// Snapshot is an immutable copy of the tracker at one version
type Snapshot struct {
	State    State                  `json:"state"`
	Version  uint64                 `json:"version"`
	ItemID   int64                  `json:"itemId"`
	Item     *models.AuctionItem    `json:"item,omitempty"`
	BidState *models.ViewerBidState `json:"bidState,omitempty"`
}

// Tracker holds the single client-visible answer to "which item is open for
// bidding". Only Begin/Resolve (Load) and Clear write to it. Each Begin or
// Clear bumps a version and a fetch that completes under an older version is
// discarded, so the last initiated load wins regardless of completion order.
type Tracker struct {
	fetcher   ItemFetcher
	auctionID string
	viewerID  int64
	onChange  func(Snapshot)

	mu      sync.RWMutex
	version uint64
	state   State
	itemID  int64
	item    *models.AuctionItem
}

// Option customises a Tracker
type Option func(*Tracker)

// WithOnChange registers a hook called after every applied transition.
// Hooks run outside the lock; use Snapshot.Version to order them.
func WithOnChange(fn func(Snapshot)) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// New creates a tracker in the NoActiveItem state
func New(fetcher ItemFetcher, auctionID string, viewerID int64, opts ...Option) *Tracker {
	t := &Tracker{
		fetcher:   fetcher,
		auctionID: auctionID,
		viewerID:  viewerID,
		state:     NoActiveItem,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Pending is a load that has taken its version token but not yet fetched.
// Taking the token and fetching are split so callers can order tokens by
// event arrival while running fetches concurrently.
type Pending struct {
	t      *Tracker
	token  uint64
	itemID int64
}

// ItemID is the item this load will fetch
func (p *Pending) ItemID() int64 {
	if p == nil {
		return models.NoItemID
	}
	return p.itemID
}

// Begin moves the tracker to ItemLoading for itemID and invalidates every
// earlier load. A non-positive id clears the tracker and returns nil.
func (t *Tracker) Begin(itemID int64) *Pending {
	if itemID <= models.NoItemID {
		t.Clear()
		return nil
	}

	t.mu.Lock()
	p := t.beginLocked(itemID)
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
	return p
}

// Version identifies the latest Begin or Clear. Pair it with BeginIf to act on
// data fetched outside the tracker only if nothing newer happened meanwhile.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// BeginIf is Begin (or Clear, for a non-positive id) applied only while the
// tracker is still at version. ok is false when a newer Begin or Clear won.
func (t *Tracker) BeginIf(version uint64, itemID int64) (p *Pending, ok bool) {
	t.mu.Lock()
	if t.version != version {
		t.mu.Unlock()
		return nil, false
	}
	if itemID <= models.NoItemID {
		t.version++
		t.resetLocked()
	} else {
		p = t.beginLocked(itemID)
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
	return p, true
}

func (t *Tracker) beginLocked(itemID int64) *Pending {
	t.version++
	p := &Pending{t: t, token: t.version, itemID: itemID}
	t.state = ItemLoading
	if t.item != nil && t.item.ID != itemID {
		t.item = nil
	}
	t.itemID = itemID
	return p
}

// Resolve fetches the item and replaces the tracked item atomically. On fetch
// failure the tracker drops to NoActiveItem. If a newer Begin or Clear
// happened meanwhile the result is discarded and ErrStaleFetch is returned.
// Resolving a nil Pending is a no-op.
func (p *Pending) Resolve(ctx context.Context) error {
	if p == nil {
		return nil
	}
	t := p.t

	item, err := t.fetcher.GetActiveItem(ctx, t.auctionID, p.itemID)
	if err == nil && item.ID <= models.NoItemID {
		err = fmt.Errorf("item %d resolved to an empty item: %w", p.itemID, biddingerrors.ErrNoActiveItem)
	}

	t.mu.Lock()
	if p.token != t.version {
		t.mu.Unlock()
		return fmt.Errorf("tracker: load item %d: %w", p.itemID, biddingerrors.ErrStaleFetch)
	}
	if err != nil {
		t.resetLocked()
		snap := t.snapshotLocked()
		t.mu.Unlock()
		t.notify(snap)
		return fmt.Errorf("tracker: load item %d: %w", p.itemID, err)
	}
	cloned := item.Clone()
	t.item = &cloned
	t.itemID = cloned.ID
	t.state = ItemActive
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
	return nil
}

// Load is Begin followed by Resolve
func (t *Tracker) Load(ctx context.Context, itemID int64) error {
	return t.Begin(itemID).Resolve(ctx)
}

// Clear drops the active item and invalidates any in-flight load
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.version++
	t.resetLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// Snapshot returns a copy of the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

// State returns the current lifecycle state
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// ActiveItemID returns the id being loaded or held, or NoItemID
func (t *Tracker) ActiveItemID() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.itemID
}

// ActiveItem returns a copy of the held item, if any
func (t *Tracker) ActiveItem() (models.AuctionItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.item == nil {
		return models.AuctionItem{}, false
	}
	return t.item.Clone(), true
}

// CurrentMinimumBid returns the smallest acceptable next bid for the held item
func (t *Tracker) CurrentMinimumBid() (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.item == nil {
		return decimal.Zero, false
	}
	return DeriveBidState(*t.item, t.viewerID).CurrentMinimumBid, true
}

// ViewerID is the user the derived state is computed for
func (t *Tracker) ViewerID() int64 { return t.viewerID }

func (t *Tracker) resetLocked() {
	t.state = NoActiveItem
	t.itemID = models.NoItemID
	t.item = nil
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := Snapshot{State: t.state, Version: t.version, ItemID: t.itemID}
	if t.item != nil {
		item := t.item.Clone()
		bid := DeriveBidState(item, t.viewerID)
		snap.Item = &item
		snap.BidState = &bid
	}
	return snap
}

func (t *Tracker) notify(snap Snapshot) {
	if t.onChange != nil {
		t.onChange(snap)
	}
}
