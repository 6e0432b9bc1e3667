package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	bidding "auction-bidsync/internal/biddingService"
	"auction-bidsync/internal/biddingerrors"
	"auction-bidsync/internal/models"
	"auction-bidsync/internal/push"
	"auction-bidsync/internal/reconciler"
	"auction-bidsync/internal/repository"
	"auction-bidsync/internal/tracker"
	"auction-bidsync/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// AuctionAPI is everything a session needs from the auction service
type AuctionAPI interface {
	MembershipAPI
	tracker.ItemFetcher
	bidding.BidPlacer
	reconciler.AuctionFetcher
}

// Options configures a session
type Options struct {
	AuctionID     string
	UserID        int64
	Channels      []string
	PollInterval  time.Duration
	BeaconTimeout time.Duration
	Clock         clockwork.Clock
	OnChange      func(tracker.Snapshot)
}

// Session is one viewer's attachment to one auction. It owns the store, the
// tracker, the bid submitter and the reconciler, and is the only thing that
// wires them together.
type Session struct {
	ID         string
	Store      *Store
	Tracker    *tracker.Tracker
	Bidding    *bidding.BiddingService
	Reconciler *reconciler.Reconciler

	subscriber   push.Subscriber
	channels     []string
	pollInterval time.Duration
	clock        clockwork.Clock

	ended     chan struct{}
	endOnce   sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
}

// View is a read-only picture of the session for presentation
type View struct {
	SessionID string           `json:"sessionId"`
	AuctionID string           `json:"auctionId"`
	ViewerID  int64            `json:"viewerId"`
	Members   int              `json:"members"`
	Ended     bool             `json:"ended"`
	Tracker   tracker.Snapshot `json:"tracker"`
}

// New assembles a session. sub may be nil, in which case only polling keeps
// the tracker fresh.
func New(api AuctionAPI, sub push.Subscriber, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.BeaconTimeout <= 0 {
		opts.BeaconTimeout = 2 * time.Second
	}

	var trackerOpts []tracker.Option
	if opts.OnChange != nil {
		trackerOpts = append(trackerOpts, tracker.WithOnChange(opts.OnChange))
	}

	s := &Session{
		ID:           uuid.NewString(),
		subscriber:   sub,
		channels:     opts.Channels,
		pollInterval: opts.PollInterval,
		clock:        opts.Clock,
		ended:        make(chan struct{}),
	}
	s.Store = NewStore(api, repository.NewMemoryRoster(), opts.AuctionID, opts.UserID, opts.BeaconTimeout)
	s.Tracker = tracker.New(api, opts.AuctionID, opts.UserID, trackerOpts...)
	s.Bidding = bidding.NewBiddingService(api, s.Tracker, opts.AuctionID)
	s.Reconciler = reconciler.New(opts.AuctionID, opts.UserID, s.Tracker, s.Store, api, s.onEnded)
	return s
}

// Open joins the auction and loads the initial state. A join failure is
// returned but the session stays usable; a failed initial load only logs.
func (s *Session) Open(ctx context.Context) error {
	joinErr := s.Store.Join(ctx)
	if err := s.Reconciler.Resync(ctx); err != nil {
		utils.Warn("initial sync failed", map[string]any{"session_id": s.ID, "error": err.Error()})
	}
	return joinErr
}

// Run keeps the session reconciled until ctx is cancelled, the auction ends
// (ErrAuctionEnded) or the transport fails permanently.
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.subscriber != nil {
		g.Go(func() error {
			return s.subscriber.Run(gctx, s.channels, func(e push.Event) {
				s.Reconciler.Dispatch(gctx, e)
			})
		})
	}

	if s.pollInterval > 0 {
		g.Go(func() error {
			s.poll(gctx)
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-s.ended:
			return biddingerrors.ErrAuctionEnded
		}
	})

	err := g.Wait()
	s.Reconciler.Wait()
	return err
}

// Refresh forces a full resync from the server. An ended auction stays
// cleared; a resync in flight when it ends yields to the clear.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	return s.Reconciler.Resync(ctx)
}

// live reports why the session can no longer talk to the auction, if it can't
func (s *Session) live() error {
	if s.closed.Load() {
		return biddingerrors.ErrSessionClosed
	}
	select {
	case <-s.ended:
		return biddingerrors.ErrAuctionEnded
	default:
		return nil
	}
}

// Members returns the last fetched roster, sorted by name
func (s *Session) Members() []models.Member {
	return repository.SortedByName(s.Store.Members())
}

// PlaceBid bids on the active item; a nil amount bids the current minimum
func (s *Session) PlaceBid(ctx context.Context, amount *decimal.Decimal) (bidding.Outcome, error) {
	if err := s.live(); err != nil {
		return bidding.Outcome{}, err
	}
	return s.Bidding.PlaceBidOnActive(ctx, amount)
}

// Leave detaches from the auction and waits for the server
func (s *Session) Leave(ctx context.Context) error {
	return s.Store.Leave(ctx)
}

// Close detaches from the auction without waiting. Safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.Store.LeaveBeacon()
	})
}

// Ended is closed once the auction is announced as stopped
func (s *Session) Ended() <-chan struct{} {
	return s.ended
}

// View snapshots the session
func (s *Session) View() View {
	select {
	case <-s.ended:
		return s.view(true)
	default:
		return s.view(false)
	}
}

func (s *Session) view(ended bool) View {
	return View{
		SessionID: s.ID,
		AuctionID: s.Store.AuctionID(),
		ViewerID:  s.Store.UserID(),
		Members:   len(s.Store.Members()),
		Ended:     ended,
		Tracker:   s.Tracker.Snapshot(),
	}
}

func (s *Session) onEnded() {
	s.endOnce.Do(func() {
		close(s.ended)
		s.Tracker.Clear()
		s.Store.LeaveBeacon()
	})
}

func (s *Session) poll(ctx context.Context) {
	ticker := s.clock.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ended:
			return
		case <-ticker.Chan():
			err := s.Refresh(ctx)
			switch {
			case err == nil:
			case errors.Is(err, biddingerrors.ErrAuctionEnded), errors.Is(err, biddingerrors.ErrSessionClosed):
				return
			default:
				utils.Warn("periodic resync failed", map[string]any{"session_id": s.ID, "error": err.Error()})
			}
		}
	}
}
