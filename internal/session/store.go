package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"auction-bidsync/internal/models"
	"auction-bidsync/internal/repository"
	"auction-bidsync/utils"
)

// MembershipAPI is the part of the auction service the store talks to
type MembershipAPI interface {
	Join(ctx context.Context, auctionID string) error
	Leave(ctx context.Context, auctionID string, userID int64) error
	GetMembers(ctx context.Context, auctionID string) ([]models.Member, error)
}

// Store records which auction the viewer is attached to and who else is there
type Store struct {
	api           MembershipAPI
	roster        repository.RosterDB
	auctionID     string
	userID        int64
	beaconTimeout time.Duration

	left    atomic.Bool
	beacons sync.WaitGroup
}

// NewStore creates a store for one viewer in one auction
func NewStore(api MembershipAPI, roster repository.RosterDB, auctionID string, userID int64, beaconTimeout time.Duration) *Store {
	return &Store{
		api:           api,
		roster:        roster,
		auctionID:     auctionID,
		userID:        userID,
		beaconTimeout: beaconTimeout,
	}
}

// AuctionID is the auction this store is attached to
func (s *Store) AuctionID() string { return s.auctionID }

// UserID is the viewer
func (s *Store) UserID() int64 { return s.userID }

// Join tells the server the viewer is present. Repeated joins are left to the
// server to deduplicate.
func (s *Store) Join(ctx context.Context) error {
	if err := s.api.Join(ctx, s.auctionID); err != nil {
		utils.Warn("join failed", map[string]any{"auction_id": s.auctionID, "user_id": s.userID, "error": err.Error()})
		return fmt.Errorf("session: join auction %s: %w", s.auctionID, err)
	}
	s.left.Store(false)
	utils.Info("joined auction", map[string]any{"auction_id": s.auctionID, "user_id": s.userID})
	return nil
}

// Leave detaches the viewer and waits for the server to acknowledge
func (s *Store) Leave(ctx context.Context) error {
	if !s.left.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.api.Leave(ctx, s.auctionID, s.userID); err != nil {
		s.left.Store(false)
		return fmt.Errorf("session: leave auction %s: %w", s.auctionID, err)
	}
	utils.Info("left auction", map[string]any{"auction_id": s.auctionID, "user_id": s.userID})
	return nil
}

// LeaveBeacon sends the leave notification without waiting for it. It returns
// immediately, never retries, and its outcome is only visible in debug logs.
func (s *Store) LeaveBeacon() {
	if !s.left.CompareAndSwap(false, true) {
		return
	}
	s.beacons.Add(1)
	go func() {
		defer s.beacons.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.Debug("leave beacon panicked", map[string]any{"panic": fmt.Sprint(r)})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.beaconTimeout)
		defer cancel()
		err := s.api.Leave(ctx, s.auctionID, s.userID)
		utils.Debug("leave beacon sent", map[string]any{"auction_id": s.auctionID, "user_id": s.userID, "delivered": err == nil})
	}()
}

// FlushBeacons waits up to timeout for outstanding beacons, so a process that
// is about to exit gives them a chance to leave the machine.
func (s *Store) FlushBeacons(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.beacons.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// FetchMembers replaces the roster with the server's list. On failure the
// previous roster is kept.
func (s *Store) FetchMembers(ctx context.Context) ([]models.Member, error) {
	members, err := s.api.GetMembers(ctx, s.auctionID)
	if err != nil {
		return nil, fmt.Errorf("session: fetch members of %s: %w", s.auctionID, err)
	}
	s.roster.ReplaceMembers(members)
	return s.roster.Members(), nil
}

// Members returns the last fetched roster
func (s *Store) Members() []models.Member {
	return s.roster.Members()
}
