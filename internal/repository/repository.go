package repository

import (
	"sort"
	"sync"
	"time"

	model "auction-bidsync/internal/models"
)

// RosterDB defines storage for the members connected to an auction
type RosterDB interface {
	ReplaceMembers(members []model.Member)
	Members() []model.Member
	Member(userID int64) (model.Member, bool)
	UpdatedAt() time.Time
}

// MemoryRoster is a concurrency-safe in-memory implementation of RosterDB.
// The roster is only ever replaced wholesale, never patched.
type MemoryRoster struct {
	mu        sync.RWMutex
	members   []model.Member         // server order, deduplicated by user id
	byUser    map[int64]model.Member // key: userID -> value: member
	updatedAt time.Time
	now       func() time.Time
}

// NewMemoryRoster creates an empty roster
func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{
		byUser: make(map[int64]model.Member),
		now:    time.Now,
	}
}

// ReplaceMembers swaps the whole roster. Later duplicates of a user id are dropped.
func (r *MemoryRoster) ReplaceMembers(members []model.Member) {
	byUser := make(map[int64]model.Member, len(members))
	ordered := make([]model.Member, 0, len(members))
	for _, m := range members {
		if _, dup := byUser[m.UserID]; dup {
			continue
		}
		byUser[m.UserID] = m
		ordered = append(ordered, m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = ordered
	r.byUser = byUser
	r.updatedAt = r.now()
}

// Members returns a copy of the roster in server order
func (r *MemoryRoster) Members() []model.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Member, len(r.members))
	copy(out, r.members)
	return out
}

// Member looks up one member by user id
func (r *MemoryRoster) Member(userID int64) (model.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byUser[userID]
	return m, ok
}

// UpdatedAt reports when the roster was last replaced; zero if never
func (r *MemoryRoster) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

// SortedByName returns the roster ordered by display name, for presentation
func SortedByName(members []model.Member) []model.Member {
	out := append([]model.Member(nil), members...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
