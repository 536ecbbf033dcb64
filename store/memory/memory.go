/*
Package memory provides an in-memory Store for tests and development.

The aggregation views are computed by scanning the event slice on every
query. That is exactly the consistency contract of the interface - derived,
recomputed answers - just without the indexes a real database would keep.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubtab/clubtab/ledger"
)

type Store struct {
	mu        sync.RWMutex
	members   map[string]ledger.Member
	events    []ledger.Event
	eventIdx  map[string]int
	snapshots map[string]ledger.Snapshot
}

func New() *Store {
	return &Store{
		members:   make(map[string]ledger.Member),
		eventIdx:  make(map[string]int),
		snapshots: make(map[string]ledger.Snapshot),
	}
}

// =============================================================================
// MEMBERS
// =============================================================================

func (s *Store) SaveMember(_ context.Context, m *ledger.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.members[m.Email]
	if exists {
		if stored.Rev != m.Rev {
			return ledger.ErrConcurrencyConflict
		}
		m.Rev++
	} else {
		m.Rev = 1
	}
	s.members[m.Email] = *m
	return nil
}

func (s *Store) GetMember(_ context.Context, email string) (ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[email]
	if !ok {
		return ledger.Member{}, &ledger.NotFoundError{Kind: "member", Key: email}
	}
	return m, nil
}

func (s *Store) GetMemberBySwish(_ context.Context, swish string) (ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.Swish != "" && m.Swish == swish {
			return m, nil
		}
	}
	return ledger.Member{}, &ledger.NotFoundError{Kind: "member", Key: swish}
}

func (s *Store) DeleteMember(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[email]; !ok {
		return &ledger.NotFoundError{Kind: "member", Key: email}
	}
	delete(s.members, email)
	return nil
}

func (s *Store) ListMembers(_ context.Context) ([]ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) ListMembersByStatus(ctx context.Context, status ledger.Status) ([]ledger.Member, error) {
	all, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, m := range all {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) CountMembersByStatus(_ context.Context) (map[ledger.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[ledger.Status]int, len(ledger.Statuses))
	for _, status := range ledger.Statuses {
		counts[status] = 0
	}
	for _, m := range s.members {
		counts[m.Status]++
	}
	return counts, nil
}

// =============================================================================
// EVENTS
// =============================================================================

func (s *Store) AddEvent(_ context.Context, ev ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventIdx[ev.ID]; ok {
		return ledger.ErrConcurrencyConflict
	}
	s.eventIdx[ev.ID] = len(s.events)
	s.events = append(s.events, ev)
	return nil
}

func (s *Store) GetEvent(_ context.Context, id string) (ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.eventIdx[id]
	if !ok {
		return ledger.Event{}, &ledger.NotFoundError{Kind: "event", Key: id}
	}
	return s.events[i], nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIdx[id]
	if !ok {
		return &ledger.NotFoundError{Kind: "event", Key: id}
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	delete(s.eventIdx, id)
	for j := i; j < len(s.events); j++ {
		s.eventIdx[s.events[j].ID] = j
	}
	return nil
}

func (s *Store) EventsByAccount(_ context.Context, account string, limit int) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Event
	for _, ev := range s.events {
		if ev.Account == account {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Log.Timestamp.After(out[j].Log.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func inRange(d, from, to ledger.Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

func sortByDate(events []ledger.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Log.Timestamp.Before(events[j].Log.Timestamp)
	})
}

func (s *Store) EventsInRange(_ context.Context, from, to ledger.Date) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Event
	for _, ev := range s.events {
		if inRange(ev.Date, from, to) {
			out = append(out, ev)
		}
	}
	sortByDate(out)
	return out, nil
}

func (s *Store) EventsByAction(_ context.Context, action ledger.Action, from, to ledger.Date) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Event
	for _, ev := range s.events {
		if ev.Action == action && inRange(ev.Date, from, to) {
			out = append(out, ev)
		}
	}
	sortByDate(out)
	return out, nil
}

func (s *Store) HasEvents(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ev := range s.events {
		if ev.Account == account {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (s *Store) CreateSnapshot(_ context.Context, snap ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := snap.Date.String()
	if _, ok := s.snapshots[key]; ok {
		return ledger.ErrConcurrencyConflict
	}
	s.snapshots[key] = snap
	return nil
}

func (s *Store) GetSnapshot(_ context.Context, date ledger.Date) (ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[date.String()]
	if !ok {
		return ledger.Snapshot{}, &ledger.NotFoundError{Kind: "snapshot", Key: date.String()}
	}
	return snap, nil
}

func (s *Store) SnapshotsInRange(_ context.Context, from, to ledger.Date) ([]ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Snapshot
	for _, snap := range s.snapshots {
		if inRange(snap.Date, from, to) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// OverwriteSnapshot implements ledger.SnapshotMaintenance.
func (s *Store) OverwriteSnapshot(_ context.Context, snap ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := snap.Date.String()
	if _, ok := s.snapshots[key]; !ok {
		return &ledger.NotFoundError{Kind: "snapshot", Key: key}
	}
	s.snapshots[key] = snap
	return nil
}

// =============================================================================
// AGGREGATION VIEWS
// =============================================================================

func (s *Store) CreditOf(_ context.Context, account string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, ev := range s.events {
		if ev.Account == account {
			sum = sum.Add(ev.Credit)
		}
	}
	return sum, nil
}

func (s *Store) CreditByAccount(_ context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]decimal.Decimal)
	for _, ev := range s.events {
		out[ev.Account] = out[ev.Account].Add(ev.Credit)
	}
	return out, nil
}

func (s *Store) CreditTotal(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, ev := range s.events {
		sum = sum.Add(ev.Credit)
	}
	return sum, nil
}

func (s *Store) PurchaseCount(_ context.Context, account string, date ledger.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ev := range s.events {
		if ev.Action == ledger.ActionPurchase && ev.Account == account && ev.Date.Equal(date) {
			count++
		}
	}
	return count, nil
}

func (s *Store) LedgerTotalThrough(_ context.Context, date ledger.Date) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, ev := range s.events {
		if !ev.Date.After(date) {
			sum = sum.Add(ev.Credit)
		}
	}
	return sum, nil
}

func (s *Store) RecentActivity(_ context.Context, since time.Time) ([]ledger.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]time.Time)
	for _, ev := range s.events {
		if ev.Credit.IsZero() || ev.Log.Timestamp.Before(since) {
			continue
		}
		if ev.Log.Timestamp.After(latest[ev.Account]) {
			latest[ev.Account] = ev.Log.Timestamp
		}
	}
	out := make([]ledger.Activity, 0, len(latest))
	for account, at := range latest {
		out = append(out, ledger.Activity{Account: account, Latest: at})
	}
	return out, nil
}
