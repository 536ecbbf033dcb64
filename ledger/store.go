/*
store.go - Persistence and aggregation-view contracts

PURPOSE:
  Defines the interface between the accounting core and the database. The
  store persists three document kinds (Member, Event, Snapshot) and serves
  the aggregation views recomputed from the event rows. Implementations may
  use SQLite aggregates or in-memory scans; what matters is the contract,
  above all the reconciliation invariant:

    sum(CreditByAccount over all accounts, sentinel included) == CreditTotal

CONCURRENCY:
  Members and snapshots use optimistic concurrency. A member save carries
  the revision it was read at; a mismatch is ErrConcurrencyConflict.
  Snapshot creation is unique per date; the second creator for the same
  date gets ErrConcurrencyConflict. Events get fresh ids and cannot
  conflict - AddEvent is the append-only write of the ledger.

CONSISTENCY:
  Views are derived from the event collection and may lag a just-written
  event by a short, bounded delay. Callers must re-query after a write
  rather than reuse a pre-write aggregate.

IMPLEMENTATIONS:
  - store/sqlite: production
  - store/memory: tests and development
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MEMBER STORE
// =============================================================================

type MemberStore interface {
	// SaveMember inserts or updates a member. For updates the member's Rev
	// must match the stored revision; on success the Rev is advanced.
	SaveMember(ctx context.Context, m *Member) error

	// GetMember returns the member with the given email (lowercased).
	GetMember(ctx context.Context, email string) (Member, error)

	// GetMemberBySwish returns the member with the given Swish number.
	GetMemberBySwish(ctx context.Context, swish string) (Member, error)

	// DeleteMember removes a member document. Callers enforce the
	// zero-events/non-admin rule before calling.
	DeleteMember(ctx context.Context, email string) error

	// ListMembers returns all members ordered by email.
	ListMembers(ctx context.Context) ([]Member, error)

	// ListMembersByStatus returns members with the given status, by email.
	ListMembersByStatus(ctx context.Context, status Status) ([]Member, error)

	// CountMembersByStatus returns the member count per status. Every
	// status appears in the result, zero counts included.
	CountMembersByStatus(ctx context.Context) (map[Status]int, error)
}

// =============================================================================
// EVENT STORE - Append-only
// =============================================================================

type EventStore interface {
	// AddEvent appends an event. Events are immutable once persisted.
	AddEvent(ctx context.Context, ev Event) error

	// GetEvent returns the event with the given id.
	GetEvent(ctx context.Context, id string) (Event, error)

	// DeleteEvent removes an event. This is the explicit admin correction
	// path; authorization is enforced by the caller.
	DeleteEvent(ctx context.Context, id string) error

	// EventsByAccount returns an account's events, newest first.
	// limit <= 0 means all.
	EventsByAccount(ctx context.Context, account string, limit int) ([]Event, error)

	// EventsInRange returns all events with business date in [from, to],
	// ordered by date then creation timestamp. A zero from or to is an
	// open bound.
	EventsInRange(ctx context.Context, from, to Date) ([]Event, error)

	// EventsByAction returns events of one action kind in [from, to],
	// ordered like EventsInRange.
	EventsByAction(ctx context.Context, action Action, from, to Date) ([]Event, error)

	// HasEvents reports whether any event references the account.
	HasEvents(ctx context.Context, account string) (bool, error)
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

type SnapshotStore interface {
	// CreateSnapshot persists a snapshot for its date. If a snapshot for
	// that date already exists the write is rejected with
	// ErrConcurrencyConflict and the stored document is left untouched.
	CreateSnapshot(ctx context.Context, s Snapshot) error

	// GetSnapshot returns the snapshot for the given date.
	GetSnapshot(ctx context.Context, date Date) (Snapshot, error)

	// SnapshotsInRange returns snapshots with date in [from, to], ascending.
	SnapshotsInRange(ctx context.Context, from, to Date) ([]Snapshot, error)
}

// SnapshotMaintenance allows overwriting historical snapshot balances.
// This is an offline correction path, never part of request serving; the
// normal snapshot lifecycle has no update operation at all.
type SnapshotMaintenance interface {
	OverwriteSnapshot(ctx context.Context, s Snapshot) error
}

// =============================================================================
// AGGREGATION VIEWS
// =============================================================================

// Activity is one row of the recent-activity view: an account and its most
// recent credit-affecting event timestamp.
type Activity struct {
	Account string
	Latest  time.Time
}

// Views are the incrementally-maintained secondary indexes over the event
// collection. Absence means zero, not unknown: every query returns a zero
// value for an account with no events.
type Views interface {
	// CreditOf returns the summed credit for one account.
	CreditOf(ctx context.Context, account string) (decimal.Decimal, error)

	// CreditByAccount returns the summed credit grouped per account.
	CreditByAccount(ctx context.Context) (map[string]decimal.Decimal, error)

	// CreditTotal returns the global sum across all accounts, the club
	// master account included.
	CreditTotal(ctx context.Context) (decimal.Decimal, error)

	// PurchaseCount returns the number of purchase events for the account
	// on the given business date.
	PurchaseCount(ctx context.Context, account string, date Date) (int, error)

	// LedgerTotalThrough returns the summed credit of all events with
	// business date <= date.
	LedgerTotalThrough(ctx context.Context, date Date) (decimal.Decimal, error)

	// RecentActivity returns accounts having credit-affecting events at or
	// after since, each with its latest such timestamp, in no particular
	// order.
	RecentActivity(ctx context.Context, since time.Time) ([]Activity, error)
}

// Store is the full persistence surface consumed by the core.
type Store interface {
	MemberStore
	EventStore
	SnapshotStore
	Views
}
