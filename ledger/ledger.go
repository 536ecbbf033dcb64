/*
ledger.go - Append-only event log operations

PURPOSE:
  The write side of the event stream and its ordered listings. Recording is
  append-only: there is no update operation at all, and deletion exists
  solely as the admin correction path.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: events are created exactly once, never updated
  2. ATOMIC: a single event creation either fully persists or not at all
  3. CORRECTIONS: an admin either deletes the bad event outright, or books
     a compensating transfer; both leave an explainable history
*/
package ledger

import (
	"context"
	"log/slog"
)

// Ledger records and lists events on top of a Store.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Record appends a fully-constructed event.
func (l *Ledger) Record(ctx context.Context, ev Event) error {
	if err := l.store.AddEvent(ctx, ev); err != nil {
		return err
	}
	slog.Info("event recorded",
		"id", ev.ID,
		"account", ev.Account,
		"action", string(ev.Action),
		"credit", ev.Credit.String())
	return nil
}

// Get returns one event by id.
func (l *Ledger) Get(ctx context.Context, id string) (Event, error) {
	return l.store.GetEvent(ctx, id)
}

// Delete removes an event as an explicit correction. Admin only.
func (l *Ledger) Delete(ctx context.Context, actor Member, id string) error {
	if actor.Role != RoleAdmin {
		return ErrPermissionDenied
	}
	ev, err := l.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if err := l.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	slog.Warn("event deleted",
		"id", ev.ID,
		"account", ev.Account,
		"credit", ev.Credit.String(),
		"by", actor.Email)
	return nil
}

// History returns an account's events, newest first. limit <= 0 means all.
func (l *Ledger) History(ctx context.Context, account string, limit int) ([]Event, error) {
	return l.store.EventsByAccount(ctx, account, limit)
}

// Range returns all events with business date in [from, to], ascending.
// Zero bounds are open.
func (l *Ledger) Range(ctx context.Context, from, to Date) ([]Event, error) {
	return l.store.EventsInRange(ctx, from, to)
}

// Payments returns payment events in [from, to], ascending.
func (l *Ledger) Payments(ctx context.Context, from, to Date) ([]Event, error) {
	return l.store.EventsByAction(ctx, ActionPayment, from, to)
}
