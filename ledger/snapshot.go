/*
snapshot.go - The daily snapshot mechanism

PURPOSE:
  Freezes a historical daily balance record exactly once, lazily. No timer
  or scheduler exists: the first request processed after midnight UTC that
  finds no snapshot for "yesterday" creates it, inside that request.

STATE MACHINE (per calendar date D):
  Absent -> Created   first request on or after D+1 with no snapshot for D
  Created             terminal; never overwritten in normal operation

RACES:
  Two requests may race to create the same date's snapshot. The store's
  unique-date constraint lets exactly one win; the loser reads the winner's
  document back and proceeds without surfacing an error.

CORRECTIONS:
  CorrectRange recomputes historical balances from the event history and
  overwrites stored snapshots. It requires the separate maintenance store
  capability and is meant for offline repair, not request serving.
*/
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Snapshotter creates and queries daily snapshots.
type Snapshotter struct {
	store Store
}

func NewSnapshotter(store Store) *Snapshotter {
	return &Snapshotter{store: store}
}

// EnsureDaily makes sure yesterday's snapshot exists. It is invoked once
// per authenticated request pipeline.
func (s *Snapshotter) EnsureDaily(ctx context.Context, now time.Time) (Snapshot, error) {
	return s.EnsureSnapshot(ctx, DateOf(now).AddDays(-1))
}

// EnsureSnapshot returns the snapshot for date, creating it if absent.
// Creating an already-created date is a no-op returning the stored document,
// including when another request wins the creation race.
func (s *Snapshotter) EnsureSnapshot(ctx context.Context, date Date) (Snapshot, error) {
	existing, err := s.store.GetSnapshot(ctx, date)
	if err == nil {
		return existing, nil
	}
	if !IsNotFound(err) {
		return Snapshot{}, err
	}

	snap, err := s.compute(ctx, date)
	if err != nil {
		return Snapshot{}, err
	}

	err = s.store.CreateSnapshot(ctx, snap)
	if IsConflict(err) {
		// Someone else created it between our read and write.
		slog.Debug("snapshot already created", "date", date.String())
		return s.store.GetSnapshot(ctx, date)
	}
	if err != nil {
		return Snapshot{}, err
	}
	slog.Info("snapshot created",
		"date", date.String(),
		"club", snap.ClubBalance.String(),
		"members", snap.MembersBalance.String())
	return snap, nil
}

// compute derives a snapshot from the current views: the club master
// account's balance, the sum over all member accounts, and the member count
// per status as of the moment of creation.
func (s *Snapshotter) compute(ctx context.Context, date Date) (Snapshot, error) {
	club, err := s.store.CreditOf(ctx, ClubAccount)
	if err != nil {
		return Snapshot{}, err
	}
	total, err := s.store.CreditTotal(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	counts, err := s.store.CountMembersByStatus(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Date:           date,
		ClubBalance:    club,
		MembersBalance: total.Sub(club),
		MemberCounts:   counts,
	}, nil
}

// Snapshots returns stored snapshots with date in [from, to], ascending.
func (s *Snapshotter) Snapshots(ctx context.Context, from, to Date) ([]Snapshot, error) {
	if from.After(to) {
		return nil, nil
	}
	return s.store.SnapshotsInRange(ctx, from, to)
}

// CorrectRange retroactively rewrites snapshot balances in [from, to] from
// the event history. Offline maintenance only; fails unless the store
// supports the maintenance capability.
func (s *Snapshotter) CorrectRange(ctx context.Context, from, to Date) (int, error) {
	maint, ok := s.store.(SnapshotMaintenance)
	if !ok {
		return 0, fmt.Errorf("store does not support snapshot maintenance")
	}

	stored, err := s.store.SnapshotsInRange(ctx, from, to)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, old := range stored {
		snap, err := s.recomputeThrough(ctx, old.Date)
		if err != nil {
			return corrected, err
		}
		snap.MemberCounts = old.MemberCounts // counts are not reconstructible
		if snap.ClubBalance.Equal(old.ClubBalance) && snap.MembersBalance.Equal(old.MembersBalance) {
			continue
		}
		if err := maint.OverwriteSnapshot(ctx, snap); err != nil {
			return corrected, err
		}
		slog.Warn("snapshot corrected",
			"date", snap.Date.String(),
			"club", snap.ClubBalance.String(),
			"members", snap.MembersBalance.String())
		corrected++
	}
	return corrected, nil
}

// recomputeThrough rebuilds a snapshot's balances from all events with
// business date <= date.
func (s *Snapshotter) recomputeThrough(ctx context.Context, date Date) (Snapshot, error) {
	events, err := s.store.EventsInRange(ctx, Date{}, date)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Date: date}
	for _, ev := range events {
		if ev.Account == ClubAccount {
			snap.ClubBalance = snap.ClubBalance.Add(ev.Credit)
		} else {
			snap.MembersBalance = snap.MembersBalance.Add(ev.Credit)
		}
	}
	return snap, nil
}
