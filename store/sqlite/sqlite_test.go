package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubtab/clubtab/ledger"
	"github.com/clubtab/clubtab/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testEvent(id, account string, credit int64, date ledger.Date, at time.Time) ledger.Event {
	return ledger.Event{
		ID:      id,
		Account: account,
		Action:  ledger.ActionPayment,
		Credit:  decimal.NewFromInt(credit),
		Payment: "swish",
		Date:    date,
		Log: ledger.LogBlock{
			Timestamp: at,
			User:      account,
			Remote:    "127.0.0.1",
		},
	}
}

// =============================================================================
// MEMBERS
// =============================================================================

func TestStore_SaveMember_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	login := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	m := ledger.Member{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Andersson",
		Swish:     "0701234567",
		SwishLazy: true,
		Address:   "Storgatan 1",
		Role:      ledger.RoleAdmin,
		Status:    ledger.StatusEnabled,
		Password:  "$2a$10$hash",
		Code:      "deadbeef",
		APIKey:    "cafebabe",
		LastLogin: &login,
	}
	require.NoError(t, store.SaveMember(ctx, &m))
	assert.Equal(t, int64(1), m.Rev)

	got, err := store.GetMember(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestStore_SaveMember_RevisionConflict(t *testing.T) {
	// GIVEN: Two readers holding the same revision of Alice
	// WHEN: Both save their edit
	// THEN: The first advances the revision; the second conflicts

	store := newTestStore(t)
	ctx := context.Background()

	m := ledger.Member{Email: "alice@example.com", Role: ledger.RoleMember, Status: ledger.StatusPending}
	require.NoError(t, store.SaveMember(ctx, &m))

	first := m
	second := m

	first.FirstName = "A"
	require.NoError(t, store.SaveMember(ctx, &first))
	assert.Equal(t, int64(2), first.Rev)

	second.FirstName = "B"
	err := store.SaveMember(ctx, &second)
	assert.True(t, ledger.IsConflict(err), "stale save must conflict, got %v", err)

	// Re-read and retry succeeds
	fresh, err := store.GetMember(ctx, "alice@example.com")
	require.NoError(t, err)
	fresh.FirstName = "B"
	require.NoError(t, store.SaveMember(ctx, &fresh))
}

func TestStore_SaveMember_UpdateMissing_NotFound(t *testing.T) {
	store := newTestStore(t)
	m := ledger.Member{Email: "ghost@example.com", Rev: 3, Role: ledger.RoleMember, Status: ledger.StatusPending}
	err := store.SaveMember(context.Background(), &m)
	assert.True(t, ledger.IsNotFound(err), "got %v", err)
}

func TestStore_GetMemberBySwish(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := ledger.Member{Email: "alice@example.com", Swish: "0701234567", Role: ledger.RoleMember, Status: ledger.StatusEnabled}
	require.NoError(t, store.SaveMember(ctx, &m))

	got, err := store.GetMemberBySwish(ctx, "0701234567")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = store.GetMemberBySwish(ctx, "0000000000")
	assert.True(t, ledger.IsNotFound(err))
}

func TestStore_CountMembersByStatus_AllStatusesPresent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, m := range []ledger.Member{
		{Email: "a@example.com", Role: ledger.RoleAdmin, Status: ledger.StatusEnabled},
		{Email: "b@example.com", Role: ledger.RoleMember, Status: ledger.StatusEnabled},
		{Email: "c@example.com", Role: ledger.RoleMember, Status: ledger.StatusPending},
	} {
		m := m
		require.NoError(t, store.SaveMember(ctx, &m))
	}

	counts, err := store.CountMembersByStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[ledger.Status]int{
		ledger.StatusPending:  1,
		ledger.StatusEnabled:  2,
		ledger.StatusDisabled: 0,
	}, counts)
}

func TestStore_DeleteMember(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := ledger.Member{Email: "alice@example.com", Role: ledger.RoleMember, Status: ledger.StatusPending}
	require.NoError(t, store.SaveMember(ctx, &m))

	require.NoError(t, store.DeleteMember(ctx, "alice@example.com"))
	assert.True(t, ledger.IsNotFound(store.DeleteMember(ctx, "alice@example.com")))
}

// =============================================================================
// EVENTS
// =============================================================================

func TestStore_Events_AppendGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 10)
	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	ev := testEvent("ev1", "alice@example.com", 50, date, at)
	ev.Description = "repayment"
	require.NoError(t, store.AddEvent(ctx, ev))

	got, err := store.GetEvent(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Account)
	assert.True(t, got.Credit.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "repayment", got.Description)
	assert.Equal(t, "2026-03-10", got.Date.String())
	assert.True(t, got.Log.Timestamp.Equal(at))

	// Duplicate id conflicts
	assert.True(t, ledger.IsConflict(store.AddEvent(ctx, ev)))

	require.NoError(t, store.DeleteEvent(ctx, "ev1"))
	_, err = store.GetEvent(ctx, "ev1")
	assert.True(t, ledger.IsNotFound(err))
}

func TestStore_EventsByAccount_NewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 10)
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"ev1", "ev2", "ev3"} {
		require.NoError(t, store.AddEvent(ctx,
			testEvent(id, "alice@example.com", 10, date, base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, store.AddEvent(ctx, testEvent("other", "bob@example.com", 10, date, base)))

	events, err := store.EventsByAccount(ctx, "alice@example.com", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev3", events[0].ID)
	assert.Equal(t, "ev2", events[1].ID)

	all, err := store.EventsByAccount(ctx, "alice@example.com", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_EventsInRange_OpenBounds(t *testing.T) {
	// GIVEN: Events across three dates
	// WHEN: Listing with closed, half-open and fully open bounds
	// THEN: A zero bound never filters

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"d1", "d2", "d3"} {
		date := ledger.NewDate(2026, time.March, 10+i)
		require.NoError(t, store.AddEvent(ctx, testEvent(id, "alice@example.com", 10, date, base)))
	}

	mid := ledger.NewDate(2026, time.March, 11)

	events, err := store.EventsInRange(ctx, mid, mid)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "d2", events[0].ID)

	events, err = store.EventsInRange(ctx, ledger.Date{}, mid)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.EventsInRange(ctx, mid, ledger.Date{})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.EventsInRange(ctx, ledger.Date{}, ledger.Date{})
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestStore_EventsByAction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 10)
	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	payment := testEvent("p1", "alice@example.com", 50, date, at)
	purchase := testEvent("b1", "alice@example.com", -20, date, at)
	purchase.Action = ledger.ActionPurchase
	purchase.Beverage = "lager"
	require.NoError(t, store.AddEvent(ctx, payment))
	require.NoError(t, store.AddEvent(ctx, purchase))

	events, err := store.EventsByAction(ctx, ledger.ActionPayment, ledger.Date{}, ledger.Date{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "p1", events[0].ID)
}

func TestStore_HasEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	has, err := store.HasEvents(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.AddEvent(ctx, testEvent("ev1", "alice@example.com", 10,
		ledger.NewDate(2026, time.March, 10), time.Now().UTC())))

	has, err = store.HasEvents(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, has)
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func testSnapshot(date ledger.Date, club, members int64) ledger.Snapshot {
	return ledger.Snapshot{
		Date:           date,
		ClubBalance:    decimal.NewFromInt(club),
		MembersBalance: decimal.NewFromInt(members),
		MemberCounts: map[ledger.Status]int{
			ledger.StatusPending:  0,
			ledger.StatusEnabled:  3,
			ledger.StatusDisabled: 1,
		},
	}
}

func TestStore_CreateSnapshot_DuplicateDateConflicts(t *testing.T) {
	// The unique-date constraint is the arbiter of the creation race.

	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 9)

	require.NoError(t, store.CreateSnapshot(ctx, testSnapshot(date, -30, 50)))
	err := store.CreateSnapshot(ctx, testSnapshot(date, -30, 50))
	assert.True(t, ledger.IsConflict(err), "got %v", err)
}

func TestStore_GetSnapshot_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 9)
	snap := testSnapshot(date, -30, 50)
	require.NoError(t, store.CreateSnapshot(ctx, snap))

	got, err := store.GetSnapshot(ctx, date)
	require.NoError(t, err)
	assert.True(t, got.ClubBalance.Equal(snap.ClubBalance))
	assert.True(t, got.MembersBalance.Equal(snap.MembersBalance))
	assert.Equal(t, snap.MemberCounts, got.MemberCounts)

	_, err = store.GetSnapshot(ctx, date.AddDays(1))
	assert.True(t, ledger.IsNotFound(err))
}

func TestStore_SnapshotsInRange_Ascending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		date := ledger.NewDate(2026, time.March, 1+i)
		require.NoError(t, store.CreateSnapshot(ctx, testSnapshot(date, int64(i), 0)))
	}

	snaps, err := store.SnapshotsInRange(ctx,
		ledger.NewDate(2026, time.March, 2), ledger.NewDate(2026, time.March, 3))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "2026-03-02", snaps[0].Date.String())
	assert.Equal(t, "2026-03-03", snaps[1].Date.String())
}

func TestStore_OverwriteSnapshot_BalancesOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 9)
	require.NoError(t, store.CreateSnapshot(ctx, testSnapshot(date, -30, 50)))

	corrected := testSnapshot(date, -40, 60)
	require.NoError(t, store.OverwriteSnapshot(ctx, corrected))

	got, err := store.GetSnapshot(ctx, date)
	require.NoError(t, err)
	assert.True(t, got.ClubBalance.Equal(decimal.NewFromInt(-40)))
	assert.True(t, got.MembersBalance.Equal(decimal.NewFromInt(60)))

	err = store.OverwriteSnapshot(ctx, testSnapshot(date.AddDays(1), 0, 0))
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// AGGREGATION VIEWS
// =============================================================================

func TestStore_Views_ExactDecimalSums(t *testing.T) {
	// Fractional credits must sum exactly; the reconciliation invariant
	// tolerates no float drift.

	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 10)
	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	credits := []string{"0.10", "0.20", "-0.30", "19.99"}
	for i, c := range credits {
		d, err := decimal.NewFromString(c)
		require.NoError(t, err)
		ev := testEvent("", "alice@example.com", 0, date, at.Add(time.Duration(i)*time.Second))
		ev.ID = ledger.NewEventID()
		ev.Credit = d
		require.NoError(t, store.AddEvent(ctx, ev))
	}
	require.NoError(t, store.AddEvent(ctx, testEvent("club", ledger.ClubAccount, -100, date, at)))

	alice, err := store.CreditOf(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "19.99", alice.String())

	total, err := store.CreditTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "-80.01", total.String())

	byAccount, err := store.CreditByAccount(ctx)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, credit := range byAccount {
		sum = sum.Add(credit)
	}
	assert.True(t, sum.Equal(total), "per-account sum %s != total %s", sum, total)
}

func TestStore_PurchaseCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2026, time.March, 10)
	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"b1", "b2"} {
		ev := testEvent(id, "alice@example.com", -20, date, at)
		ev.Action = ledger.ActionPurchase
		require.NoError(t, store.AddEvent(ctx, ev))
	}
	require.NoError(t, store.AddEvent(ctx, testEvent("p1", "alice@example.com", 50, date, at)))

	count, err := store.PurchaseCount(ctx, "alice@example.com", date)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.PurchaseCount(ctx, "alice@example.com", date.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_LedgerTotalThrough(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.AddEvent(ctx,
		testEvent("old", "alice@example.com", 100, ledger.NewDate(2026, time.February, 1), at)))
	require.NoError(t, store.AddEvent(ctx,
		testEvent("new", "alice@example.com", 40, ledger.NewDate(2026, time.March, 10), at)))

	total, err := store.LedgerTotalThrough(ctx, ledger.NewDate(2026, time.February, 28))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(100)))

	total, err = store.LedgerTotalThrough(ctx, ledger.NewDate(2026, time.March, 31))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(140)))
}

func TestStore_RecentActivity_SkipsZeroCredit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	date := ledger.DateOf(now)

	require.NoError(t, store.AddEvent(ctx, testEvent("ev1", "alice@example.com", 50, date, now.Add(-time.Hour))))
	require.NoError(t, store.AddEvent(ctx, testEvent("ev2", "alice@example.com", 10, date, now)))

	zero := testEvent("ev3", "bob@example.com", 0, date, now)
	require.NoError(t, store.AddEvent(ctx, zero))

	require.NoError(t, store.AddEvent(ctx, testEvent("stale", "carol@example.com", 10, date,
		now.AddDate(0, 0, -30))))

	rows, err := store.RecentActivity(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "alice@example.com", rows[0].Account)
	assert.True(t, rows[0].Latest.Equal(now), "latest = %s", rows[0].Latest)
}
