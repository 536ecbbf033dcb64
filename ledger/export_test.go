package ledger_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubtab/clubtab/ledger"
)

func TestWriteLedgerCSV(t *testing.T) {
	at := time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)
	events := []ledger.Event{{
		ID:       "abc123",
		Account:  "alice@example.com",
		Action:   ledger.ActionPurchase,
		Credit:   decimal.NewFromInt(-20),
		Beverage: "lager",
		Date:     ledger.NewDate(2026, time.March, 10),
		Log:      ledger.LogBlock{Timestamp: at, User: "alice@example.com"},
	}}

	var b strings.Builder
	require.NoError(t, ledger.WriteLedgerCSV(&b, events))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Member,Action,Beverage,Description,Credit,Date,User,Timestamp", lines[0])
	assert.Equal(t, "abc123,alice@example.com,purchase,lager,,-20,2026-03-10,alice@example.com,2026-03-10T14:30:00.000Z", lines[1])
}

func TestWriteSnapshotsCSV_StatusColumnsStable(t *testing.T) {
	snaps := []ledger.Snapshot{{
		Date:           ledger.NewDate(2026, time.March, 9),
		ClubBalance:    decimal.NewFromInt(-30),
		MembersBalance: decimal.NewFromInt(50),
		MemberCounts: map[ledger.Status]int{
			ledger.StatusPending:  1,
			ledger.StatusEnabled:  4,
			ledger.StatusDisabled: 0,
		},
	}}

	var b strings.Builder
	require.NoError(t, ledger.WriteSnapshotsCSV(&b, snaps))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Club,Members,Surplus,pending,enabled,disabled", lines[0])
	assert.Equal(t, "2026-03-09,-30,50,-80,1,4,0", lines[1])
}

func TestWriteMembersCSV_OptionalFields(t *testing.T) {
	login := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	rows := []ledger.MemberRow{
		{
			Member: ledger.Member{
				Email: "alice@example.com", FirstName: "Alice", LastName: "A",
				Role: ledger.RoleAdmin, Status: ledger.StatusEnabled,
				Swish: "0701234567", SwishLazy: true, LastLogin: &login,
			},
			Balance: decimal.NewFromInt(30),
		},
		{
			Member: ledger.Member{
				Email: "bob@example.com",
				Role:  ledger.RoleMember, Status: ledger.StatusPending,
			},
		},
	}

	var b strings.Builder
	require.NoError(t, ledger.WriteMembersCSV(&b, rows))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "2026-03-01T09:00:00.000Z")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "bob@example.com")
}
