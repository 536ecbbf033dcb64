/*
balance.go - Balance query facade

PURPOSE:
  The read-side surface consumed by the presentation layer: current balance
  for one account or the whole club, today's purchase count, and the
  recent-activity listing. All answers come from the aggregation views;
  absence of events means a zero answer, never an error.
*/
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Balances answers balance and count queries from the views.
type Balances struct {
	views Views
}

func NewBalances(views Views) *Balances {
	return &Balances{views: views}
}

// BalanceOf returns the current credit balance for the account, or the
// global total when account is empty. An account with no events has
// balance zero.
func (b *Balances) BalanceOf(ctx context.Context, account string) (decimal.Decimal, error) {
	if account == "" {
		return b.views.CreditTotal(ctx)
	}
	return b.views.CreditOf(ctx, account)
}

// PurchaseCountOf returns the account's beverage count for the given date,
// defaulting to today. Zero when none.
func (b *Balances) PurchaseCountOf(ctx context.Context, account string, date Date) (int, error) {
	if date.IsZero() {
		date = Today()
	}
	return b.views.PurchaseCount(ctx, account, date)
}

// LedgerTotalAsOf returns the club's running balance as of the given date.
func (b *Balances) LedgerTotalAsOf(ctx context.Context, date Date) (decimal.Decimal, error) {
	return b.views.LedgerTotalThrough(ctx, date)
}

// RecentActivity returns accounts with credit-affecting events in the
// trailing window of the given number of days, each annotated with its most
// recent activity timestamp, ascending by that timestamp. The club master
// account is always excluded.
func (b *Balances) RecentActivity(ctx context.Context, days int) ([]Activity, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := b.views.RecentActivity(ctx, since)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		if row.Account == ClubAccount {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Latest.Before(out[j].Latest) })
	return out, nil
}
