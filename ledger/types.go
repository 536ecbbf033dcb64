/*
Package ledger is the core accounting engine of the club tab system.

PURPOSE:
  This package contains the event data model, the balance/aggregation
  contracts and the snapshot lifecycle. Members purchase beverages against
  credit, make repayments, and every balance change is recorded as an
  immutable Event. Balances are always derived from the event history -
  there is no separate "balance" field that can drift out of sync.

KEY CONCEPTS IN THIS FILE (types.go):
  - Member:   a registered club participant with a credit balance
  - Event:    an immutable, append-only financial fact
  - Snapshot: a frozen daily checkpoint of aggregate balances
  - Date:     a UTC calendar day (business date of an event)

DESIGN PRINCIPLES:
  1. Immutability: events are never updated; corrections are new transfers
     or an explicit admin deletion
  2. Precision: decimal.Decimal for all money, never float
  3. Derivation: every balance is a sum over events; the reconciliation
     invariant (per-account sums == global total) holds for any history

SEE ALSO:
  - factory.go:  validation and construction of events
  - store.go:    persistence and aggregation-view contracts
  - snapshot.go: the daily snapshot state machine
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// ClubAccount is the reserved pseudo-account representing the club's own
// master account. Expenditures and cash deposits are booked against it.
// The brackets keep it from ever colliding with a member email.
const ClubAccount = "[club]"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

// Statuses lists all member statuses in display/report order.
var Statuses = []Status{StatusPending, StatusEnabled, StatusDisabled}

// Member is a registered club participant. The email is the primary key,
// always stored lowercase. Rev is the optimistic-concurrency revision token:
// saves carry the revision they were read at, and a mismatch at write time
// surfaces as ErrConcurrencyConflict.
type Member struct {
	Email     string
	FirstName string
	LastName  string
	Swish     string // normalized to digits; unique when present
	SwishLazy bool
	Address   string
	Role      Role
	Status    Status
	Password  string // bcrypt hash; empty = not set
	Code      string // one-time password-set code; empty = none
	APIKey    string
	LastLogin *time.Time
	Rev       int64
}

// =============================================================================
// EVENTS
// =============================================================================

type Action string

const (
	ActionPurchase Action = "purchase"
	ActionPayment  Action = "payment"
	ActionTransfer Action = "transfer"
)

// ParseAction validates an action discriminator.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionPurchase, ActionPayment, ActionTransfer:
		return Action(s), nil
	}
	return "", &InvalidActionError{Action: s}
}

// LogBlock captures the circumstances of an event's creation.
type LogBlock struct {
	Timestamp time.Time // UTC, millisecond precision
	User      string    // acting member email; may differ from the event account
	Remote    string    // request origin (remote address), when available
}

// Event is an immutable, append-only financial fact. Once persisted, Credit
// and Action are never mutated; the only correction path is an explicit
// admin deletion. The sum of all events for an account is that account's
// balance at any point in time.
type Event struct {
	ID          string // uuid hex
	Account     string // member email, or ClubAccount
	Action      Action
	Credit      decimal.Decimal // positive = increases the account's balance
	Beverage    string          // beverage identifier; purchases only
	Payment     string          // purchase/payment method identifier
	Description string
	Date        Date // business date; defaults to the creation date
	Log         LogBlock
}

// ChangesBalance reports whether the event affects any balance.
// Zero-credit purchases (cash at the bar) leave all balances untouched.
func (e Event) ChangesBalance() bool {
	return !e.Credit.IsZero()
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Snapshot is an immutable daily checkpoint: the club's balance, the sum of
// all members' balances, and a count of members per status, as of its date.
// At most one snapshot exists per calendar date.
type Snapshot struct {
	Date           Date
	ClubBalance    decimal.Decimal
	MembersBalance decimal.Decimal
	MemberCounts   map[Status]int
}

// Surplus is the club balance minus the members' balance.
func (s Snapshot) Surplus() decimal.Decimal {
	return s.ClubBalance.Sub(s.MembersBalance)
}

// =============================================================================
// DATES AND TIMESTAMPS
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a UTC calendar day. The zero Date is "no date given".
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(at time.Time) Date {
	y, m, d := at.UTC().Date()
	return NewDate(y, m, d)
}

func Today() Date { return DateOf(time.Now()) }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &InvalidAmountError{Input: s, Reason: "not a calendar date"}
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Before(o Date) bool    { return d.t.Before(o.t) }
func (d Date) After(o Date) bool     { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool     { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Time() time.Time       { return d.t }
func (d Date) String() string        { return d.t.Format(dateLayout) }

// Timestamp renders an instant the way event logs store it: UTC ISO-8601
// with millisecond precision.
func Timestamp(at time.Time) string {
	return at.UTC().Format("2006-01-02T15:04:05.000Z")
}

// NewEventID returns a fresh event identifier. Fresh ids are what make event
// creation conflict-free: no two writers ever contend on the same document.
func NewEventID() string {
	return newIUID()
}
