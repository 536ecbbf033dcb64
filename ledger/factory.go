/*
factory.go - Validation and construction of events

PURPOSE:
  Turns a raw action request into a fully-formed, signed Event. Every
  construction path validates its inputs against the configured catalogs,
  computes the credit delta, and stamps the log block. An event is either
  fully constructed here and then persisted, or never persisted at all.

CREDIT RULES:
  purchase: credit = -price when the purchase method changes balance, 0 when
            it does not (cash at the bar). An unknown beverage with an
            explicit amount is a "lazy" manual entry: the amount stands in
            for the catalog price.
  payment:  credit = +amount for the named member. The reserved kinds
            "expenditure" (-amount) and "cash" (+amount) are booked against
            the club master account.
  transfer: credit = amount (signed, unrestricted) for manual corrections
            and migrations from earlier bookkeeping.

SEE ALSO:
  - catalog.go: the injected catalogs
  - errors.go:  InvalidAction / InvalidReference / InvalidAmount
*/
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// newIUID returns a fresh 32-char hex instance identifier.
func newIUID() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")
}

// Origin identifies who triggered an event and from where.
type Origin struct {
	User   string // acting member email
	Remote string // remote address or other request origin
}

// Factory validates action requests and constructs events.
// It holds the immutable catalogs; there is no ambient settings lookup.
type Factory struct {
	catalogs Catalogs
	now      func() time.Time
}

func NewFactory(catalogs Catalogs) *Factory {
	return &Factory{catalogs: catalogs, now: time.Now}
}

// WithClock replaces the factory's clock. Tests only.
func (f *Factory) WithClock(now func() time.Time) *Factory {
	f.now = now
	return f
}

func (f *Factory) stamp(origin Origin, date Date) (LogBlock, Date) {
	at := f.now().UTC().Truncate(time.Millisecond)
	if date.IsZero() {
		date = DateOf(at)
	}
	return LogBlock{Timestamp: at, User: origin.User, Remote: origin.Remote}, date
}

// =============================================================================
// PURCHASE
// =============================================================================

type PurchaseInput struct {
	Account     string // buying member's email
	Mode        string // purchase-method identifier
	Beverage    string // beverage identifier
	Amount      string // manual amount; only for the unknown-beverage fallback
	Description string
	Date        Date
	Origin      Origin
}

// Purchase constructs a purchase event and a human-readable confirmation.
func (f *Factory) Purchase(in PurchaseInput) (Event, string, error) {
	mode, ok := f.catalogs.Purchases.Find(in.Mode)
	if !ok {
		return Event{}, "", &InvalidReferenceError{Kind: "purchase", Identifier: in.Mode}
	}

	var price decimal.Decimal
	label := ""
	beverage, ok := f.catalogs.Beverages.Find(in.Beverage)
	switch {
	case ok:
		price = beverage.Price
		label = beverage.Label
	case in.Amount != "":
		// Lazy manual entry: no catalog match, the caller supplies the price.
		manual, err := parseAmount(in.Amount)
		if err != nil {
			return Event{}, "", err
		}
		price = manual
		label = "beverage"
	default:
		return Event{}, "", &InvalidReferenceError{Kind: "beverage", Identifier: in.Beverage}
	}

	credit := decimal.Zero
	if mode.ChangesBalance {
		credit = price.Neg()
	}

	log, date := f.stamp(in.Origin, in.Date)
	ev := Event{
		ID:          NewEventID(),
		Account:     in.Account,
		Action:      ActionPurchase,
		Credit:      credit,
		Beverage:    in.Beverage,
		Payment:     mode.Identifier,
		Description: in.Description,
		Date:        date,
		Log:         log,
	}
	return ev, fmt.Sprintf("You purchased one %s.", label), nil
}

// =============================================================================
// PAYMENT
// =============================================================================

type PaymentInput struct {
	Account     string // member repaying, ignored for the reserved kinds
	Mode        string // payment-method identifier, or a reserved kind
	Amount      string
	Description string
	Date        Date
	Origin      Origin
}

// Payment constructs a payment event. The amount must be a non-negative
// decimal. The reserved kinds "expenditure" and "cash" are applied to the
// club master account; any other kind must exist in the payment catalog and
// is applied to the named member.
func (f *Factory) Payment(in PaymentInput) (Event, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return Event{}, err
	}

	var (
		account string
		credit  decimal.Decimal
	)
	switch in.Mode {
	case PaymentExpenditure:
		account = ClubAccount
		credit = amount.Neg()
	case PaymentCash:
		account = ClubAccount
		credit = amount
	default:
		if _, ok := f.catalogs.Payments.Find(in.Mode); !ok {
			return Event{}, &InvalidReferenceError{Kind: "payment", Identifier: in.Mode}
		}
		account = in.Account
		credit = amount
	}

	log, date := f.stamp(in.Origin, in.Date)
	return Event{
		ID:          NewEventID(),
		Account:     account,
		Action:      ActionPayment,
		Credit:      credit,
		Payment:     in.Mode,
		Description: in.Description,
		Date:        date,
		Log:         log,
	}, nil
}

// =============================================================================
// TRANSFER
// =============================================================================

type TransferInput struct {
	Account     string
	Amount      string // signed
	Description string
	Date        Date
	Origin      Origin
}

// Transfer constructs a transfer event: a signed credit against any account,
// used for manual corrections and legacy-system migrations.
func (f *Factory) Transfer(in TransferInput) (Event, error) {
	amount, err := parseSigned(in.Amount)
	if err != nil {
		return Event{}, err
	}

	log, date := f.stamp(in.Origin, in.Date)
	return Event{
		ID:          NewEventID(),
		Account:     in.Account,
		Action:      ActionTransfer,
		Credit:      amount,
		Description: in.Description,
		Date:        date,
		Log:         log,
	}, nil
}

// =============================================================================
// AMOUNT PARSING
// =============================================================================

func parseSigned(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, &InvalidAmountError{Input: s, Reason: "missing"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &InvalidAmountError{Input: s, Reason: "not a number"}
	}
	return d, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := parseSigned(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, &InvalidAmountError{Input: s, Reason: "negative"}
	}
	return d, nil
}
