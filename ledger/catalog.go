/*
catalog.go - Static beverage and method catalogs

PURPOSE:
  The beverage, purchase-method and payment-method catalogs are injected at
  startup as immutable configuration. The event factory resolves incoming
  identifiers against them; an unknown identifier is an InvalidReference.

  Catalogs are ordered lists, not maps: the order is the display order in
  the presentation layer, and lookups are linear over a handful of items.
*/
package ledger

import "github.com/shopspring/decimal"

// CatalogItem is one entry of a catalog.
//
// Beverages carry a Price. Purchase methods declare whether they change the
// balance (credit vs. cash at the bar). Payment methods are plain labels.
type CatalogItem struct {
	Identifier     string          `json:"identifier"`
	Label          string          `json:"label"`
	Price          decimal.Decimal `json:"price"`
	ChangesBalance bool            `json:"changes_balance,omitempty"`
}

// Catalog is an ordered list of items with identifier lookup.
type Catalog []CatalogItem

// Find returns the item with the given identifier.
func (c Catalog) Find(identifier string) (CatalogItem, bool) {
	for _, item := range c {
		if item.Identifier == identifier {
			return item, true
		}
	}
	return CatalogItem{}, false
}

// Catalogs bundles the three configured catalogs.
type Catalogs struct {
	Beverages Catalog `json:"beverages"`
	Purchases Catalog `json:"purchases"` // purchase methods (credit, cash, ...)
	Payments  Catalog `json:"payments"`  // repayment methods (swish, bank, ...)
}

// Reserved payment kinds, hardwired independent of the payment catalog.
// Both are booked against the club master account.
const (
	PaymentExpenditure = "expenditure" // the club spends money; credit = -amount
	PaymentCash        = "cash"        // cash is deposited; credit = +amount
)
