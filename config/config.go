/*
Package config loads the site settings file.

PURPOSE:
  One JSON file holds everything an operator tunes: site identity, currency
  display, the three catalogs, registration policy and the default display
  windows. Load produces an immutable Settings value that is passed
  explicitly to the constructors that need it; nothing reads the file twice.

  Server knobs (listen address, database path, log level) are not settings:
  they come from flags and the environment in cmd/server.
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/clubtab/clubtab/ledger"
)

// Settings is the parsed settings file. Treat as read-only after Load.
type Settings struct {
	SiteName string `json:"site_name"`
	Contact  string `json:"contact_email"`

	Currency      string `json:"currency"`
	MoneyDecimals int32  `json:"money_decimals"`

	// Registration policy; empty pattern means every new member starts
	// out pending.
	AutoEnablePattern string `json:"auto_enable_pattern"`
	MinPasswordLength int    `json:"min_password_length"`

	// Default display windows, in days.
	ActivityDays int `json:"activity_days"`
	LedgerDays   int `json:"ledger_days"`
	SnapshotDays int `json:"snapshot_days"`

	Catalogs ledger.Catalogs `json:"catalogs"`
}

// Default returns the settings used when no file is given. The catalogs
// mirror a small beer club: two beverages, purchases either on the tab or
// paid on the spot, payments by Swish or bank transfer.
func Default() Settings {
	return Settings{
		SiteName:          "Club Tab",
		Currency:          "SEK",
		MoneyDecimals:     2,
		MinPasswordLength: 8,
		ActivityDays:      7,
		LedgerDays:        31,
		SnapshotDays:      31,
		Catalogs: ledger.Catalogs{
			Beverages: ledger.Catalog{
				{Identifier: "lager", Label: "Lager", Price: decimal.NewFromInt(20)},
				{Identifier: "ale", Label: "Ale", Price: decimal.NewFromInt(20)},
			},
			Purchases: ledger.Catalog{
				{Identifier: "account", Label: "On your tab", ChangesBalance: true},
				{Identifier: "cash", Label: "Paid on the spot", ChangesBalance: false},
			},
			Payments: ledger.Catalog{
				{Identifier: "swish", Label: "Swish"},
				{Identifier: "bank", Label: "Bank transfer"},
			},
		},
	}
}

// Load reads the settings file at path. An empty path returns Default().
// Omitted fields keep their default values, so a settings file only needs
// the keys it overrides.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) validate() error {
	if s.SiteName == "" {
		return fmt.Errorf("site_name must not be empty")
	}
	if s.MoneyDecimals < 0 || s.MoneyDecimals > 6 {
		return fmt.Errorf("money_decimals out of range: %d", s.MoneyDecimals)
	}
	if s.MinPasswordLength < 1 {
		return fmt.Errorf("min_password_length out of range: %d", s.MinPasswordLength)
	}
	seen := make(map[string]bool)
	for _, catalog := range []ledger.Catalog{
		s.Catalogs.Beverages, s.Catalogs.Purchases, s.Catalogs.Payments,
	} {
		for _, item := range catalog {
			if item.Identifier == "" {
				return fmt.Errorf("catalog item with empty identifier")
			}
		}
	}
	for _, item := range s.Catalogs.Payments {
		if item.Identifier == ledger.PaymentExpenditure || item.Identifier == ledger.PaymentCash {
			return fmt.Errorf("payment method %q is reserved", item.Identifier)
		}
		if seen[item.Identifier] {
			return fmt.Errorf("duplicate payment method %q", item.Identifier)
		}
		seen[item.Identifier] = true
	}
	return nil
}

// FormatMoney renders an amount with the configured precision and currency,
// e.g. "-20.00 SEK".
func (s Settings) FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(s.MoneyDecimals) + " " + s.Currency
}
