package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubtab/clubtab/config"
	"github.com/shopspring/decimal"
)

func TestLoad_EmptyPath_Defaults(t *testing.T) {
	s, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "Club Tab", s.SiteName)
	assert.Equal(t, 8, s.MinPasswordLength)
	_, ok := s.Catalogs.Beverages.Find("lager")
	assert.True(t, ok)
}

func TestLoad_OverridesMergeOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"site_name": "Brewers Guild",
		"currency": "EUR",
		"auto_enable_pattern": "*@brewers.se"
	}`), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Brewers Guild", s.SiteName)
	assert.Equal(t, "EUR", s.Currency)
	assert.Equal(t, "*@brewers.se", s.AutoEnablePattern)
	// Untouched keys keep their defaults
	assert.Equal(t, 8, s.MinPasswordLength)
	assert.Equal(t, "-20.00 EUR", s.FormatMoney(decimal.NewFromInt(-20)))
}

func TestLoad_ReservedPaymentMethod_Rejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"catalogs": {"payments": [{"identifier": "expenditure", "label": "X"}]}
	}`), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}
