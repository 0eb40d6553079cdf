package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCounty(t *testing.T) {
	tests := []struct {
		address  string
		expected string
	}{
		{"123 Main St, The Villages, FL", "Sumter"},
		{"456 Lake Dr, Lady Lake, FL", "Lake"},
		{"789 Oak Ave, Ocala, FL 34471", "Marion"},
		{"321 Charity Lane, Gainesville, FL", "Alachua"},
		{"456 Business Park Dr, Tampa, FL", "Hillsborough"},
		{"1 Biscayne Blvd, Miami, FL", "Miami-Dade"},
		{"100 Nowhere Rd, FL", "Orange"},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectCounty(tt.address))
		})
	}
}

func TestLookup(t *testing.T) {
	t.Run("plain residential address", func(t *testing.T) {
		info := Lookup("123 Main St, Orlando, FL", "")
		assert.Equal(t, "Orange", info.County)
		assert.Equal(t, "Residential", info.LandUse)
		assert.Equal(t, "$250,000", info.MarketValue)
		assert.False(t, info.DelinquentTaxes)
		assert.Empty(t, info.RiskFlags())
	})

	t.Run("explicit county wins over detection", func(t *testing.T) {
		info := Lookup("123 Main St, Orlando, FL", "Marion")
		assert.Equal(t, "Marion", info.County)
		assert.Contains(t, info.SourceURL, "pa.marion.fl.us")
	})

	t.Run("po box resolves to a mail drop", func(t *testing.T) {
		info := Lookup("P.O. Box 9, Miami, FL", "")
		assert.Equal(t, "Mail Drop Service", info.LandUse)
		assert.Equal(t, "N/A", info.MarketValue)
		assert.True(t, info.DelinquentTaxes)

		flags := info.RiskFlags()
		assert.Contains(t, flags, "property has delinquent taxes")
		assert.Contains(t, flags, "address resolves to a mail drop service")
		assert.Contains(t, flags, "property has no assessed market value")
	})

	t.Run("vacant land", func(t *testing.T) {
		info := Lookup("Vacant lot, Parcel 42, Ocala, FL", "")
		assert.Equal(t, "Vacant Land", info.LandUse)
		assert.Equal(t, "$75,000", info.MarketValue)
		assert.True(t, info.DelinquentTaxes)
		assert.Contains(t, info.RiskFlags(), "property is vacant or undeveloped land")
	})

	t.Run("commercial suite", func(t *testing.T) {
		info := Lookup("789 Financial Plaza, Suite 200, Miami, FL", "")
		assert.Equal(t, "Commercial Office", info.LandUse)
		assert.Equal(t, "Commercial Properties LLC", info.OwnerName)
		assert.Empty(t, info.RiskFlags())
	})
}
