package cart

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/restaurantcart/lib/myerrors"
)

func TestPricing(t *testing.T) {
	items := []LineItem{
		{ID: "1", Name: "Masala Dosa", UnitPrice: decimal.RequireFromString("50"), Quantity: 2},
		{ID: "2", Name: "Tea", UnitPrice: decimal.RequireFromString("20"), Quantity: 3},
	}

	subtotal := calculateSubtotal(items)
	assert.Equal(t, "160.00", FormatAmount(subtotal))
	assert.Equal(t, "8.00", FormatAmount(Tax(subtotal)))
	assert.Equal(t, 5, calculateItemCount(items))

	assert.Equal(t, "0.00", FormatAmount(calculateSubtotal(nil)))
	assert.Equal(t, 0, calculateItemCount(nil))
}

func TestTaxIsExact(t *testing.T) {
	tax := Tax(decimal.RequireFromString("33.33"))
	assert.Equal(t, "1.6665", tax.String())
	assert.Equal(t, "1.67", FormatAmount(tax))
}

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
		status   int
	}{
		{name: "integer", raw: "50", expected: "50.00"},
		{name: "decimal", raw: "30.50", expected: "30.50"},
		{name: "padded", raw: " 12.5 ", expected: "12.50"},
		{name: "zero", raw: "0", expected: "0.00"},
		{name: "empty", raw: "", status: http.StatusBadRequest},
		{name: "text", raw: "fifty", status: http.StatusBadRequest},
		{name: "negative", raw: "-1", status: http.StatusBadRequest},
		{name: "trailing zeros", raw: "0.100", expected: "0.10"},
		{name: "maximum", raw: "1000000", expected: "1000000.00"},
		{name: "above maximum", raw: "1000000.01", status: http.StatusBadRequest},
		{name: "three decimals", raw: "12.345", status: http.StatusBadRequest},
		{name: "huge exponent", raw: "1e2000000000", status: http.StatusBadRequest},
		{name: "tiny exponent", raw: "1e-2000000000", status: http.StatusBadRequest},
		{name: "too long", raw: "1234567890123456789012345678901234567890", status: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			price, err := ParsePrice(tc.raw)
			if tc.status != 0 {
				require.Error(t, err)
				assert.Equal(t, tc.status, myerrors.GetHTTPStatus(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, FormatAmount(price))
		})
	}
}

func TestValidateUnitPrice(t *testing.T) {
	assert.NoError(t, ValidateUnitPrice(decimal.New(1, 6)))
	assert.NoError(t, ValidateUnitPrice(decimal.New(100000000, -8)))
	assert.Error(t, ValidateUnitPrice(decimal.New(1, 7)))
	assert.Error(t, ValidateUnitPrice(decimal.New(1, 2000000000)))
	assert.Error(t, ValidateUnitPrice(decimal.New(1, -2000000000)))
	assert.Error(t, ValidateUnitPrice(decimal.New(1, -3)))
}
