package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/restaurantcart/lib/myerrors"
)

// TaxRate is the fixed 5% GST.
var TaxRate = decimal.RequireFromString("0.05")

func calculateSubtotal(items []LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, i := range items {
		subtotal = subtotal.Add(i.LineTotal())
	}
	return subtotal
}

func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate)
}

func calculateItemCount(items []LineItem) int {
	count := 0
	for _, i := range items {
		count += i.Quantity
	}
	return count
}

// FormatAmount rounds to 2 places for display only.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

const maxPriceLength = 32

var maxUnitPrice = decimal.NewFromInt(1_000_000)

// ValidateUnitPrice accepts 0 up to 1,000,000 with at most 2 decimals.
// The price is not formatted in errors: its exponent may be huge.
func ValidateUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return errors.New("price must not be negative")
	}
	// bound the exponent before comparing or rounding: both rescale to it
	if price.Exponent() > 6 {
		return fmt.Errorf("price must not exceed %s", maxUnitPrice)
	}
	if price.Exponent() < -8 {
		return errors.New("price has more than 2 decimals")
	}
	if price.GreaterThan(maxUnitPrice) {
		return fmt.Errorf("price must not exceed %s", maxUnitPrice)
	}
	if !price.Equal(price.Round(2)) {
		return errors.New("price has more than 2 decimals")
	}
	return nil
}

// ParsePrice rejects anything that is not a valid unit price.
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxPriceLength {
		return decimal.Zero, myerrors.NewInvalidInputErrorf("invalid price: longer than %d characters", maxPriceLength)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, myerrors.NewInvalidInputError(fmt.Errorf("invalid price %q: %w", raw, err))
	}

	err = ValidateUnitPrice(price)
	if err != nil {
		return decimal.Zero, myerrors.NewInvalidInputError(fmt.Errorf("invalid price %q: %w", raw, err))
	}
	return price, nil
}
