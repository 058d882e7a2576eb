package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// storedItem matches the record layout of the browser widget: [{id,name,price,quantity}]
type storedItem struct {
	ID       ItemID      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func encodeCart(items []LineItem) (string, error) {
	stored := make([]storedItem, 0, len(items))
	for _, i := range items {
		stored = append(stored, storedItem{
			ID:       i.ID,
			Name:     i.Name,
			Price:    json.Number(i.UnitPrice.String()),
			Quantity: i.Quantity,
		})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("error encoding cart: %w", err)
	}
	return string(data), nil
}

func decodeCart(payload string) ([]LineItem, error) {
	stored := []storedItem{}
	err := json.Unmarshal([]byte(payload), &stored)
	if err != nil {
		return nil, fmt.Errorf("error decoding cart: %w", err)
	}

	seen := map[ItemID]bool{}
	items := make([]LineItem, 0, len(stored))
	for idx, s := range stored {
		if s.ID == "" {
			return nil, fmt.Errorf("item %d has no id", idx)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("item %s occurs more than once", s.ID)
		}
		seen[s.ID] = true

		if s.Quantity <= 0 || s.Quantity > MaxQuantity {
			return nil, fmt.Errorf("item %s has quantity %d", s.ID, s.Quantity)
		}

		if len(s.Price) > maxPriceLength {
			return nil, fmt.Errorf("item %s has an oversized price", s.ID)
		}
		price, err := decimal.NewFromString(s.Price.String())
		if err != nil {
			return nil, fmt.Errorf("item %s has invalid price %q: %w", s.ID, s.Price, err)
		}
		err = ValidateUnitPrice(price)
		if err != nil {
			return nil, fmt.Errorf("item %s has invalid price: %w", s.ID, err)
		}

		items = append(items, LineItem{
			ID:        s.ID,
			Name:      s.Name,
			UnitPrice: price,
			Quantity:  s.Quantity,
		})
	}
	return items, nil
}
