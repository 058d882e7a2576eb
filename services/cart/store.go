package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/restaurantcart/lib/myerrors"
	"github.com/MarcGrol/restaurantcart/lib/mylog"
	"github.com/MarcGrol/restaurantcart/lib/mystore"
)

// Confirmer is the yes/no gate asked before a non-empty cart is cleared.
type Confirmer func(question string) bool

const clearCartQuestion = "Are you sure you want to clear all items from your cart?"

// MaxQuantity bounds a single line so quantity arithmetic cannot overflow.
const MaxQuantity = 999

// CartStore owns the line items of the session and mirrors them into the durable slot after every mutation.
type CartStore struct {
	sync.Mutex
	slots    mystore.Store[CartSlot]
	notifier Notifier
	logger   mylog.Logger
	items    []LineItem
}

// NewCartStore restores the cart from the slot; an absent or unreadable slot gives an empty cart.
func NewCartStore(c context.Context, slots mystore.Store[CartSlot], notifier Notifier, logger mylog.Logger) *CartStore {
	s := &CartStore{
		slots:    slots,
		notifier: notifier,
		logger:   logger,
		items:    []LineItem{},
	}
	s.items = s.load(c)
	return s
}

func (s *CartStore) load(c context.Context) []LineItem {
	items, err := s.read(c)
	if err != nil {
		s.logger.Log(c, CartSlotKey, mylog.SeverityWarn, "Error reading cart slot, starting empty: %s", err)
		return []LineItem{}
	}

	s.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Restored cart with %d line items", len(items))
	return items
}

func (s *CartStore) read(c context.Context) ([]LineItem, error) {
	slot, found, err := s.slots.Get(c, CartSlotKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []LineItem{}, nil
	}
	return decodeCart(slot.Payload)
}

// reload picks up what other instances wrote to the slot; on error the current items are kept.
func (s *CartStore) reload(c context.Context) {
	s.Lock()
	defer s.Unlock()

	items, err := s.read(c)
	if err != nil {
		s.logger.Log(c, CartSlotKey, mylog.SeverityWarn, "Error reloading cart slot, keeping %d line items: %s", len(s.items), err)
		return
	}
	s.items = items
}

// persist writes first and only then adopts the new items, so memory never runs ahead of storage.
func (s *CartStore) persist(c context.Context, items []LineItem) error {
	payload, err := encodeCart(items)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	err = s.slots.RunInTransaction(c, func(c context.Context) error {
		return s.slots.Put(c, CartSlotKey, CartSlot{Payload: payload})
	})
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing cart: %w", err))
	}

	s.items = items
	return nil
}

func (s *CartStore) AddItem(c context.Context, id ItemID, name string, unitPrice decimal.Decimal) error {
	if id == "" {
		return myerrors.NewInvalidInputErrorf("missing item id")
	}
	if name == "" {
		return myerrors.NewInvalidInputErrorf("missing name for item %s", id)
	}
	err := ValidateUnitPrice(unitPrice)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("invalid price for item %s: %w", id, err))
	}

	s.Lock()
	defer s.Unlock()

	items := slices.Clone(s.items)
	idx := indexOf(items, id)
	if idx >= 0 {
		if items[idx].Quantity >= MaxQuantity {
			return myerrors.NewInvalidInputErrorf("item %s already has the maximum quantity of %d", id, MaxQuantity)
		}
		items[idx].Quantity++
	} else {
		items = append(items, LineItem{
			ID:        id,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  1,
		})
	}

	err = s.persist(c, items)
	if err != nil {
		return err
	}

	s.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Added item %s (%s)", id, name)
	s.notifier.Notify(c, Notice{Message: fmt.Sprintf("%s added to cart!", name), Severity: SeveritySuccess})

	return nil
}

func (s *CartStore) RemoveItem(c context.Context, id ItemID) error {
	s.Lock()
	defer s.Unlock()

	return s.removeItem(c, id)
}

func (s *CartStore) removeItem(c context.Context, id ItemID) error {
	items := slices.DeleteFunc(slices.Clone(s.items), func(i LineItem) bool {
		return i.ID == id
	})

	err := s.persist(c, items)
	if err != nil {
		return err
	}

	s.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Removed item %s", id)
	s.notifier.Notify(c, Notice{Message: "Item removed from cart", Severity: SeverityInfo})

	return nil
}

func (s *CartStore) ChangeQuantity(c context.Context, id ItemID, delta int) error {
	s.Lock()
	defer s.Unlock()

	idx := indexOf(s.items, id)
	if idx < 0 {
		return nil
	}

	// quantity and bound are both small, so this cannot overflow
	if delta > MaxQuantity-s.items[idx].Quantity {
		return myerrors.NewInvalidInputErrorf("quantity of item %s must not exceed %d", id, MaxQuantity)
	}

	if s.items[idx].Quantity+delta <= 0 {
		return s.removeItem(c, id)
	}

	items := slices.Clone(s.items)
	items[idx].Quantity += delta

	err := s.persist(c, items)
	if err != nil {
		return err
	}

	s.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Changed quantity of item %s by %d to %d", id, delta, items[idx].Quantity)

	return nil
}

// Clear reports ClearResultNone whenever it returns an error.
func (s *CartStore) Clear(c context.Context, confirm Confirmer) (ClearResult, error) {
	s.Lock()
	defer s.Unlock()

	if len(s.items) == 0 {
		s.notifier.Notify(c, Notice{Message: "Cart is already empty", Severity: SeverityInfo})
		return ClearResultAlreadyEmpty, nil
	}

	if confirm == nil || !confirm(clearCartQuestion) {
		return ClearResultDeclined, nil
	}

	err := s.persist(c, []LineItem{})
	if err != nil {
		return ClearResultNone, err
	}

	s.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Cleared cart")
	s.notifier.Notify(c, Notice{Message: "Cart cleared successfully", Severity: SeveritySuccess})

	return ClearResultCleared, nil
}

// reset empties the cart without confirmation or notice; used once a payment is settled.
func (s *CartStore) reset(c context.Context) error {
	s.Lock()
	defer s.Unlock()

	return s.persist(c, []LineItem{})
}

func (s *CartStore) Items() []LineItem {
	s.Lock()
	defer s.Unlock()

	return slices.Clone(s.items)
}

func (s *CartStore) IsEmpty() bool {
	s.Lock()
	defer s.Unlock()

	return len(s.items) == 0
}

func (s *CartStore) TotalItemCount() int {
	s.Lock()
	defer s.Unlock()

	return calculateItemCount(s.items)
}

func (s *CartStore) Subtotal() decimal.Decimal {
	s.Lock()
	defer s.Unlock()

	return calculateSubtotal(s.items)
}

func (s *CartStore) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return Tax(subtotal)
}

func (s *CartStore) Total() decimal.Decimal {
	subtotal := s.Subtotal()
	return subtotal.Add(Tax(subtotal))
}

func indexOf(items []LineItem, id ItemID) int {
	return slices.IndexFunc(items, func(i LineItem) bool {
		return i.ID == id
	})
}
