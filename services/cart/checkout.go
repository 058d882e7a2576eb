package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/restaurantcart/lib/myerrors"
	"github.com/MarcGrol/restaurantcart/lib/myevents"
	"github.com/MarcGrol/restaurantcart/lib/mylog"
	"github.com/MarcGrol/restaurantcart/lib/myqueue"
	"github.com/MarcGrol/restaurantcart/services/cart/cartevents"
)

var (
	ErrEmptyCart            = errors.New("your cart is empty")
	ErrSettlementInProgress = errors.New("a payment is being settled, the cart is read-only until it is cleared")
)

func settlementPath(billUID string) string {
	return fmt.Sprintf("/api/cart/settlement/%s", billUID)
}

// mutable refuses cart changes between payment and settlement so the cleared cart is exactly the billed one.
// It also brings the cart up to date with the slot, which other instances may have written.
func (s *service) mutable(c context.Context) error {
	pending, err := s.pendingSettlements(c)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error reading pending settlements: %w", err))
	}
	if len(pending) > 0 {
		return myerrors.NewConflictError(ErrSettlementInProgress)
	}

	s.cart.reload(c)
	return nil
}

func (s *service) AddItem(c context.Context, id ItemID, name string, unitPrice decimal.Decimal) error {
	s.Lock()
	defer s.Unlock()

	if err := s.mutable(c); err != nil {
		return err
	}
	return s.cart.AddItem(c, id, name, unitPrice)
}

func (s *service) RemoveItem(c context.Context, id ItemID) error {
	s.Lock()
	defer s.Unlock()

	if err := s.mutable(c); err != nil {
		return err
	}
	return s.cart.RemoveItem(c, id)
}

func (s *service) ChangeQuantity(c context.Context, id ItemID, delta int) error {
	s.Lock()
	defer s.Unlock()

	if err := s.mutable(c); err != nil {
		return err
	}
	return s.cart.ChangeQuantity(c, id, delta)
}

func (s *service) Clear(c context.Context, confirm Confirmer) (ClearResult, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.mutable(c); err != nil {
		return ClearResultNone, err
	}
	return s.cart.Clear(c, confirm)
}

func (s *service) emptyCart(c context.Context) error {
	s.notifier.Notify(c, Notice{Message: "Your cart is empty!", Severity: SeverityError})
	return myerrors.NewConflictError(ErrEmptyCart)
}

// Checkout opens the payment method selection; the cart itself is left untouched.
func (s *service) Checkout(c context.Context) (CheckoutOptions, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.mutable(c); err != nil {
		return CheckoutOptions{}, err
	}
	if s.cart.IsEmpty() {
		return CheckoutOptions{}, s.emptyCart(c)
	}

	s.state = CheckoutStateAwaitingMethodSelection
	s.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Checkout started, awaiting payment method")

	return CheckoutOptions{
		Total:   s.cart.Total(),
		Options: slices.Clone(paymentOptions),
	}, nil
}

func (s *service) CancelCheckout(c context.Context) {
	s.Lock()
	defer s.Unlock()

	if s.state == CheckoutStateAwaitingMethodSelection {
		s.state = CheckoutStateIdle
		s.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Checkout cancelled")
	}
}

// ProcessPayment bills the current cart and schedules the cart to be cleared once the bill is rendered.
func (s *service) ProcessPayment(c context.Context, method PaymentMethod) (Bill, error) {
	if _, ok := ParsePaymentMethod(string(method)); !ok {
		return Bill{}, myerrors.NewInvalidInputErrorf("unsupported payment method %q", method)
	}

	s.Lock()
	defer s.Unlock()

	if err := s.mutable(c); err != nil {
		return Bill{}, err
	}

	items := s.cart.Items()
	if len(items) == 0 {
		return Bill{}, s.emptyCart(c)
	}

	bill := s.formatter.format(items, method)

	err := s.archive.Render(c, bill)
	if err != nil {
		return Bill{}, err
	}

	err = s.scheduleSettlement(c, bill.UID, s.clearDelay)
	if err != nil {
		return Bill{}, myerrors.NewInternalError(fmt.Errorf("error scheduling settlement of bill %s: %w", bill.BillNumber, err))
	}

	err = s.settlements.Put(c, bill.UID, Settlement{
		BillUID:   bill.UID,
		CreatedAt: bill.CreatedAt,
	})
	if err != nil {
		return Bill{}, myerrors.NewInternalError(fmt.Errorf("error storing settlement of bill %s: %w", bill.BillNumber, err))
	}

	// from now on the pending settlement makes the state Settled
	s.state = CheckoutStateIdle

	s.logger.Log(c, bill.UID, mylog.SeverityInfo, "Payment of bill %s processed with %s: total %s", bill.BillNumber, method, FormatAmount(bill.Total))
	s.publish(c, cartevents.BillIssued{
		BillUID:       bill.UID,
		BillNumber:    bill.BillNumber,
		PaymentMethod: string(method),
		Total:         FormatAmount(bill.Total),
	})
	s.notifier.Notify(c, Notice{Message: "Payment processed successfully!", Severity: SeveritySuccess})

	return bill, nil
}

// PrintBill renders the current cart without payment and keeps the cart as it is.
func (s *service) PrintBill(c context.Context) (Bill, error) {
	s.Lock()
	defer s.Unlock()

	s.cart.reload(c)
	items := s.cart.Items()
	if len(items) == 0 {
		return Bill{}, s.emptyCart(c)
	}

	bill := s.formatter.format(items, "")

	err := s.archive.Render(c, bill)
	if err != nil {
		return Bill{}, err
	}

	s.logger.Log(c, bill.UID, mylog.SeverityInfo, "Printed bill %s: total %s", bill.BillNumber, FormatAmount(bill.Total))

	return bill, nil
}

// Settle clears the cart for a paid bill; repeated deliveries for the same bill are ignored.
func (s *service) Settle(c context.Context, billUID string) error {
	s.Lock()
	defer s.Unlock()

	return s.settle(c, billUID)
}

func (s *service) settle(c context.Context, billUID string) error {
	settlement, found, err := s.settlements.Get(c, billUID)
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	if !found {
		return myerrors.NewNotFoundError(fmt.Errorf("settlement for bill %s not found", billUID))
	}
	if settlement.Cleared {
		s.logger.Log(c, billUID, mylog.SeverityInfo, "Settlement of bill %s already done -> ignore", billUID)
		return nil
	}

	err = s.cart.reset(c)
	if err != nil {
		return err
	}

	settlement.Cleared = true
	err = s.settlements.Put(c, billUID, settlement)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	s.logger.Log(c, billUID, mylog.SeverityInfo, "Cart cleared after settlement of bill %s", billUID)
	s.publish(c, cartevents.CartCleared{BillUID: billUID})

	return nil
}

func (s *service) scheduleSettlement(c context.Context, billUID string, delay time.Duration) error {
	return s.queue.Enqueue(c, myqueue.Task{
		UID:            billUID,
		Method:         http.MethodPut,
		WebhookURLPath: settlementPath(billUID),
		Delay:          delay,
	})
}

// ResumePendingSettlements finishes settlements whose scheduled task got lost, e.g. by a restart.
// Settlements that are not due yet are scheduled again for the remainder of their delay.
func (s *service) ResumePendingSettlements(c context.Context) error {
	s.Lock()
	defer s.Unlock()

	pending, err := s.pendingSettlements(c)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	now := s.nower.Now()
	for _, p := range pending {
		due := p.CreatedAt.Add(s.clearDelay)
		if now.Before(due) {
			err = s.scheduleSettlement(c, p.BillUID, due.Sub(now))
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error rescheduling settlement of bill %s: %w", p.BillUID, err))
			}
			s.logger.Log(c, p.BillUID, mylog.SeverityInfo, "Settlement of bill %s not due yet, rescheduled", p.BillUID)
			continue
		}

		err = s.settle(c, p.BillUID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *service) publish(c context.Context, event myevents.Event) {
	err := s.publisher.Publish(c, cartevents.TopicName, event)
	if err != nil {
		s.logger.Log(c, event.GetAggregateName(), mylog.SeverityWarn, "Error publishing %s: %s", event.GetEventTypeName(), err)
	}
}
