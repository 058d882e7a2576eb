package cart

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartSlotKey is the durable slot the cart is mirrored into.
const CartSlotKey = "restaurantCart"

type ItemID string

// UnmarshalJSON also accepts the numeric ids the browser widget used to write.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ItemID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id %s is neither string nor number", string(data))
	}
	*id = ItemID(n.String())
	return nil
}

type LineItem struct {
	ID        ItemID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartSlot is the durable representation: Payload holds the json encoded line items.
type CartSlot struct {
	Payload string `datastore:",noindex"`
}

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

type Notice struct {
	Message  string
	Severity Severity
}

type ClearResult int

const (
	ClearResultNone ClearResult = iota
	ClearResultCleared
	ClearResultAlreadyEmpty
	ClearResultDeclined
)

func (r ClearResult) String() string {
	switch r {
	case ClearResultNone:
		return "none"
	case ClearResultCleared:
		return "cleared"
	case ClearResultAlreadyEmpty:
		return "already-empty"
	case ClearResultDeclined:
		return "declined"
	default:
		return "unknown"
	}
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodOnline PaymentMethod = "online"
)

type PaymentOption struct {
	Method PaymentMethod
	Label  string
}

var paymentOptions = []PaymentOption{
	{Method: PaymentMethodCash, Label: "Cash on Delivery"},
	{Method: PaymentMethodCard, Label: "Card Payment"},
	{Method: PaymentMethodUPI, Label: "UPI Payment"},
	{Method: PaymentMethodOnline, Label: "Online Payment"},
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, o := range paymentOptions {
		if string(o.Method) == strings.ToLower(strings.TrimSpace(s)) {
			return o.Method, true
		}
	}
	return "", false
}

type CheckoutState int

const (
	CheckoutStateIdle CheckoutState = iota
	CheckoutStateAwaitingMethodSelection
	CheckoutStateSettled
)

func (s CheckoutState) String() string {
	switch s {
	case CheckoutStateIdle:
		return "idle"
	case CheckoutStateAwaitingMethodSelection:
		return "awaiting-method-selection"
	case CheckoutStateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

type CheckoutOptions struct {
	Total   decimal.Decimal
	Options []PaymentOption
}

type BillLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Bill is a snapshot of the cart taken at checkout; it is never modified.
type Bill struct {
	UID           string
	BillNumber    string
	Timestamp     string
	CreatedAt     time.Time
	PaymentMethod PaymentMethod
	Lines         []BillLine
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Restaurant    Profile
}

func (b Bill) IsPaid() bool {
	return b.PaymentMethod != ""
}

func (b Bill) PaymentMethodLabel() string {
	return strings.ToUpper(string(b.PaymentMethod))
}

func (b Bill) Amount(d decimal.Decimal) string {
	return b.Restaurant.CurrencySymbol + FormatAmount(d)
}

type RenderedBill struct {
	UID        string
	BillNumber string
	CreatedAt  time.Time
	HTML       string `datastore:",noindex"`
}

// Settlement tracks the pending cart clear that follows a payment.
type Settlement struct {
	BillUID   string
	CreatedAt time.Time
	Cleared   bool
}
