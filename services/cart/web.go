package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/restaurantcart/lib/mycontext"
	"github.com/MarcGrol/restaurantcart/lib/myerrors"
	"github.com/MarcGrol/restaurantcart/lib/myhttp"
	"github.com/MarcGrol/restaurantcart/services/cart/cartevents"
)

var formDecoder = form.NewDecoder()

type addItemRequest struct {
	ID    string `form:"id"`
	Name  string `form:"name"`
	Price string `form:"price"`
}

type changeQuantityRequest struct {
	Delta int `form:"delta"`
}

type clearRequest struct {
	Confirm bool `form:"confirm"`
}

type paymentRequest struct {
	Method string `form:"method"`
}

type lineView struct {
	ID        ItemID
	Name      string
	UnitPrice string
	Quantity  int
	LineTotal string
}

type cartView struct {
	Items          []lineView
	TotalItemCount int
	Subtotal       string
	Tax            string
	Total          string
	CheckoutState  string
}

type clearView struct {
	Result string
	Cart   cartView
}

type paymentOptionView struct {
	Method string
	Label  string
}

type checkoutView struct {
	Total   string
	Options []paymentOptionView
}

type billLineView struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type billView struct {
	UID           string
	BillNumber    string
	Timestamp     string
	PaymentMethod string
	Lines         []billLineView
	Subtotal      string
	Tax           string
	Total         string
	URL           string
}

func (s *service) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/cart", s.getCart()).Methods("GET")
	router.HandleFunc("/api/cart", s.clearCart()).Methods("DELETE")
	router.HandleFunc("/api/cart/item", s.addItem()).Methods("POST")
	router.HandleFunc("/api/cart/item/{itemID}", s.removeItem()).Methods("DELETE")
	router.HandleFunc("/api/cart/item/{itemID}/quantity", s.changeQuantity()).Methods("PUT")
	router.HandleFunc("/api/cart/checkout", s.startCheckout()).Methods("POST")
	router.HandleFunc("/api/cart/checkout", s.cancelCheckout()).Methods("DELETE")
	router.HandleFunc("/api/cart/payment", s.processPayment()).Methods("POST")
	router.HandleFunc("/api/cart/print", s.printBill()).Methods("POST")
	router.HandleFunc("/api/notifications", s.drainNotifications()).Methods("GET")
	router.HandleFunc("/bill/{billUID}", s.billPage()).Methods("GET")

	// The task queue calls this endpoint once the bill had time to be rendered
	router.HandleFunc("/api/cart/settlement/{billUID}", s.settlementWebhook()).Methods("PUT")

	err := s.publisher.CreateTopic(c, cartevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", cartevents.TopicName, err)
	}

	return nil
}

func decodeForm(r *http.Request, dest any) error {
	err := r.ParseForm()
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %w", err))
	}

	err = formDecoder.Decode(dest, r.Form)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %w", err))
	}
	return nil
}

func (s *service) cartView(c context.Context) cartView {
	items, state := s.Snapshot(c)

	lines := make([]lineView, 0, len(items))
	for _, i := range items {
		lines = append(lines, lineView{
			ID:        i.ID,
			Name:      i.Name,
			UnitPrice: FormatAmount(i.UnitPrice),
			Quantity:  i.Quantity,
			LineTotal: FormatAmount(i.LineTotal()),
		})
	}

	subtotal := calculateSubtotal(items)
	tax := Tax(subtotal)

	return cartView{
		Items:          lines,
		TotalItemCount: calculateItemCount(items),
		Subtotal:       FormatAmount(subtotal),
		Tax:            FormatAmount(tax),
		Total:          FormatAmount(subtotal.Add(tax)),
		CheckoutState:  state.String(),
	}
}

func toBillView(r *http.Request, bill Bill) billView {
	lines := make([]billLineView, 0, len(bill.Lines))
	for _, l := range bill.Lines {
		lines = append(lines, billLineView{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: FormatAmount(l.UnitPrice),
			LineTotal: FormatAmount(l.LineTotal),
		})
	}

	return billView{
		UID:           bill.UID,
		BillNumber:    bill.BillNumber,
		Timestamp:     bill.Timestamp,
		PaymentMethod: string(bill.PaymentMethod),
		Lines:         lines,
		Subtotal:      FormatAmount(bill.Subtotal),
		Tax:           FormatAmount(bill.Tax),
		Total:         FormatAmount(bill.Total),
		URL:           fmt.Sprintf("%s/bill/%s", myhttp.HostnameWithScheme(r), bill.UID),
	}
}

func (s *service) getCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		writer.Write(c, w, http.StatusOK, s.cartView(c))
	}
}

func (s *service) addItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		req := addItemRequest{}
		err := decodeForm(r, &req)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		price, err := ParsePrice(req.Price)
		if err != nil {
			writer.WriteError(c, w, 2, err)
			return
		}

		err = s.AddItem(c, ItemID(req.ID), req.Name, price)
		if err != nil {
			writer.WriteError(c, w, 3, err)
			return
		}

		writer.Write(c, w, http.StatusOK, s.cartView(c))
	}
}

func (s *service) removeItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		itemID := mux.Vars(r)["itemID"]

		err := s.RemoveItem(c, ItemID(itemID))
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		writer.Write(c, w, http.StatusOK, s.cartView(c))
	}
}

func (s *service) changeQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		itemID := mux.Vars(r)["itemID"]

		req := changeQuantityRequest{}
		err := decodeForm(r, &req)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		err = s.ChangeQuantity(c, ItemID(itemID), req.Delta)
		if err != nil {
			writer.WriteError(c, w, 2, err)
			return
		}

		writer.Write(c, w, http.StatusOK, s.cartView(c))
	}
}

func (s *service) clearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		req := clearRequest{}
		err := decodeForm(r, &req)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		result, err := s.Clear(c, func(question string) bool {
			return req.Confirm
		})
		if err != nil {
			writer.WriteError(c, w, 2, err)
			return
		}

		writer.Write(c, w, http.StatusOK, clearView{
			Result: result.String(),
			Cart:   s.cartView(c),
		})
	}
}

func (s *service) startCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		checkout, err := s.Checkout(c)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		options := make([]paymentOptionView, 0, len(checkout.Options))
		for _, o := range checkout.Options {
			options = append(options, paymentOptionView{Method: string(o.Method), Label: o.Label})
		}

		writer.Write(c, w, http.StatusOK, checkoutView{
			Total:   FormatAmount(checkout.Total),
			Options: options,
		})
	}
}

func (s *service) cancelCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		s.CancelCheckout(c)

		writer.Write(c, w, http.StatusOK, s.cartView(c))
	}
}

func (s *service) processPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		req := paymentRequest{}
		err := decodeForm(r, &req)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		method, ok := ParsePaymentMethod(req.Method)
		if !ok {
			writer.WriteError(c, w, 2, myerrors.NewInvalidInputErrorf("unsupported payment method %q", req.Method))
			return
		}

		bill, err := s.ProcessPayment(c, method)
		if err != nil {
			writer.WriteError(c, w, 3, err)
			return
		}

		writer.Write(c, w, http.StatusOK, toBillView(r, bill))
	}
}

func (s *service) printBill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		bill, err := s.PrintBill(c)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		writer.Write(c, w, http.StatusOK, toBillView(r, bill))
	}
}

func (s *service) settlementWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		billUID := mux.Vars(r)["billUID"]

		err := s.Settle(c, billUID)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		writer.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Settled bill %s", billUID),
		})
	}
}

func (s *service) drainNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		notices := []Notice{}
		if board, ok := s.notifier.(interface{ Drain() []Notice }); ok {
			notices = board.Drain()
		}

		writer.Write(c, w, http.StatusOK, notices)
	}
}

func (s *service) billPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		billUID := mux.Vars(r)["billUID"]

		rendered, err := s.archive.Get(c, billUID)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, rendered.HTML)
	}
}
