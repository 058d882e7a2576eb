package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/restaurantcart/lib/mylog"
	"github.com/MarcGrol/restaurantcart/lib/mypublisher"
	"github.com/MarcGrol/restaurantcart/lib/myqueue"
	"github.com/MarcGrol/restaurantcart/lib/mystore"
	"github.com/MarcGrol/restaurantcart/lib/mytime"
	"github.com/MarcGrol/restaurantcart/lib/myuuid"
	"github.com/MarcGrol/restaurantcart/services/cart/cartevents"
)

func setupWeb(t *testing.T, ctrl *gomock.Controller, queueFactory func(router *mux.Router) myqueue.TaskQueuer) (context.Context, *mux.Router, *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	router := mux.NewRouter()

	slots, _, _ := mystore.NewInMemoryStore[CartSlot](c)
	settlements, _, _ := mystore.NewInMemoryStore[Settlement](c)
	bills, _, _ := mystore.NewInMemoryStore[RenderedBill](c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)
	logger := mylog.New("cart")

	cfg := DefaultConfig()
	cfg.ClearDelay = 10 * time.Millisecond

	sut := NewService(c, cfg, slots, settlements, NewHTMLBillRenderer(bills), NewNotificationBoard(logger), publisher,
		queueFactory(router), nower, uuider, logger)

	publisher.EXPECT().CreateTopic(gomock.Any(), cartevents.TopicName).Return(nil)
	err := sut.RegisterEndpoints(c, router)
	require.NoError(t, err)

	return c, router, nower, uuider, publisher
}

func mockQueue(ctrl *gomock.Controller) func(router *mux.Router) myqueue.TaskQueuer {
	return func(router *mux.Router) myqueue.TaskQueuer {
		queue := myqueue.NewMockTaskQueuer(ctrl)
		queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		return queue
	}
}

func call(t *testing.T, router *mux.Router, method string, path string, form url.Values) *httptest.ResponseRecorder {
	var request *http.Request
	var err error
	if form != nil {
		request, err = http.NewRequest(method, path, strings.NewReader(form.Encode()))
		require.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		request, err = http.NewRequest(method, path, nil)
		require.NoError(t, err)
	}
	request.Host = "localhost:8080"
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func decodeCartView(t *testing.T, response *httptest.ResponseRecorder) cartView {
	view := cartView{}
	err := json.Unmarshal(response.Body.Bytes(), &view)
	require.NoError(t, err)
	return view
}

func TestCartWeb(t *testing.T) {

	t.Run("Empty cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))

		// when
		response := call(t, router, http.MethodGet, "/api/cart", nil)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		view := decodeCartView(t, response)
		assert.Empty(t, view.Items)
		assert.Equal(t, "0.00", view.Total)
		assert.Equal(t, "idle", view.CheckoutState)
	})

	t.Run("Add, change and remove items", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))

		// when
		response := call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"1"}, "name": {"Masala Dosa"}, "price": {"50"}})
		assert.Equal(t, http.StatusOK, response.Code)
		response = call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"2"}, "name": {"Tea"}, "price": {"20"}})
		assert.Equal(t, http.StatusOK, response.Code)
		response = call(t, router, http.MethodPut, "/api/cart/item/1/quantity", url.Values{"delta": {"1"}})

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		view := decodeCartView(t, response)
		require.Len(t, view.Items, 2)
		assert.Equal(t, lineView{ID: "1", Name: "Masala Dosa", UnitPrice: "50.00", Quantity: 2, LineTotal: "100.00"}, view.Items[0])
		assert.Equal(t, 3, view.TotalItemCount)
		assert.Equal(t, "120.00", view.Subtotal)
		assert.Equal(t, "6.00", view.Tax)
		assert.Equal(t, "126.00", view.Total)

		// when
		response = call(t, router, http.MethodDelete, "/api/cart/item/2", nil)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		view = decodeCartView(t, response)
		require.Len(t, view.Items, 1)
		assert.Equal(t, "105.00", view.Total)

		// when
		response = call(t, router, http.MethodGet, "/api/notifications", nil)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		notices := []Notice{}
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &notices))
		assert.Equal(t, []Notice{
			{Message: "Masala Dosa added to cart!", Severity: SeveritySuccess},
			{Message: "Tea added to cart!", Severity: SeveritySuccess},
			{Message: "Item removed from cart", Severity: SeverityInfo},
		}, notices)
	})

	t.Run("Add item with invalid price", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))

		// when
		response := call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"1"}, "name": {"Masala Dosa"}, "price": {"NaN"}})

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})

	t.Run("Add item with huge exponent", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))

		// when
		response := call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"1"}, "name": {"Masala Dosa"}, "price": {"1e2000000000"}})

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
		view := decodeCartView(t, call(t, router, http.MethodGet, "/api/cart", nil))
		assert.Empty(t, view.Items)
	})

	t.Run("Change quantity beyond maximum", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))
		call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"1"}, "name": {"Masala Dosa"}, "price": {"50"}})

		// when
		response := call(t, router, http.MethodPut, "/api/cart/item/1/quantity", url.Values{"delta": {"9223372036854775807"}})

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
		view := decodeCartView(t, call(t, router, http.MethodGet, "/api/cart", nil))
		require.Len(t, view.Items, 1)
		assert.Equal(t, 1, view.Items[0].Quantity)
		assert.Equal(t, "52.50", view.Total)
	})

	t.Run("Clear cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))
		call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"1"}, "name": {"Masala Dosa"}, "price": {"50"}})

		// when
		declined := call(t, router, http.MethodDelete, "/api/cart?confirm=false", nil)
		cleared := call(t, router, http.MethodDelete, "/api/cart?confirm=true", nil)
		again := call(t, router, http.MethodDelete, "/api/cart?confirm=true", nil)

		// then
		assert.Equal(t, http.StatusOK, declined.Code)
		assert.Contains(t, declined.Body.String(), `"Result": "declined"`)
		assert.Contains(t, cleared.Body.String(), `"Result": "cleared"`)
		assert.Contains(t, again.Body.String(), `"Result": "already-empty"`)
	})

	t.Run("Checkout empty cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))

		// when
		response := call(t, router, http.MethodPost, "/api/cart/checkout", nil)

		// then
		assert.Equal(t, http.StatusConflict, response.Code)
	})

	t.Run("Checkout and cancel", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))
		call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"2"}, "name": {"Tea"}, "price": {"20"}})

		// when
		response := call(t, router, http.MethodPost, "/api/cart/checkout", nil)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		checkout := checkoutView{}
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &checkout))
		assert.Equal(t, "21.00", checkout.Total)
		assert.Len(t, checkout.Options, 4)
		assert.Equal(t, paymentOptionView{Method: "upi", Label: "UPI Payment"}, checkout.Options[2])

		// when
		response = call(t, router, http.MethodDelete, "/api/cart/checkout", nil)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Equal(t, "idle", decodeCartView(t, response).CheckoutState)
	})

	t.Run("Pay with unknown method", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))
		call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"2"}, "name": {"Tea"}, "price": {"20"}})

		// when
		response := call(t, router, http.MethodPost, "/api/cart/payment", url.Values{"method": {"bitcoin"}})

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})

	t.Run("Print bill", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, nower, uuider, _ := setupWeb(t, ctrl, mockQueue(ctrl))
		call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"2"}, "name": {"Tea"}, "price": {"20"}})
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("print-1")

		// when
		response := call(t, router, http.MethodPost, "/api/cart/print", nil)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		bill := billView{}
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &bill))
		assert.Equal(t, "", bill.PaymentMethod)
		assert.Equal(t, "http://localhost:8080/bill/print-1", bill.URL)

		cart := decodeCartView(t, call(t, router, http.MethodGet, "/api/cart", nil))
		assert.Equal(t, 1, cart.TotalItemCount)
	})

	t.Run("Bill not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// given
		_, router, _, _, _ := setupWeb(t, ctrl, mockQueue(ctrl))

		// when
		response := call(t, router, http.MethodGet, "/bill/unknown", nil)

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})
}

func TestPaymentIsSettledByLocalQueue(t *testing.T) {
	ctrl := gomock.NewController(t)

	// setup
	var queue interface{ Wait() }
	_, router, nower, uuider, publisher := setupWeb(t, ctrl, func(router *mux.Router) myqueue.TaskQueuer {
		local := myqueue.NewLocal(router)
		queue = local
		return local
	})

	// given
	for i := 0; i < 3; i++ {
		call(t, router, http.MethodPost, "/api/cart/item", url.Values{"id": {"2"}, "name": {"Tea"}, "price": {"20"}})
	}
	nower.EXPECT().Now().Return(mytime.ExampleTime)
	uuider.EXPECT().Create().Return("bill-1")
	publisher.EXPECT().Publish(gomock.Any(), cartevents.TopicName, gomock.AssignableToTypeOf(cartevents.BillIssued{})).Return(nil)
	publisher.EXPECT().Publish(gomock.Any(), cartevents.TopicName, cartevents.CartCleared{BillUID: "bill-1"}).Return(nil)

	// when
	response := call(t, router, http.MethodPost, "/api/cart/payment", url.Values{"method": {"upi"}})

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	bill := billView{}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &bill))
	assert.Equal(t, "BILL-339000", bill.BillNumber)
	assert.Equal(t, "upi", bill.PaymentMethod)
	assert.Equal(t, "63.00", bill.Total)

	page := call(t, router, http.MethodGet, "/bill/bill-1", nil)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Payment Method:</strong> UPI")

	// when
	queue.Wait()

	// then
	cart := decodeCartView(t, call(t, router, http.MethodGet, "/api/cart", nil))
	assert.Empty(t, cart.Items)
	assert.Equal(t, "idle", cart.CheckoutState)
}
