package cart

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MarcGrol/restaurantcart/lib/mylog"
	"github.com/MarcGrol/restaurantcart/lib/mypublisher"
	"github.com/MarcGrol/restaurantcart/lib/myqueue"
	"github.com/MarcGrol/restaurantcart/lib/mystore"
	"github.com/MarcGrol/restaurantcart/lib/mytime"
	"github.com/MarcGrol/restaurantcart/lib/myuuid"
)

// BillArchive renders bills and keeps the printable result retrievable by uid.
type BillArchive interface {
	BillRenderer
	Get(c context.Context, billUID string) (RenderedBill, error)
}

type service struct {
	sync.Mutex
	cart        *CartStore
	settlements mystore.Store[Settlement]
	archive     BillArchive
	notifier    Notifier
	publisher   mypublisher.Publisher
	queue       myqueue.TaskQueuer
	formatter   billFormatter
	nower       mytime.Nower
	logger      mylog.Logger
	clearDelay  time.Duration
	// state only tracks the method selection of this instance; Settled is derived from the settlements
	state CheckoutState
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(c context.Context, cfg Config, slots mystore.Store[CartSlot], settlements mystore.Store[Settlement],
	archive BillArchive, notifier Notifier, pub mypublisher.Publisher, queue myqueue.TaskQueuer,
	nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		cart:        NewCartStore(c, slots, notifier, logger),
		settlements: settlements,
		archive:     archive,
		notifier:    notifier,
		publisher:   pub,
		queue:       queue,
		formatter:   newBillFormatter(nower, uuider, cfg.Location, cfg.Profile),
		nower:       nower,
		logger:      logger,
		clearDelay:  cfg.ClearDelay,
		state:       CheckoutStateIdle,
	}
}

func (s *service) Cart() *CartStore {
	return s.cart
}

// State is Settled while any paid bill awaits its settlement, also when it was paid on another instance.
func (s *service) State(c context.Context) CheckoutState {
	s.Lock()
	defer s.Unlock()

	return s.currentState(c)
}

// Snapshot returns the stored cart together with the checkout state.
func (s *service) Snapshot(c context.Context) ([]LineItem, CheckoutState) {
	s.Lock()
	defer s.Unlock()

	s.cart.reload(c)
	return s.cart.Items(), s.currentState(c)
}

func (s *service) currentState(c context.Context) CheckoutState {
	pending, err := s.pendingSettlements(c)
	if err != nil {
		s.logger.Log(c, CartSlotKey, mylog.SeverityWarn, "Error reading pending settlements: %s", err)
		return s.state
	}
	if len(pending) > 0 {
		return CheckoutStateSettled
	}
	return s.state
}

func (s *service) pendingSettlements(c context.Context) ([]Settlement, error) {
	found, err := s.settlements.Query(c, []mystore.Filter{{Field: "Cleared", Compare: "=", Value: false}}, "")
	if err != nil {
		return nil, err
	}

	// not every backend applies the filter
	pending := slices.DeleteFunc(found, func(p Settlement) bool {
		return p.Cleared
	})
	slices.SortFunc(pending, func(a, b Settlement) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return pending, nil
}
