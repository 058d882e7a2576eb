package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/restaurantcart/lib/mylog"
	"github.com/MarcGrol/restaurantcart/lib/mypublisher"
	"github.com/MarcGrol/restaurantcart/lib/mypubsub"
	"github.com/MarcGrol/restaurantcart/lib/myqueue"
	"github.com/MarcGrol/restaurantcart/lib/mystore"
	"github.com/MarcGrol/restaurantcart/lib/mytime"
	"github.com/MarcGrol/restaurantcart/lib/myuuid"
	"github.com/MarcGrol/restaurantcart/services/cart"
	"github.com/MarcGrol/restaurantcart/services/warmup"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()

	cfg, err := cart.ConfigFromEnvironment()
	if err != nil {
		log.Fatalf("Error reading cart configuration: %s", err)
	}

	slotStore, slotStoreCleanup, err := mystore.New[cart.CartSlot](c)
	if err != nil {
		log.Fatalf("Error creating cart store: %s", err)
	}
	defer slotStoreCleanup()

	settlementStore, settlementStoreCleanup, err := mystore.New[cart.Settlement](c)
	if err != nil {
		log.Fatalf("Error creating settlement store: %s", err)
	}
	defer settlementStoreCleanup()

	billStore, billStoreCleanup, err := mystore.New[cart.RenderedBill](c)
	if err != nil {
		log.Fatalf("Error creating bill store: %s", err)
	}
	defer billStoreCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := createQueue(c, router)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	logger := mylog.New("cart")

	cartService := cart.NewService(c, cfg, slotStore, settlementStore, cart.NewHTMLBillRenderer(billStore),
		cart.NewNotificationBoard(logger), mypublisher.New(pubsub, mytime.RealNower{}), queue,
		mytime.RealNower{}, myuuid.RealUUIDer{}, logger)
	err = cartService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering cart endpoints: %s", err)
	}

	warmupService := warmup.NewService(cartService)
	warmupService.RegisterEndpoints(c, router)
	err = warmupService.Warmup(c)
	if err != nil {
		log.Fatalf("Error resuming pending settlements: %s", err)
	}

	startWebServerBlocking(router)
}

// createQueue uses Cloud Tasks when running on Google Cloud and delivers in-process otherwise.
func createQueue(c context.Context, router *mux.Router) (myqueue.TaskQueuer, func(), error) {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return myqueue.NewGcloud(c)
	}
	return myqueue.NewLocal(router), func() {}, nil
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s/api/cart)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
