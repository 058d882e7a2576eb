package warmup

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/restaurantcart/lib/mycontext"
	"github.com/MarcGrol/restaurantcart/lib/myhttp"
	"github.com/MarcGrol/restaurantcart/lib/mylog"
)

// Resumer finishes work that was interrupted by a restart.
type Resumer interface {
	ResumePendingSettlements(c context.Context) error
}

type webService struct {
	logger  mylog.Logger
	resumer Resumer
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(resumer Resumer) *webService {
	return &webService{
		logger:  mylog.New("warmup"),
		resumer: resumer,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

// Warmup is called once at startup and again on every warmup request of the platform.
func (s webService) Warmup(c context.Context) error {
	err := s.resumer.ResumePendingSettlements(c)
	if err != nil {
		return err
	}
	s.logger.Log(c, "", mylog.SeverityInfo, "Warmup completed")
	return nil
}

func (s webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.Warmup(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
