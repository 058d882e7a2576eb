package myhttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/restaurantcart/lib/myerrors"
	"github.com/MarcGrol/restaurantcart/lib/mylog"
)

func TestResponseWriter(t *testing.T) {
	c := context.TODO()
	writer := NewWriter(mylog.New("myhttp"))

	t.Run("Error", func(t *testing.T) {
		response := httptest.NewRecorder()

		writer.WriteError(c, response, 3, myerrors.NewConflictError(fmt.Errorf("cart is empty")))

		assert.Equal(t, http.StatusConflict, response.Code)
		assert.Equal(t, "application/json", response.Header().Get("Content-Type"))
		assert.Contains(t, response.Body.String(), `"ErrorCode": 3`)
		assert.Contains(t, response.Body.String(), "cart is empty")
	})

	t.Run("Success", func(t *testing.T) {
		response := httptest.NewRecorder()

		writer.Write(c, response, http.StatusOK, SuccessResponse{Message: "ok"})

		assert.Equal(t, http.StatusOK, response.Code)
		assert.Contains(t, response.Body.String(), `"Message": "ok"`)
	})
}

func TestHostnameWithScheme(t *testing.T) {
	request, err := http.NewRequest(http.MethodGet, "/bill/123", nil)
	assert.NoError(t, err)
	request.Host = "localhost:8888"

	assert.Equal(t, "http://localhost:8888", HostnameWithScheme(request))
}
