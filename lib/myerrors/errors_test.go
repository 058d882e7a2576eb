package myerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	myErr := fmt.Errorf("my error")

	testCases := []struct {
		name       string
		in         error
		httpStatus int
		errorText  string
	}{
		{
			name:       "No http error",
			in:         myErr,
			httpStatus: 500,
			errorText:  "my error",
		},
		{
			name:       "Invalid input error",
			in:         NewInvalidInputError(myErr),
			httpStatus: 400,
			errorText:  "status: 400, err: my error",
		},
		{
			name:       "Invalid input errorf",
			in:         NewInvalidInputErrorf("%s: %d", myErr.Error(), 123),
			httpStatus: 400,
			errorText:  "status: 400, err: my error: 123",
		},
		{
			name:       "Not found error",
			in:         NewNotFoundError(myErr),
			httpStatus: 404,
			errorText:  "status: 404, err: my error",
		},
		{
			name:       "Conflict error",
			in:         NewConflictError(myErr),
			httpStatus: 409,
			errorText:  "status: 409, err: my error",
		},
		{
			name:       "Internal error",
			in:         NewInternalError(myErr),
			httpStatus: 500,
			errorText:  "status: 500, err: my error",
		},
		{
			name:       "Wrapped error",
			in:         fmt.Errorf("outer: %w", NewConflictError(myErr)),
			httpStatus: 409,
			errorText:  "outer: status: 409, err: my error",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.httpStatus, GetHTTPStatus(tc.in))
			assert.Equal(t, tc.errorText, tc.in.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("cart is empty")

	err := NewConflictError(sentinel)

	assert.True(t, errors.Is(err, sentinel))
}
