package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyride/service-booking/internal/platform/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      *ErrorBody      `json:"error"`
	Pagination *Pagination     `json:"pagination"`
}

func run(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestError_MapsDomainKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewNotFoundError("Booking", "1"), http.StatusNotFound, "BOOKING_NOT_FOUND"},
		{domain.NewValidationError("bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.NewInvalidStateError("A", "B"), http.StatusConflict, "INVALID_STATE"},
		{domain.NewConflictError("dup"), http.StatusConflict, "CONFLICT"},
		{domain.NewForbiddenError("no"), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("wrapped: %w", domain.NewNotFoundError("Vehicle", "2")), http.StatusNotFound, "VEHICLE_NOT_FOUND"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w, body := run(t, func(c *gin.Context) { Error(c, tc.err) })
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestError_HidesInternalErrors(t *testing.T) {
	w, body := run(t, func(c *gin.Context) { Error(c, errors.New("pq: connection refused")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "pq")
}

func TestPaginated(t *testing.T) {
	w, body := run(t, func(c *gin.Context) { Paginated(c, []int{1, 2}, 5, 1, 2) })
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.JSONEq(t, `[1,2]`, string(body.Data))
}
