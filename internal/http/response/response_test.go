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

	"github.com/yungbote/storefront-backend/internal/platform/apierr"
)

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondServiceError(c, err)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestRespondServiceErrorUsesAPIErrorStatus(t *testing.T) {
	rec, env := serve(t, fmt.Errorf("add line: %w", apierr.BadRequest("invalid_quantity", "quantity must be positive")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_quantity", env.Error.Code)
	assert.Equal(t, "quantity must be positive", env.Error.Message)
}

func TestRespondServiceErrorHidesInternalDetails(t *testing.T) {
	rec, env := serve(t, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", env.Error.Code)
	assert.Equal(t, "internal server error", env.Error.Message)
}

func TestRespondServiceErrorKeepsGatewayMessage(t *testing.T) {
	rec, env := serve(t, apierr.New(http.StatusBadGateway, "payment_unavailable", errors.New("payment provider unavailable")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "payment_unavailable", env.Error.Code)
	assert.Equal(t, "payment provider unavailable", env.Error.Message)
}
