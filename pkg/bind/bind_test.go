package bind

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity"   validate:"required,gte=1"`
}

func TestJSONDecodesAndValidates(t *testing.T) {
	var in lineRequest
	errs, err := JSON(httptest.NewRequest("POST", "/", strings.NewReader(`{"product_id":7,"quantity":2}`)), &in)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, int64(7), in.ProductID)

	errs, err = JSON(httptest.NewRequest("POST", "/", strings.NewReader(`{"product_id":7,"quantity":-1}`)), &lineRequest{})
	require.NoError(t, err)
	assert.Contains(t, errs, "quantity")
}

func TestJSONRejectsBadBodies(t *testing.T) {
	_, err := JSON(httptest.NewRequest("POST", "/", strings.NewReader(`{`)), &lineRequest{})
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = JSON(httptest.NewRequest("POST", "/", strings.NewReader(``)), &lineRequest{})
	assert.ErrorContains(t, err, "empty")
}
