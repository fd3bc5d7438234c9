package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRoutesCaptureParams(t *testing.T) {
	r := New()
	api := r.Group("/api")
	api.Get("/products/{id}", "products.show", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(Param(req, "id") + " " + Pattern(req)))
	})
	api.Delete("/products/{id}", "products.destroy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/42", nil))
	assert.Equal(t, "42 /api/products/{id}", rec.Body.String())

	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products/42", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNamedURL(t *testing.T) {
	r := New()
	r.Group("/api/registers/{register}").Put("/cart/lines/{product}", "cart.lines.update", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("cart.lines.update", map[string]string{"register": "main", "product": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/registers/main/cart/lines/7", url)

	_, err = r.URL("cart.lines.update", map[string]string{"register": "main"})
	assert.Error(t, err)
	_, err = r.URL("nope", nil)
	assert.Error(t, err)
}

func TestGroupMiddlewareOrderAndRouteTable(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, req)
			})
		}
	}

	r := New()
	g := r.Group("/a", mw("outer")).Group("/b", mw("inner"))
	g.Post("/c", "c", func(http.ResponseWriter, *http.Request) { order = append(order, "handler") })
	r.Get("/health", "health", func(http.ResponseWriter, *http.Request) {})

	r.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/a/b/c", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, Route{Method: http.MethodPost, Path: "/a/b/c", Name: "c"}, routes[0])
	assert.Equal(t, "/health", routes[1].Path)
}
