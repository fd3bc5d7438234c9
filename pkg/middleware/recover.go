package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mercadobetel/pdv/pkg/logger"
	"github.com/mercadobetel/pdv/pkg/metrics"
	"github.com/mercadobetel/pdv/pkg/reqid"
	"github.com/mercadobetel/pdv/pkg/response"
)

// panicMessage is shown to the operator. Carts live in their register's
// session, so a failed request leaves the sale in progress untouched.
const panicMessage = "The register hit an unexpected error; the sale in progress was kept. Retry the last action."

// Recovery turns a panic in any handler below it into a 500 envelope and
// counts it on pdv_handler_panics_total. The request id is read back from
// the response header set by reqid further down the chain.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			metrics.HandlerPanicked(r.Method)
			logger.WithCtx(r.Context()).Error("pdv: handler panicked",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", w.Header().Get(reqid.Header),
				"stack", string(debug.Stack()),
			)
			response.Error(w, http.StatusInternalServerError, panicMessage)
		}()
		next.ServeHTTP(w, r)
	})
}
