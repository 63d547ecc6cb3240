package rest

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/NordCoder/ems/internal/obs"
)

type Middleware func(runtime.HandlerFunc) runtime.HandlerFunc

// Chain applies mws so that the first one runs outermost.
func Chain(h runtime.HandlerFunc, mws ...Middleware) runtime.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type Router struct {
	mux *runtime.ServeMux
}

func NewRouter(mux *runtime.ServeMux) *Router { return &Router{mux: mux} }

func (rt *Router) Handle(method, pattern string, h runtime.HandlerFunc, mws ...Middleware) error {
	return rt.mux.HandlePath(method, pattern, Chain(h, append([]Middleware{instrument(pattern)}, mws...)...))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func instrument(route string) Middleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, p map[string]string) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(rec, r, p)
			obs.ObserveHTTP(route, r.Method, rec.status, time.Since(start))
		}
	}
}
