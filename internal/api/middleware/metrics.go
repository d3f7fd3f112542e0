package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// HTTPMetrics интерфейс сборщика HTTP метрик
type HTTPMetrics interface {
	HTTPRequestStarted()
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware собирает метрики по шаблону маршрута mux,
// чтобы ID в пути не раздували кардинальность
func MetricsMiddleware(metrics HTTPMetrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.HTTPRequestStarted()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Наблюдение в defer: запрос, завершившийся паникой, тоже снимается с in-flight
			defer func() {
				status := rec.status
				panicked := recover()
				if panicked != nil {
					status = http.StatusInternalServerError
				}

				route := "unmatched"
				if current := mux.CurrentRoute(r); current != nil {
					if tpl, err := current.GetPathTemplate(); err == nil {
						route = tpl
					}
				}
				metrics.ObserveHTTPRequest(r.Method, route, status, time.Since(start))

				if panicked != nil {
					panic(panicked)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
