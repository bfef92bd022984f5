package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bhdspro/pix-relay/handler"
	"github.com/bhdspro/pix-relay/metrics"
	"github.com/bhdspro/pix-relay/model"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "pix-relay"

// New builds the relay's HTTP surface. Requests carrying an Origin other than
// allowedOrigin are refused before any handler runs.
func New(allowedOrigin string, h *handler.PaymentHandler) http.Handler {
	r := mux.NewRouter()
	r.Use(metricsMiddleware, originGuard(allowedOrigin))

	r.HandleFunc("/create-payment", h.CreatePayment).Methods(http.MethodPost)
	r.HandleFunc("/check-payment/{id}", h.CheckPayment).Methods(http.MethodGet)
	if h.WebhookEnabled() {
		r.HandleFunc("/webhook", h.Webhook).Methods(http.MethodPost)
	}

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	return otelhttp.NewHandler(c.Handler(r), serviceName)
}

func originGuard(allowedOrigin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && origin != allowedOrigin {
				handler.WriteJSON(r.Context(), w, http.StatusForbidden, model.ErrorResponse{Error: "Origem não permitida."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		status := strconv.Itoa(rec.status)
		metrics.IncRequest(route, r.Method, status)
		metrics.ObserveRequest(route, status, time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// routeTemplate labels metrics with the matched path template, not the raw path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
