package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Broadcast pipeline metrics
var (
	SubscribersActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fsbrowser_subscribers_active",
			Help: "Number of event stream connections registered for broadcasts",
		},
		[]string{"transport"},
	)

	ChangeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsbrowser_change_events_total",
			Help: "Total filesystem change events broadcast",
		},
		[]string{"kind"},
	)

	DeliveryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fsbrowser_delivery_failures_total",
			Help: "Total change event deliveries that failed and pruned a subscriber",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsbrowser_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ListDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fsbrowser_list_duration_seconds",
			Help:    "Time to list a folder",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		SubscribersActive,
		ChangeEventsTotal,
		DeliveryFailuresTotal,
		HTTPRequestsTotal,
		ListDuration,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoMiddleware returns Echo middleware that instruments HTTP requests.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			HTTPRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()
			return err
		}
	}
}

// ObserveList records how long a listing took.
func ObserveList(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ListDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
