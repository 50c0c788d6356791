// Package metrics provides Prometheus instrumentation for the retencion service.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retencion",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retencion",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PredictionsTotal counts scored feature vectors (rows, not requests).
	PredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "retencion",
		Name:      "predictions_total",
		Help:      "Total feature vectors scored.",
	})

	// PredictionBatchSize observes rows per predict request.
	PredictionBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "retencion",
		Name:      "prediction_batch_size",
		Help:      "Number of feature vectors per predict request.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})

	// InterventionsTotal counts recorded interventions by action kind.
	InterventionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retencion",
			Name:      "interventions_total",
			Help:      "Total interventions recorded by action kind.",
		},
		[]string{"action"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "retencion",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})

	// ModelTrainIterations records the optimizer iterations used at startup.
	ModelTrainIterations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "retencion",
		Name:      "model_train_iterations",
		Help:      "Gradient descent iterations used to fit the risk model.",
	})

	// ModelFinalLoss records the training log-loss of the fitted model.
	ModelFinalLoss = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "retencion",
		Name:      "model_final_loss",
		Help:      "Mean log-loss of the fitted risk model on its training cohort.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PredictionsTotal,
		PredictionBatchSize,
		InterventionsTotal,
		ActiveWebSocketClients,
		ModelTrainIterations,
		ModelFinalLoss,
	)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
