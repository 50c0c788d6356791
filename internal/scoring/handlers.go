package scoring

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduriesgo/retencion/internal/metrics"
	"github.com/eduriesgo/retencion/internal/model"
	"github.com/eduriesgo/retencion/internal/traces"
)

// Result is one scored row.
type Result struct {
	ProbAbandono float64 `json:"prob_abandono"`
}

// Handler serves predictions from a trained pipeline.
type Handler struct {
	scorer model.Scorer
}

// NewHandler creates a scoring handler backed by the given pipeline.
func NewHandler(scorer model.Scorer) *Handler {
	return &Handler{scorer: scorer}
}

// RegisterRoutes sets up scoring routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predict", h.Predict)
}

// Predict handles POST /api/predict.
// Input: a feature-vector object or an array of them.
// Output: {"status":"ok","results":[{"prob_abandono":p}, ...]} in input order.
func (h *Handler) Predict(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "failed to read request body",
		})
		return
	}

	vectors, verr := ParseFeatureVectors(body)
	if verr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": verr.Message,
		})
		return
	}

	_, span := traces.StartSpan(c.Request.Context(), "scoring.predict", traces.BatchSize(len(vectors)))
	defer span.End()

	results := make([]Result, len(vectors))
	for i, v := range vectors {
		results[i] = Result{ProbAbandono: h.scorer.PredictProbability(v)}
	}

	metrics.PredictionsTotal.Add(float64(len(results)))
	metrics.PredictionBatchSize.Observe(float64(len(results)))

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"results": results,
	})
}
