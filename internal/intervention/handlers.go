package intervention

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduriesgo/retencion/internal/idgen"
	"github.com/eduriesgo/retencion/internal/metrics"
	"github.com/eduriesgo/retencion/internal/traces"
	"github.com/eduriesgo/retencion/internal/validation"
)

// EventEmitter receives newly recorded entries for live streaming.
type EventEmitter interface {
	InterventionRecorded(entry *Entry)
}

// Handler provides HTTP endpoints for the intervention ledger.
type Handler struct {
	store  Store
	logger *slog.Logger
	events EventEmitter // nil = no streaming
}

// NewHandler creates an intervention handler.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// WithEvents adds a real-time event emitter.
func (h *Handler) WithEvents(events EventEmitter) *Handler {
	h.events = events
	return h
}

// RegisterRoutes sets up intervention routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/intervene", h.RecordIntervention)
	r.GET("/interventions", h.ListInterventions)
}

// interventionRequest is the intervene payload. All fields are optional.
type interventionRequest struct {
	Student string         `json:"student"`
	Action  string         `json:"action"` // e.g. "email", "notificacion", "sms"
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta"`
}

// RecordIntervention handles POST /api/intervene.
// Stamps the entry with current UTC time and appends it to the ledger.
func (h *Handler) RecordIntervention(c *gin.Context) {
	var req interventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	if req.Meta == nil {
		req.Meta = map[string]any{}
	}

	entry := &Entry{
		ID:        idgen.WithPrefix("int_"),
		Timestamp: time.Now().UTC(),
		Student:   validation.SanitizeString(req.Student, validation.MaxStudentIDLength),
		Action:    validation.SanitizeString(req.Action, 100),
		Message:   validation.SanitizeString(req.Message, validation.MaxStringLength),
		Meta:      req.Meta,
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "intervention.record",
		traces.Student(entry.Student), traces.Action(entry.Action))
	defer span.End()

	if err := h.store.Record(ctx, entry); err != nil {
		h.logger.Error("failed to record intervention", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to record intervention",
		})
		return
	}

	// Stand-in for real delivery (SMTP, webhook): the action is only logged.
	h.logger.Info("intervention recorded",
		"id", entry.ID,
		"student", entry.Student,
		"action", entry.Action,
	)
	metrics.InterventionsTotal.WithLabelValues(actionLabel(entry.Action)).Inc()

	if h.events != nil {
		h.events.InterventionRecorded(entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"entry":  entry,
	})
}

// ListInterventions handles GET /api/interventions.
// Returns all entries in insertion order.
func (h *Handler) ListInterventions(c *gin.Context) {
	entries, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list interventions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to list interventions",
		})
		return
	}

	if entries == nil {
		entries = []*Entry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"interventions": entries,
	})
}

// actionLabel caps metric label cardinality for free-form action kinds.
var knownActions = map[string]bool{
	"email":        true,
	"sms":          true,
	"notificacion": true,
	"tutoria":      true,
	"llamada":      true,
}

func actionLabel(action string) string {
	if knownActions[action] {
		return action
	}
	return "other"
}
