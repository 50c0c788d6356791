package intervention

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduriesgo/retencion/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type capturedEvents struct {
	entries []*Entry
}

func (c *capturedEvents) InterventionRecorded(e *Entry) {
	c.entries = append(c.entries, e)
}

func newTestRouter(events EventEmitter) *gin.Engine {
	h := NewHandler(NewMemoryStore(), logging.New("error", "text"))
	if events != nil {
		h = h.WithEvents(events)
	}
	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRecordIntervention_RoundTrip(t *testing.T) {
	r := newTestRouter(nil)

	w := doJSON(r, "POST", "/api/intervene",
		`{"student":"S1","action":"email","message":"tutoring offer","meta":{"curso":"math"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Entry  struct {
			ID        string         `json:"id"`
			Timestamp string         `json:"timestamp"`
			Student   string         `json:"student"`
			Action    string         `json:"action"`
			Message   string         `json:"message"`
			Meta      map[string]any `json:"meta"`
		} `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "S1", resp.Entry.Student)
	assert.Equal(t, "email", resp.Entry.Action)
	assert.Equal(t, "math", resp.Entry.Meta["curso"])
	assert.True(t, strings.HasPrefix(resp.Entry.ID, "int_"))

	// Timestamp is UTC ISO-8601 with a Z suffix.
	assert.True(t, strings.HasSuffix(resp.Entry.Timestamp, "Z"), "timestamp %q must end in Z", resp.Entry.Timestamp)
	ts, err := time.Parse(time.RFC3339Nano, resp.Entry.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, 5*time.Second)

	// The entry is visible via the read endpoint.
	lw := doJSON(r, "GET", "/api/interventions", "")
	require.Equal(t, http.StatusOK, lw.Code)

	var list struct {
		Status        string   `json:"status"`
		Interventions []*Entry `json:"interventions"`
	}
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &list))
	require.Len(t, list.Interventions, 1)
	assert.Equal(t, "S1", list.Interventions[0].Student)
}

func TestRecordIntervention_DefaultsMetaToEmptyObject(t *testing.T) {
	r := newTestRouter(nil)

	w := doJSON(r, "POST", "/api/intervene", `{"student":"S2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"meta":{}`)
}

func TestRecordIntervention_InvalidBody(t *testing.T) {
	r := newTestRouter(nil)

	w := doJSON(r, "POST", "/api/intervene", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestRecordIntervention_OrderAndTimestamps(t *testing.T) {
	r := newTestRouter(nil)

	doJSON(r, "POST", "/api/intervene", `{"student":"S1","action":"email"}`)
	doJSON(r, "POST", "/api/intervene", `{"student":"S2","action":"sms"}`)

	lw := doJSON(r, "GET", "/api/interventions", "")
	var list struct {
		Interventions []*Entry `json:"interventions"`
	}
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &list))
	require.Len(t, list.Interventions, 2)

	assert.Equal(t, "S1", list.Interventions[0].Student)
	assert.Equal(t, "S2", list.Interventions[1].Student)
	assert.False(t, list.Interventions[1].Timestamp.Before(list.Interventions[0].Timestamp),
		"timestamps must be non-decreasing in call order")
}

func TestListInterventions_EmptyLedger(t *testing.T) {
	r := newTestRouter(nil)

	w := doJSON(r, "GET", "/api/interventions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"interventions":[]`)
}

func TestRecordIntervention_EmitsEvent(t *testing.T) {
	events := &capturedEvents{}
	r := newTestRouter(events)

	doJSON(r, "POST", "/api/intervene", `{"student":"S1","action":"email"}`)

	require.Len(t, events.entries, 1)
	assert.Equal(t, "S1", events.entries[0].Student)
}

func TestActionLabel(t *testing.T) {
	assert.Equal(t, "email", actionLabel("email"))
	assert.Equal(t, "other", actionLabel("carrier-pigeon"))
}
