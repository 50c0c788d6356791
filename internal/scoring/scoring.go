// Package scoring exposes the trained risk pipeline over HTTP.
//
// The predict endpoint accepts a single feature-vector object or an array
// of them, validates at the boundary, and returns one dropout probability
// per input row in input order. Scoring is a pure computation over the
// immutable pipeline; no request mutates shared state.
package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eduriesgo/retencion/internal/model"
)

// requiredFields lists the feature keys every input row must supply,
// in pipeline column order.
var requiredFields = [...]string{
	"asistencia_pct",
	"notas_promedio",
	"interacciones",
	"semanas_registro",
}

// ValidationError is a client-caused input failure. It is reported to the
// caller as a 400-class structured response and never crashes the service.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ParseFeatureVectors decodes a predict request body into typed feature
// vectors. Accepts a JSON object or a JSON array of objects. Extra keys
// are ignored; missing or non-numeric required keys fail validation.
func ParseFeatureVectors(body []byte) ([]model.FeatureVector, *ValidationError) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, invalidf("request body is empty")
	}

	var raws []map[string]json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, invalidf("body must be a JSON array of feature objects: %v", err)
		}
	case '{':
		var single map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, invalidf("body must be a JSON feature object: %v", err)
		}
		raws = []map[string]json.RawMessage{single}
	default:
		return nil, invalidf("body must be a JSON object or array of objects")
	}

	if len(raws) == 0 {
		return nil, invalidf("request contains no feature vectors")
	}

	vectors := make([]model.FeatureVector, len(raws))
	for i, raw := range raws {
		v, err := parseRow(raw)
		if err != nil {
			if len(raws) > 1 {
				return nil, invalidf("row %d: %s", i, err.Message)
			}
			return nil, err
		}
		vectors[i] = v
	}

	return vectors, nil
}

func parseRow(raw map[string]json.RawMessage) (model.FeatureVector, *ValidationError) {
	var values [len(requiredFields)]float64
	for j, field := range requiredFields {
		rm, ok := raw[field]
		if !ok {
			return model.FeatureVector{}, invalidf("missing required field %q", field)
		}
		// Unmarshal treats JSON null as a no-op, so reject it explicitly.
		if string(rm) == "null" {
			return model.FeatureVector{}, invalidf("field %q must be numeric", field)
		}
		if err := json.Unmarshal(rm, &values[j]); err != nil {
			return model.FeatureVector{}, invalidf("field %q must be numeric", field)
		}
	}
	return model.FeatureVector{
		AsistenciaPct:   values[0],
		NotasPromedio:   values[1],
		Interacciones:   values[2],
		SemanasRegistro: values[3],
	}, nil
}
