// Package model fits and applies the dropout risk pipeline.
//
// The pipeline is two sequential transforms: per-feature standardization
// (mean/variance learned from the training cohort) followed by a
// maximum-likelihood logistic regression. It is fit exactly once at process
// start and is immutable afterwards, so it is safe to share across
// concurrent scoring requests without locking.
package model

import (
	"errors"
	"math"

	"github.com/eduriesgo/retencion/internal/cohort"
)

// ErrEmptyCohort is returned when Train is given no observations.
// This is a startup-time config error; the server must not serve without a pipeline.
var ErrEmptyCohort = errors.New("model: cannot train on an empty cohort")

const numFeatures = 4

// FeatureVector is one student observation submitted for scoring.
// Field order matches the training cohort's column order.
type FeatureVector struct {
	AsistenciaPct   float64 `json:"asistencia_pct"`
	NotasPromedio   float64 `json:"notas_promedio"`
	Interacciones   float64 `json:"interacciones"`
	SemanasRegistro float64 `json:"semanas_registro"`
}

func (v FeatureVector) columns() [numFeatures]float64 {
	return [numFeatures]float64{v.AsistenciaPct, v.NotasPromedio, v.Interacciones, v.SemanasRegistro}
}

// Scorer produces a dropout probability for a feature vector.
// Implementations must be safe for concurrent use.
type Scorer interface {
	PredictProbability(v FeatureVector) float64
}

// Standardizer holds per-feature mean and standard deviation learned
// from the training cohort. Labels are excluded from the fit.
type Standardizer struct {
	Mean   [numFeatures]float64
	StdDev [numFeatures]float64
}

func fitStandardizer(rows [][numFeatures]float64) Standardizer {
	var s Standardizer
	n := float64(len(rows))

	for _, row := range rows {
		for j, x := range row {
			s.Mean[j] += x
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}

	for _, row := range rows {
		for j, x := range row {
			d := x - s.Mean[j]
			s.StdDev[j] += d * d
		}
	}
	for j := range s.StdDev {
		s.StdDev[j] = math.Sqrt(s.StdDev[j] / n)
		if s.StdDev[j] == 0 {
			// Constant column: pass through unscaled
			s.StdDev[j] = 1
		}
	}

	return s
}

func (s Standardizer) transform(x [numFeatures]float64) [numFeatures]float64 {
	var out [numFeatures]float64
	for j := range x {
		out[j] = (x[j] - s.Mean[j]) / s.StdDev[j]
	}
	return out
}

// logisticRegression is a fitted linear-logistic decision function over
// standardized features.
type logisticRegression struct {
	weights [numFeatures]float64
	bias    float64
}

func (lr logisticRegression) probability(x [numFeatures]float64) float64 {
	z := lr.bias
	for j, w := range lr.weights {
		z += w * x[j]
	}
	return sigmoid(z)
}

// TrainStats describes the optimizer run that produced a pipeline.
type TrainStats struct {
	Iterations int
	FinalLoss  float64
	Converged  bool
}

// Pipeline is the immutable trained scoring function: standardization
// followed by the logistic decision function.
type Pipeline struct {
	scaler Standardizer
	clf    logisticRegression
	stats  TrainStats
}

// Optimizer settings. Gradient descent on standardized features converges
// quickly; on cap-out the last iterate is kept rather than failing.
const (
	maxIterations     = 1000
	learningRate      = 0.5
	gradientTolerance = 1e-6
)

// Train fits the pipeline on a labeled cohort. The only error condition is
// an empty cohort; non-convergence within the iteration cap is a silent
// quality degradation reported through Stats, not an error.
func Train(observations []cohort.Observation) (*Pipeline, error) {
	if len(observations) == 0 {
		return nil, ErrEmptyCohort
	}

	rows := make([][numFeatures]float64, len(observations))
	labels := make([]float64, len(observations))
	for i, o := range observations {
		rows[i] = [numFeatures]float64{o.AsistenciaPct, o.NotasPromedio, o.Interacciones, o.SemanasRegistro}
		labels[i] = float64(o.Abandono)
	}

	scaler := fitStandardizer(rows)
	for i := range rows {
		rows[i] = scaler.transform(rows[i])
	}

	clf, stats := fitLogistic(rows, labels)

	return &Pipeline{scaler: scaler, clf: clf, stats: stats}, nil
}

// fitLogistic runs batch gradient descent on the mean log-loss.
func fitLogistic(rows [][numFeatures]float64, labels []float64) (logisticRegression, TrainStats) {
	var clf logisticRegression
	n := float64(len(rows))
	stats := TrainStats{}

	for iter := 0; iter < maxIterations; iter++ {
		var gradW [numFeatures]float64
		var gradB float64

		for i, row := range rows {
			residual := clf.probability(row) - labels[i]
			for j, x := range row {
				gradW[j] += residual * x
			}
			gradB += residual
		}

		norm := gradB * gradB
		for j := range gradW {
			gradW[j] /= n
			norm += gradW[j] * gradW[j]
		}
		gradB /= n

		stats.Iterations = iter + 1
		if math.Sqrt(norm) < gradientTolerance {
			stats.Converged = true
			break
		}

		for j := range clf.weights {
			clf.weights[j] -= learningRate * gradW[j]
		}
		clf.bias -= learningRate * gradB
	}

	stats.FinalLoss = logLoss(clf, rows, labels)
	return clf, stats
}

// logLoss computes the mean negative log-likelihood with probability
// clamping to keep the result finite.
func logLoss(clf logisticRegression, rows [][numFeatures]float64, labels []float64) float64 {
	const eps = 1e-12
	var loss float64
	for i, row := range rows {
		p := clf.probability(row)
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		loss += -(labels[i]*math.Log(p) + (1-labels[i])*math.Log(1-p))
	}
	return loss / float64(len(rows))
}

// PredictProbability returns P(abandono=1) for the given features, in [0,1].
// Pure computation over the fitted transforms; no shared state is touched.
func (p *Pipeline) PredictProbability(v FeatureVector) float64 {
	return p.clf.probability(p.scaler.transform(v.columns()))
}

// Stats reports how the optimizer run went.
func (p *Pipeline) Stats() TrainStats {
	return p.stats
}

// Scaler exposes the fitted standardization parameters.
func (p *Pipeline) Scaler() Standardizer {
	return p.scaler
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
