package model

import (
	"math"
	"testing"

	"github.com/eduriesgo/retencion/internal/cohort"
)

func trainTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := Train(cohort.Generate(2000, 42))
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	return p
}

func TestTrain_EmptyCohort(t *testing.T) {
	if _, err := Train(nil); err != ErrEmptyCohort {
		t.Fatalf("expected ErrEmptyCohort, got %v", err)
	}
}

func TestTrain_Deterministic(t *testing.T) {
	a := trainTestPipeline(t)
	b := trainTestPipeline(t)

	v := FeatureVector{AsistenciaPct: 55, NotasPromedio: 60, Interacciones: 4, SemanasRegistro: 20}
	if a.PredictProbability(v) != b.PredictProbability(v) {
		t.Error("same cohort must produce the same pipeline")
	}
}

func TestStandardizer_CentersAndScales(t *testing.T) {
	obs := cohort.Generate(2000, 42)
	p := trainTestPipeline(t)
	s := p.Scaler()

	// Transformed training columns should have mean ~0 and std ~1.
	var sum, sumSq [numFeatures]float64
	for _, o := range obs {
		x := s.transform([numFeatures]float64{o.AsistenciaPct, o.NotasPromedio, o.Interacciones, o.SemanasRegistro})
		for j, v := range x {
			sum[j] += v
			sumSq[j] += v * v
		}
	}
	n := float64(len(obs))
	for j := 0; j < numFeatures; j++ {
		mean := sum[j] / n
		std := math.Sqrt(sumSq[j]/n - mean*mean)
		if math.Abs(mean) > 1e-9 {
			t.Errorf("feature %d: standardized mean %g not ~0", j, mean)
		}
		if math.Abs(std-1) > 1e-9 {
			t.Errorf("feature %d: standardized std %g not ~1", j, std)
		}
	}
}

func TestStandardizer_ConstantColumn(t *testing.T) {
	rows := [][numFeatures]float64{
		{1, 5, 0, 3},
		{2, 5, 1, 3},
		{3, 5, 2, 3},
	}
	s := fitStandardizer(rows)
	for j, std := range s.StdDev {
		if std == 0 {
			t.Errorf("feature %d: zero std must be replaced to avoid division by zero", j)
		}
	}
	// Constant column maps to exactly zero
	out := s.transform(rows[0])
	if out[1] != 0 || out[3] != 0 {
		t.Errorf("constant columns should standardize to 0, got %v", out)
	}
}

func TestPredictProbability_InUnitInterval(t *testing.T) {
	p := trainTestPipeline(t)

	vectors := []FeatureVector{
		{AsistenciaPct: 0, NotasPromedio: 0, Interacciones: 0, SemanasRegistro: 0},
		{AsistenciaPct: 100, NotasPromedio: 100, Interacciones: 20, SemanasRegistro: 39},
		{AsistenciaPct: -50, NotasPromedio: 500, Interacciones: -3, SemanasRegistro: 1000},
		{AsistenciaPct: 65, NotasPromedio: 70, Interacciones: 7, SemanasRegistro: 12},
	}
	for _, v := range vectors {
		prob := p.PredictProbability(v)
		if prob < 0 || prob > 1 {
			t.Errorf("probability %f out of [0,1] for %+v", prob, v)
		}
	}
}

func TestPredictProbability_MonotonicSanity(t *testing.T) {
	p := trainTestPipeline(t)

	engaged := FeatureVector{AsistenciaPct: 98, NotasPromedio: 95, Interacciones: 8, SemanasRegistro: 2}
	atRisk := FeatureVector{AsistenciaPct: 31, NotasPromedio: 32, Interacciones: 8, SemanasRegistro: 38}

	if p.PredictProbability(engaged) >= p.PredictProbability(atRisk) {
		t.Errorf("engaged student (%f) should score lower than at-risk student (%f)",
			p.PredictProbability(engaged), p.PredictProbability(atRisk))
	}
}

func TestTrain_RecoversCoefficientSigns(t *testing.T) {
	p := trainTestPipeline(t)

	base := FeatureVector{AsistenciaPct: 65, NotasPromedio: 65, Interacciones: 7, SemanasRegistro: 20}
	baseProb := p.PredictProbability(base)

	// Bumping a protective feature lowers risk; bumping weeks raises it.
	higher := base
	higher.AsistenciaPct += 30
	if p.PredictProbability(higher) >= baseProb {
		t.Error("higher attendance should lower dropout probability")
	}

	higher = base
	higher.NotasPromedio += 30
	if p.PredictProbability(higher) >= baseProb {
		t.Error("higher grades should lower dropout probability")
	}

	higher = base
	higher.SemanasRegistro += 15
	if p.PredictProbability(higher) <= baseProb {
		t.Error("more weeks enrolled should raise dropout probability")
	}
}

func TestTrain_FitsTrainingCohort(t *testing.T) {
	obs := cohort.Generate(2000, 42)
	p, err := Train(obs)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	correct := 0
	for _, o := range obs {
		v := FeatureVector{o.AsistenciaPct, o.NotasPromedio, o.Interacciones, o.SemanasRegistro}
		pred := 0
		if p.PredictProbability(v) > 0.5 {
			pred = 1
		}
		if pred == o.Abandono {
			correct++
		}
	}

	accuracy := float64(correct) / float64(len(obs))
	if accuracy < 0.85 {
		t.Errorf("training accuracy %f unexpectedly low", accuracy)
	}

	stats := p.Stats()
	if stats.Iterations < 1 || stats.Iterations > 1000 {
		t.Errorf("iterations %d outside expected bounds", stats.Iterations)
	}
	if math.IsNaN(stats.FinalLoss) || math.IsInf(stats.FinalLoss, 0) {
		t.Errorf("final loss %f not finite", stats.FinalLoss)
	}
}

func TestTrain_SmallCohortStillProducesPipeline(t *testing.T) {
	// Two observations is degenerate but must not fail: non-convergence
	// is a quality problem, not an error.
	obs := []cohort.Observation{
		{AsistenciaPct: 95, NotasPromedio: 90, Interacciones: 8, SemanasRegistro: 2, Abandono: 0},
		{AsistenciaPct: 31, NotasPromedio: 35, Interacciones: 1, SemanasRegistro: 39, Abandono: 1},
	}
	p, err := Train(obs)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	prob := p.PredictProbability(FeatureVector{AsistenciaPct: 60, NotasPromedio: 60, Interacciones: 5, SemanasRegistro: 20})
	if prob < 0 || prob > 1 {
		t.Errorf("probability %f out of [0,1]", prob)
	}
}
