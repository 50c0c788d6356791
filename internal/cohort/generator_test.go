package cohort

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(500, 42)
	b := Generate(500, 42)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("same (n, seed) must produce identical cohorts")
	}
}

func TestGenerate_SeedChangesCohort(t *testing.T) {
	a := Generate(200, 1)
	b := Generate(200, 2)

	if reflect.DeepEqual(a, b) {
		t.Fatal("different seeds should produce different cohorts")
	}
}

func TestGenerate_FeatureRanges(t *testing.T) {
	obs := Generate(2000, 42)

	for i, o := range obs {
		if o.AsistenciaPct < attendanceMin || o.AsistenciaPct >= attendanceMax {
			t.Fatalf("obs %d: attendance %f out of range", i, o.AsistenciaPct)
		}
		if o.NotasPromedio < gradesMin || o.NotasPromedio >= gradesMax {
			t.Fatalf("obs %d: grades %f out of range", i, o.NotasPromedio)
		}
		if o.Interacciones < 0 {
			t.Fatalf("obs %d: negative interactions %f", i, o.Interacciones)
		}
		if o.SemanasRegistro < weeksMin || o.SemanasRegistro >= weeksMax {
			t.Fatalf("obs %d: weeks %f out of range", i, o.SemanasRegistro)
		}
		if o.Abandono != 0 && o.Abandono != 1 {
			t.Fatalf("obs %d: label %d not binary", i, o.Abandono)
		}
	}
}

func TestGenerate_BothClassesPresent(t *testing.T) {
	obs := Generate(2000, 42)

	var dropouts int
	for _, o := range obs {
		dropouts += o.Abandono
	}

	if dropouts == 0 || dropouts == len(obs) {
		t.Fatalf("degenerate cohort: %d dropouts of %d", dropouts, len(obs))
	}
}

func TestGenerate_Empty(t *testing.T) {
	if obs := Generate(0, 42); len(obs) != 0 {
		t.Fatalf("expected empty cohort, got %d observations", len(obs))
	}
}

func TestPoisson_NonNegativeAndNearMean(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var sum int
	const n = 10000
	for i := 0; i < n; i++ {
		k := poisson(rng, interactionsMean)
		if k < 0 {
			t.Fatalf("negative Poisson sample %d", k)
		}
		sum += k
	}
	mean := float64(sum) / n
	if mean < 4.5 || mean > 5.5 {
		t.Errorf("sample mean %f too far from %f", mean, interactionsMean)
	}
}
