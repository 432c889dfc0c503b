package filter

import (
	"math"
	"testing"
)

func TestStageIsStableOnImpulse(t *testing.T) {
	s := Butterworth(40, 125, Lowpass, 5)

	// A Butterworth lowpass must pass DC with unity gain: sum(b)/sum(a)
	// evaluates a digital filter's transfer function at z=1. A gain-scaling
	// bug in the analog-to-digital design pipeline (e.g. a missed lp2lp_zpk
	// rescale) shows up here as a DC gain far from 1, even though the
	// impulse response stays nonzero and bounded.
	var sumB, sumA float64
	for _, c := range s.b {
		sumB += c
	}
	for _, c := range s.a {
		sumA += c
	}
	if dc := sumB / sumA; math.Abs(dc-1) > 1e-6 {
		t.Fatalf("DC gain = %v, want ~1", dc)
	}

	out := s.Step(1)
	if out == 0 {
		t.Fatal("expected a nonzero response to the impulse's first sample")
	}

	for i := 0; i < 1000; i++ {
		v := s.Step(0)
		if math.IsNaN(v) {
			t.Fatalf("filter produced NaN at step %d", i)
		}
		if v > 1e6 || v < -1e6 {
			t.Fatalf("filter diverged at step %d: %v", i, v)
		}
	}
}

func TestNotchAttenuatesTargetFrequencyMoreThanPassband(t *testing.T) {
	const fs = 125.0
	passEnergy := sineResponseEnergy(Notch(50, fs, 30), 10, fs, 256)
	stopEnergy := sineResponseEnergy(Notch(50, fs, 30), 50, fs, 256)

	if stopEnergy >= passEnergy {
		t.Fatalf("50Hz energy (%v) should be well below 10Hz energy (%v)", stopEnergy, passEnergy)
	}
}

func sineResponseEnergy(s *Stage, freq, fs float64, n int) float64 {
	var energy float64
	for i := 0; i < n; i++ {
		x := math.Sin(2 * math.Pi * freq * float64(i) / fs)
		y := s.Step(x)
		if i > n/2 { // skip the transient
			energy += y * y
		}
	}
	return energy
}

func TestChainAppliesStagesInOrder(t *testing.T) {
	c := EEGChain(125)
	if len(c.stages) != 3 {
		t.Fatalf("len(stages) = %d, want 3", len(c.stages))
	}
	for i := 0; i < 500; i++ {
		v := c.Step(100)
		if math.IsNaN(v) {
			t.Fatalf("chain produced NaN at step %d", i)
		}
	}
}
