package scene

import (
	"math"
	"testing"
)

func TestCurveEvaluate(t *testing.T) {
	c := NewLinearCurve(0, 1, 1, 0)
	cases := []struct {
		t, want float32
	}{
		{-1, 1},
		{0, 1},
		{0.5, 0.5},
		{1, 0},
		{2, 0},
	}
	for _, tc := range cases {
		if got := c.Evaluate(tc.t); math.Abs(float64(got-tc.want)) > 1e-5 {
			t.Errorf("Evaluate(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}

	// flat tangents
	ease := &Curve{Keys: []Keyframe{{Time: 0, Value: 0}, {Time: 1, Value: 1}}}
	if v := ease.Evaluate(0.25); math.Abs(float64(v-0.15625)) > 1e-5 {
		t.Error("ease", v)
	}

	step := &Curve{Keys: []Keyframe{
		{Time: 0, Value: 2, OutTangent: float32(math.Inf(1))},
		{Time: 1, Value: 5},
	}}
	if v := step.Evaluate(0.9); v != 2 {
		t.Error("step", v)
	}
}

func TestCurveEvaluateScaled(t *testing.T) {
	var c *Curve
	if !c.IsEmpty() || c.EvaluateScaled(0.3, 0.7) != 0.7 {
		t.Error("nil curve should return value")
	}
	c = NewLinearCurve(0, 0, 1, 2)
	if v := c.EvaluateScaled(0.5, 0.5); math.Abs(float64(v-0.5)) > 1e-5 {
		t.Error("scaled", v)
	}
}
