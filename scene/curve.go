package scene

import "math"

type Keyframe struct {
	Time       float32
	Value      float32
	InTangent  float32
	OutTangent float32
}

// Curve is a cubic Hermite curve clamped at both ends.
type Curve struct {
	Keys []Keyframe
}

func NewLinearCurve(t0, v0, t1, v1 float32) *Curve {
	tangent := (v1 - v0) / (t1 - t0)
	return &Curve{Keys: []Keyframe{
		{Time: t0, Value: v0, InTangent: tangent, OutTangent: tangent},
		{Time: t1, Value: v1, InTangent: tangent, OutTangent: tangent},
	}}
}

func (c *Curve) IsEmpty() bool {
	return c == nil || len(c.Keys) == 0
}

func (c *Curve) Evaluate(t float32) float32 {
	if c.IsEmpty() {
		return 0
	}
	keys := c.Keys
	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if t >= last.Time {
		return last.Value
	}
	i := 1
	for i < len(keys)-1 && keys[i].Time < t {
		i++
	}
	k0, k1 := keys[i-1], keys[i]
	dt := k1.Time - k0.Time
	if dt <= 0 {
		return k1.Value
	}
	if math.IsInf(float64(k0.OutTangent), 0) || math.IsInf(float64(k1.InTangent), 0) {
		return k0.Value
	}
	s := (t - k0.Time) / dt
	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	return h00*k0.Value + h10*dt*k0.OutTangent + h01*k1.Value + h11*dt*k1.InTangent
}

// EvaluateScaled returns curve(t)*value, or value when there is no curve.
func (c *Curve) EvaluateScaled(t, value float32) float32 {
	if c.IsEmpty() {
		return value
	}
	return c.Evaluate(t) * value
}
