package converter

import (
	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

const immobileNodeName = "Immobile"

// constraintTranslator picks at most one constraint per node.
type constraintTranslator struct {
	nodes *NodeTable
	diag  *diagnostics
	// immobile returns the ID of the immobile reference node, creating it on first use.
	immobile func() uint32
}

// ConvertAll returns constraints keyed by node ID.
func (t *constraintTranslator) ConvertAll() (map[uint32]*vrm.NodeConstraint, ExtensionSet) {
	result := map[uint32]*vrm.NodeConstraint{}
	n := t.nodes.Len()
	for id := 0; id < n; id++ {
		obj := t.nodes.Object(uint32(id))
		if obj == nil || len(obj.Constraints) == 0 {
			continue
		}
		if c := t.Convert(obj); c != nil {
			result[uint32(id)] = vrm.NewNodeConstraint(*c)
		}
	}
	ext := NewExtensionSet()
	if len(result) > 0 {
		ext.Add(vrm.NodeConstraintExtensionName)
	}
	return result, ext
}

// Convert returns the first exportable candidate of obj.
func (t *constraintTranslator) Convert(obj *scene.Object) *vrm.Constraint {
	for _, c := range obj.Constraints {
		if c == nil || !c.Active {
			continue
		}
		if vc, ok := t.candidate(obj, c); ok {
			return vc
		}
	}
	return nil
}

func aimAxisName(v geom.Vector3) (string, bool) {
	switch v {
	case geom.Vector3{X: -1}:
		return vrm.AxisPositiveX, true
	case geom.Vector3{X: 1}:
		return vrm.AxisNegativeX, true
	case geom.Vector3{Y: 1}:
		return vrm.AxisPositiveY, true
	case geom.Vector3{Y: -1}:
		return vrm.AxisNegativeY, true
	case geom.Vector3{Z: 1}:
		return vrm.AxisPositiveZ, true
	case geom.Vector3{Z: -1}:
		return vrm.AxisNegativeZ, true
	}
	return "", false
}

// source resolves the first source. ok is false when the source cannot be exported.
func (t *constraintTranslator) source(obj *scene.Object, c *scene.Constraint) (id uint32, weight float32, hasSource, ok bool) {
	if len(c.Sources) == 0 {
		return 0, c.GlobalWeight, false, true
	}
	if len(c.Sources) > 1 {
		t.diag.unsupported("Constraint", "%v: %v with multiple sources, using the first", obj.Name, c.Component)
	}
	src := c.Sources[0]
	id, found := t.nodes.ID(src.Target)
	if !found {
		t.diag.missing("Constraint", "%v: %v source is missing or inactive", obj.Name, c.Component)
		return 0, 0, true, false
	}
	return id, c.GlobalWeight * src.Weight, true, true
}

func (t *constraintTranslator) candidate(obj *scene.Object, c *scene.Constraint) (*vrm.Constraint, bool) {
	switch c.Kind {
	case scene.ConstraintAim:
		src, weight, hasSource, ok := t.source(obj, c)
		if !ok {
			return nil, false
		}
		axis, ok := aimAxisName(c.AimAxis)
		if !ok {
			t.diag.unsupported("Constraint", "%v: unsupported aim axis %v", obj.Name, c.AimAxis)
			return nil, false
		}
		if !hasSource {
			src = t.immobile()
		}
		return &vrm.Constraint{Aim: &vrm.AimConstraint{Source: src, AimAxis: axis, Weight: weight}}, true
	case scene.ConstraintRotation:
		src, weight, hasSource, ok := t.source(obj, c)
		if !ok {
			return nil, false
		}
		if !hasSource {
			t.diag.missing("Constraint", "%v: %v has no source", obj.Name, c.Component)
			return nil, false
		}
		switch {
		case c.AffectsX && c.AffectsY && c.AffectsZ:
			return &vrm.Constraint{Rotation: &vrm.RotationConstraint{Source: src, Weight: weight}}, true
		case c.AffectsX && !c.AffectsY && !c.AffectsZ:
			return &vrm.Constraint{Roll: &vrm.RollConstraint{Source: src, RollAxis: "X", Weight: weight}}, true
		case !c.AffectsX && c.AffectsY && !c.AffectsZ:
			return &vrm.Constraint{Roll: &vrm.RollConstraint{Source: src, RollAxis: "Y", Weight: weight}}, true
		case !c.AffectsX && !c.AffectsY && c.AffectsZ:
			return &vrm.Constraint{Roll: &vrm.RollConstraint{Source: src, RollAxis: "Z", Weight: weight}}, true
		}
		t.diag.unsupported("Constraint", "%v: unsupported rotation axes pattern", obj.Name)
		return nil, false
	case scene.ConstraintFrozenParent:
		return &vrm.Constraint{Rotation: &vrm.RotationConstraint{Source: t.immobile(), Weight: 1}}, true
	}
	t.diag.unsupported("Constraint", "%v: %v is not supported", obj.Name, c.Component)
	return nil, false
}
