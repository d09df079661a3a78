package scene

import (
	"math"
	"testing"

	"github.com/binzume/avatarconv/geom"
)

func TestObjectHierarchy(t *testing.T) {
	root := NewObject("root")
	a := root.AddChild(NewObject("a"))
	b := a.AddChild(NewObject("b"))
	c := root.AddChild(NewObject("c"))

	if b.Path() != "root/a/b" {
		t.Error("path", b.Path())
	}
	if root.Find("c") != c || root.Find("x") != nil {
		t.Error("find")
	}
	if !b.IsDescendantOf(root) || c.IsDescendantOf(a) {
		t.Error("IsDescendantOf")
	}

	a.Active = false
	if b.ActiveInHierarchy() || !c.ActiveInHierarchy() {
		t.Error("ActiveInHierarchy")
	}

	var names []string
	root.Walk(func(o *Object) bool {
		names = append(names, o.Name)
		return o.Active
	})
	if len(names) != 3 || names[2] != "c" {
		t.Error("walk", names)
	}
}

func TestObjectTransform(t *testing.T) {
	root := NewObject("root")
	root.Transform.Position = geom.Vector3{X: 1}
	// 90 deg around Y
	s := float32(math.Sqrt(0.5))
	root.Transform.Rotation = geom.Quaternion{Y: s, W: s}
	child := root.AddChild(NewObject("child"))
	child.Transform.Position = geom.Vector3{Z: 1}

	p := child.WorldPosition()
	if math.Abs(float64(p.X-2)) > 1e-5 || math.Abs(float64(p.Z)) > 1e-5 {
		t.Error("world position", p)
	}
	r := child.WorldRotation()
	if math.Abs(float64(r.Y-s)) > 1e-5 {
		t.Error("world rotation", r)
	}
	local := child.WorldToLocal().ApplyTo(p)
	if local.Len() > 1e-5 {
		t.Error("WorldToLocal", local)
	}
}
