// Package scene holds a frozen snapshot of an avatar scene graph as authored in
// a left-handed, Y-up editor. Nothing here mutates after loading finished.
package scene

import (
	"github.com/binzume/avatarconv/geom"
)

type Transform struct {
	Position geom.Vector3
	Rotation geom.Quaternion
	Scale    geom.Vector3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: geom.Quaternion{W: 1},
		Scale:    geom.Vector3{X: 1, Y: 1, Z: 1},
	}
}

func (t *Transform) Matrix() *geom.Matrix4 {
	return geom.NewTRSMatrix4(&t.Position, &t.Rotation, &t.Scale)
}

// Object is a node of the scene graph with the components attached to it.
type Object struct {
	Name      string
	Active    bool
	Transform Transform

	Parent   *Object
	Children []*Object

	Renderer          *Renderer
	PhysBones         []*PhysBone
	PhysBoneColliders []*PhysBoneCollider
	// Constraints are candidates in priority order; the first exportable one wins.
	Constraints []*Constraint
}

func NewObject(name string) *Object {
	return &Object{Name: name, Active: true, Transform: IdentityTransform()}
}

func (o *Object) AddChild(child *Object) *Object {
	child.Parent = o
	o.Children = append(o.Children, child)
	return child
}

// ActiveInHierarchy reports whether o and all of its ancestors are active.
func (o *Object) ActiveInHierarchy() bool {
	for p := o; p != nil; p = p.Parent {
		if !p.Active {
			return false
		}
	}
	return true
}

func (o *Object) LocalToWorld() *geom.Matrix4 {
	m := o.Transform.Matrix()
	for p := o.Parent; p != nil; p = p.Parent {
		m = p.Transform.Matrix().Mul(m)
	}
	return m
}

func (o *Object) WorldToLocal() *geom.Matrix4 {
	return o.LocalToWorld().Inverse()
}

func (o *Object) WorldPosition() *geom.Vector3 {
	m := o.LocalToWorld()
	return &geom.Vector3{X: m[12], Y: m[13], Z: m[14]}
}

func (o *Object) WorldRotation() *geom.Quaternion {
	r := geom.NewQuaternion(o.Transform.Rotation.X, o.Transform.Rotation.Y, o.Transform.Rotation.Z, o.Transform.Rotation.W)
	for p := o.Parent; p != nil; p = p.Parent {
		r = p.Transform.Rotation.Mul(r)
	}
	return r
}

// IsDescendantOf reports whether o is ancestor or below it.
func (o *Object) IsDescendantOf(ancestor *Object) bool {
	for p := o; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Walk visits o and its descendants in pre-order. Returning false from fn skips the subtree.
func (o *Object) Walk(fn func(obj *Object) bool) {
	if !fn(o) {
		return
	}
	for _, c := range o.Children {
		c.Walk(fn)
	}
}

func (o *Object) Find(name string) *Object {
	var found *Object
	o.Walk(func(obj *Object) bool {
		if found == nil && obj.Name == name {
			found = obj
		}
		return found == nil
	})
	return found
}

func (o *Object) Path() string {
	if o.Parent == nil {
		return o.Name
	}
	return o.Parent.Path() + "/" + o.Name
}
