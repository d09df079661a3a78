package unity

import (
	"strings"

	"github.com/binzume/avatarconv/geom"
)

type Component interface {
	GetGameObject() *GameObject
	base() *BaseComponent
}

// propertySetter is implemented by elements that accept prefab modifications.
type propertySetter interface {
	setProperty(path, value string, ref *Ref) bool
}

type BaseComponent struct {
	Scene  *Scene `yaml:"-"`
	FileID int64  `yaml:"-"`

	GameObject Ref `yaml:"m_GameObject"`
	// Enabled is nil for components that cannot be disabled.
	Enabled *int `yaml:"m_Enabled"`
}

func (c *BaseComponent) base() *BaseComponent {
	return c
}

func (c *BaseComponent) GetGameObject() *GameObject {
	return c.Scene.GetGameObject(&c.GameObject)
}

func (c *BaseComponent) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled != 0
}

func (c *BaseComponent) setProperty(path, value string, ref *Ref) bool {
	if path != "m_Enabled" {
		return false
	}
	v := atoi(value)
	c.Enabled = &v
	return true
}

// arrayIndex parses "<name>.Array.data[<i>]".
func arrayIndex(path, name string) (int, bool) {
	prefix := name + ".Array.data["
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, "]") {
		return 0, false
	}
	return atoi(path[len(prefix) : len(path)-1]), true
}

func setVectorElement(v *geom.Vector3, axis, value string) bool {
	switch axis {
	case "x":
		v.X = atof(value)
	case "y":
		v.Y = atof(value)
	case "z":
		v.Z = atof(value)
	default:
		return false
	}
	return true
}

type Transform struct {
	BaseComponent `yaml:",inline"`
	Father        Ref   `yaml:"m_Father"`
	Children      []Ref `yaml:"m_Children"`

	LocalRotation geom.Vector4 `yaml:"m_LocalRotation"`
	LocalPosition geom.Vector3 `yaml:"m_LocalPosition"`
	LocalScale    geom.Vector3 `yaml:"m_LocalScale"`

	parent   *Transform
	children []*Transform
}

func (tr *Transform) GetParent() *Transform {
	return tr.parent
}

func (tr *Transform) GetChildren() []*Transform {
	return tr.children
}

func (tr *Transform) AddChild(child *Transform) bool {
	for _, c := range tr.children {
		if child == c {
			return false
		}
	}
	child.parent = tr
	tr.children = append(tr.children, child)
	return true
}

func (tr *Transform) setProperty(path, value string, ref *Ref) bool {
	name, axis, ok := strings.Cut(path, ".")
	if !ok {
		return false
	}
	switch name {
	case "m_LocalPosition":
		return setVectorElement(&tr.LocalPosition, axis, value)
	case "m_LocalScale":
		return setVectorElement(&tr.LocalScale, axis, value)
	case "m_LocalRotation":
		if axis == "w" {
			tr.LocalRotation.W = atof(value)
			return true
		}
		v := geom.Vector3{X: tr.LocalRotation.X, Y: tr.LocalRotation.Y, Z: tr.LocalRotation.Z}
		if !setVectorElement(&v, axis, value) {
			return false
		}
		tr.LocalRotation.X, tr.LocalRotation.Y, tr.LocalRotation.Z = v.X, v.Y, v.Z
		return true
	}
	return false
}

type MonoBehaviour struct {
	BaseComponent `yaml:",inline"`
	Script        Ref `yaml:"m_Script"`

	RawData map[string]interface{} `yaml:",inline"`

	doc *YAMLDoc
}

// Has reports whether all of the fields are serialized.
func (mb *MonoBehaviour) Has(fields ...string) bool {
	for _, f := range fields {
		if _, ok := mb.RawData[f]; !ok {
			return false
		}
	}
	return true
}

// decodeBehaviour decodes the serialized fields of a MonoBehaviour into T.
func decodeBehaviour[T any](mb *MonoBehaviour) (*T, error) {
	return decodeElement[T](mb.doc)
}

type MeshFilter struct {
	BaseComponent `yaml:",inline"`
	Mesh          Ref `yaml:"m_Mesh"`
}

type Renderer struct {
	BaseComponent `yaml:",inline"`
	Materials     []Ref `yaml:"m_Materials"`
}

func (r *Renderer) setProperty(path, value string, ref *Ref) bool {
	if i, ok := arrayIndex(path, "m_Materials"); ok {
		for len(r.Materials) <= i {
			r.Materials = append(r.Materials, Ref{})
		}
		r.Materials[i] = *ref
		return true
	}
	return r.BaseComponent.setProperty(path, value, ref)
}

type MeshRenderer struct {
	Renderer `yaml:",inline"`
}

func (r *MeshRenderer) GetMeshFilter() *MeshFilter {
	o := r.GetGameObject()
	if o == nil {
		return nil
	}
	for _, c := range o.Components() {
		if t, ok := c.(*MeshFilter); ok {
			return t
		}
	}
	return nil
}

type SkinnedMeshRenderer struct {
	Renderer          `yaml:",inline"`
	Mesh              Ref       `yaml:"m_Mesh"`
	Bones             []Ref     `yaml:"m_Bones"`
	RootBone          Ref       `yaml:"m_RootBone"`
	BlendShapeWeights []float32 `yaml:"m_BlendShapeWeights"`
}

func (r *SkinnedMeshRenderer) setProperty(path, value string, ref *Ref) bool {
	if i, ok := arrayIndex(path, "m_BlendShapeWeights"); ok {
		for len(r.BlendShapeWeights) <= i {
			r.BlendShapeWeights = append(r.BlendShapeWeights, 0)
		}
		r.BlendShapeWeights[i] = atof(value)
		return true
	}
	if path == "m_Mesh" {
		r.Mesh = *ref
		return true
	}
	return r.Renderer.setProperty(path, value, ref)
}

type Animator struct {
	BaseComponent `yaml:",inline"`
	Avatar        Ref `yaml:"m_Avatar"`
}

type ConstraintSource struct {
	SourceTransform Ref     `yaml:"sourceTransform"`
	Weight          float32 `yaml:"weight"`
}

// Constraint is one of the built-in constraint components. ClassID tells them apart.
type Constraint struct {
	BaseComponent `yaml:",inline"`
	ClassID       int `yaml:"-"`

	Weight    float32      `yaml:"m_Weight"`
	Active    int          `yaml:"m_Active"`
	AimVector geom.Vector3 `yaml:"m_AimVector"`

	AffectRotationX int `yaml:"m_AffectRotationX"`
	AffectRotationY int `yaml:"m_AffectRotationY"`
	AffectRotationZ int `yaml:"m_AffectRotationZ"`

	Sources []*ConstraintSource `yaml:"m_Sources"`
}

func (c *Constraint) setProperty(path, value string, ref *Ref) bool {
	switch path {
	case "m_Weight":
		c.Weight = atof(value)
	case "m_Active":
		c.Active = atoi(value)
	default:
		return c.BaseComponent.setProperty(path, value, ref)
	}
	return true
}
