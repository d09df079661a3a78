package scene

import "github.com/binzume/avatarconv/geom"

type Topology int

const (
	Triangles Topology = iota
	Lines
	LineStrip
	Points
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "Triangles"
	case Lines:
		return "Lines"
	case LineStrip:
		return "LineStrip"
	case Points:
		return "Points"
	}
	return "Unknown"
}

type SubMesh struct {
	Topology Topology
	Indices  []uint32
}

// BoneWeight holds up to four influences. Index is into Renderer.Bones.
type BoneWeight struct {
	Index  [4]int
	Weight [4]float32
}

// BlendShape is the first frame of a blend shape.
type BlendShape struct {
	Name          string
	DeltaVertices []geom.Vector3
	DeltaNormals  []geom.Vector3
}

type Mesh struct {
	Name     string
	Vertices []geom.Vector3
	Normals  []geom.Vector3
	Tangents []geom.Vector4
	UV       []geom.Vector2
	UV2      []geom.Vector2
	// Colors are gamma encoded.
	Colors    []geom.Vector4
	SubMeshes []*SubMesh

	BoneWeights []BoneWeight
	BindPoses   []geom.Matrix4
	BlendShapes []*BlendShape
}

func (m *Mesh) BlendShapeIndex(name string) int {
	for i, b := range m.BlendShapes {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// Renderer is a mesh renderer attached to an object. Static renderers have no bones.
type Renderer struct {
	Enabled   bool
	Skinned   bool
	Mesh      *Mesh
	Materials []*Material
	// Bones may contain nil entries for missing references.
	Bones []*Object
	// BlendShapeWeights are in percent (0-100).
	BlendShapeWeights []float32
}

// MaterialAt returns the material for submesh i, falling back to the first material.
func (r *Renderer) MaterialAt(i int) *Material {
	if i < len(r.Materials) {
		return r.Materials[i]
	}
	if len(r.Materials) > 0 {
		return r.Materials[0]
	}
	return nil
}
