package converter

import (
	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
)

// SkinResolver bakes the current pose of a skinned renderer into mesh space and
// maps its bone indices to a deduplicated joint list.
type SkinResolver struct {
	// Bones are the unique active bones in first-seen order.
	Bones []*scene.Object
	// InverseBindMatrices are in glTF space, one per Bones entry.
	InverseBindMatrices []*geom.Matrix4

	mesh         *scene.Mesh
	bones        []*scene.Object
	index        map[*scene.Object]int
	sourceMatrix []*geom.Matrix4
	deltaPos     []geom.Vector3
	deltaNormal  []geom.Vector3
}

// NewSkinResolver creates a resolver for r attached to owner. Bones rejected by
// exported resolve like missing bones. A nil exported accepts active bones.
func NewSkinResolver(owner *scene.Object, r *scene.Renderer, exported func(*scene.Object) bool) *SkinResolver {
	if exported == nil {
		exported = (*scene.Object).ActiveInHierarchy
	}
	mesh := r.Mesh
	s := &SkinResolver{
		mesh:        mesh,
		bones:       r.Bones,
		index:       map[*scene.Object]int{},
		deltaPos:    make([]geom.Vector3, len(mesh.Vertices)),
		deltaNormal: make([]geom.Vector3, len(mesh.Vertices)),
	}

	for i, bs := range mesh.BlendShapes {
		if i >= len(r.BlendShapeWeights) {
			break
		}
		w := r.BlendShapeWeights[i] * 0.01
		if !(w > 0) {
			continue
		}
		for v := range s.deltaPos {
			if v < len(bs.DeltaVertices) {
				s.deltaPos[v] = *s.deltaPos[v].Add(bs.DeltaVertices[v].Scale(w))
			}
			if v < len(bs.DeltaNormals) {
				s.deltaNormal[v] = *s.deltaNormal[v].Add(bs.DeltaNormals[v].Scale(w))
			}
		}
	}

	ownerLocalToWorld := owner.LocalToWorld()
	ownerWorldToLocal := ownerLocalToWorld.Inverse()
	s.sourceMatrix = make([]*geom.Matrix4, len(r.Bones))
	for i, bone := range r.Bones {
		if bone == nil || i >= len(mesh.BindPoses) {
			s.sourceMatrix[i] = &geom.Matrix4{}
			continue
		}
		s.sourceMatrix[i] = ownerWorldToLocal.Mul(bone.LocalToWorld()).Mul(&mesh.BindPoses[i])
	}

	for _, bone := range r.Bones {
		if bone == nil || !exported(bone) {
			continue
		}
		if _, ok := s.index[bone]; ok {
			continue
		}
		s.index[bone] = len(s.Bones)
		s.Bones = append(s.Bones, bone)
		ibm := bone.WorldToLocal().Mul(ownerLocalToWorld).NormalizeRotation()
		s.InverseBindMatrices = append(s.InverseBindMatrices, ibm.MirrorX())
	}
	return s
}

// Resolve maps a renderer bone index to a joint index. Missing or inactive bones resolve to (0, 0).
func (s *SkinResolver) Resolve(boneIndex int, weight float32) (uint16, float32) {
	if boneIndex < 0 || boneIndex >= len(s.bones) || weight == 0 {
		return 0, 0
	}
	b := s.bones[boneIndex]
	if b == nil {
		return 0, 0
	}
	j, ok := s.index[b]
	if !ok {
		return 0, 0
	}
	return uint16(j), weight
}

func (s *SkinResolver) Joints(vertex int) ([4]uint16, [4]float32) {
	var joints [4]uint16
	var weights [4]float32
	if vertex >= len(s.mesh.BoneWeights) {
		return joints, weights
	}
	bw := &s.mesh.BoneWeights[vertex]
	for i := 0; i < 4; i++ {
		joints[i], weights[i] = s.Resolve(bw.Index[i], bw.Weight[i])
	}
	return joints, weights
}

func (s *SkinResolver) matrix(boneIndex int) *geom.Matrix4 {
	if boneIndex < 0 || boneIndex >= len(s.sourceMatrix) {
		return &geom.Matrix4{}
	}
	return s.sourceMatrix[boneIndex]
}

// Position returns the posed vertex position in glTF space.
func (s *SkinResolver) Position(vertex int) [3]float32 {
	origin := s.mesh.Vertices[vertex].Add(&s.deltaPos[vertex])
	if vertex >= len(s.mesh.BoneWeights) {
		return origin.MirrorX().Array()
	}
	bw := &s.mesh.BoneWeights[vertex]
	var p geom.Vector3
	for i := 0; i < 4; i++ {
		if bw.Weight[i] == 0 {
			continue
		}
		p = *p.Add(s.matrix(bw.Index[i]).ApplyTo(origin).Scale(bw.Weight[i]))
	}
	return p.MirrorX().Array()
}

// Normal returns the posed, normalized vertex normal in glTF space.
func (s *SkinResolver) Normal(vertex int) [3]float32 {
	if vertex >= len(s.mesh.Normals) {
		return [3]float32{0, 1, 0}
	}
	origin := s.mesh.Normals[vertex].Add(&s.deltaNormal[vertex])
	if vertex >= len(s.mesh.BoneWeights) {
		return origin.Normalize().MirrorX().Array()
	}
	bw := &s.mesh.BoneWeights[vertex]
	var n geom.Vector3
	for i := 0; i < 4; i++ {
		if bw.Weight[i] == 0 {
			continue
		}
		n = *n.Add(s.matrix(bw.Index[i]).ApplyToDirection(origin).Scale(bw.Weight[i]))
	}
	return n.Normalize().MirrorX().Array()
}
