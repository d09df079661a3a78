package converter

import (
	"strings"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/gltfutil"
	"github.com/binzume/avatarconv/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// MorphTarget locates a blend shape in the output document.
type MorphTarget struct {
	Node  uint32
	Index int
}

type meshAssembler struct {
	doc      *gltf.Document
	nodes    *NodeTable
	diag     *diagnostics
	material func(*scene.Material) (uint32, bool)

	vertexColors         bool
	disableLilToonColors bool

	// MorphTargets maps blend shape names to their location. The first one wins.
	MorphTargets map[string]MorphTarget
	// SubMeshPrimitives maps node to its primitive index per submesh (-1 when skipped).
	SubMeshPrimitives map[uint32][]int
}

func newMeshAssembler(doc *gltf.Document, nodes *NodeTable, diag *diagnostics, opts *Options, material func(*scene.Material) (uint32, bool)) *meshAssembler {
	return &meshAssembler{
		doc:                  doc,
		nodes:                nodes,
		diag:                 diag,
		material:             material,
		vertexColors:         opts.VertexColors,
		disableLilToonColors: opts.DisableVertexColorOnLilToon,
		MorphTargets:         map[string]MorphTarget{},
		SubMeshPrimitives:    map[uint32][]int{},
	}
}

// ConvertAll converts renderers on active descendants of root.
func (m *meshAssembler) ConvertAll(root *scene.Object) {
	for _, c := range root.Children {
		if !c.Active {
			continue
		}
		id, ok := m.nodes.ID(c)
		if !ok {
			continue
		}
		if r := c.Renderer; r != nil && r.Mesh != nil {
			m.convert(id, c, r)
		}
		m.ConvertAll(c)
	}
}

func trimCloneSuffix(name string) string {
	for strings.HasSuffix(name, "(Clone)") {
		name = strings.TrimSpace(strings.TrimSuffix(name, "(Clone)"))
	}
	return name
}

type pendingPrimitive struct {
	indices  []uint32
	material uint32
	mode     gltf.PrimitiveMode
}

func (m *meshAssembler) convert(id uint32, obj *scene.Object, r *scene.Renderer) {
	mesh := r.Mesh
	node := m.doc.Nodes[id]
	nv := len(mesh.Vertices)

	var colors [][4]float32
	if m.vertexColors && len(mesh.Colors) == nv && nv > 0 {
		colors = make([][4]float32, nv)
		for i, c := range mesh.Colors {
			colors[i] = c.Linear().Array()
		}
	}

	var pending []*pendingPrimitive
	subMeshPrimitives := make([]int, len(mesh.SubMeshes))
	for i, sm := range mesh.SubMeshes {
		subMeshPrimitives[i] = -1
		mat := r.MaterialAt(i)
		if mat == nil {
			m.diag.missing("Mesh", "%v: no material for submesh %d", obj.Name, i)
			continue
		}
		matID, ok := m.material(mat)
		if !ok {
			continue
		}
		indices := convertIndices(sm)
		if colors != nil && mat.IsLilToon() && m.disableLilToonColors {
			for _, index := range indices {
				if int(index) < len(colors) {
					colors[index] = [4]float32{1, 1, 1, 1}
				}
			}
		}
		subMeshPrimitives[i] = len(pending)
		pending = append(pending, &pendingPrimitive{indices: indices, material: matID, mode: primitiveMode(sm.Topology)})
	}
	if len(pending) == 0 {
		return
	}

	attributes := map[string]uint32{}
	positions := make([][3]float32, nv)
	normals := make([][3]float32, 0, nv)
	if r.Skinned {
		resolver := NewSkinResolver(obj, r, func(b *scene.Object) bool {
			_, ok := m.nodes.ID(b)
			return ok
		})
		for _, b := range r.Bones {
			if b == nil {
				m.diag.missing("Mesh", "%v: missing bone reference", obj.Name)
				break
			}
		}
		jointIDs := make([]uint32, len(resolver.Bones))
		for i, b := range resolver.Bones {
			jointIDs[i], _ = m.nodes.ID(b)
		}
		ibm := gltfutil.WriteMatrices(m.doc, resolver.InverseBindMatrices)
		m.doc.Accessors[ibm].Name = obj.Name + "_IBM"
		m.doc.Skins = append(m.doc.Skins, &gltf.Skin{
			Name:                obj.Name,
			Joints:              jointIDs,
			InverseBindMatrices: gltf.Index(ibm),
		})
		node.Skin = gltf.Index(uint32(len(m.doc.Skins) - 1))

		joints := make([][4]uint16, nv)
		weights := make([][4]float32, nv)
		for i := 0; i < nv; i++ {
			joints[i], weights[i] = resolver.Joints(i)
			positions[i] = resolver.Position(i)
			if i < len(mesh.Normals) {
				normals = append(normals, resolver.Normal(i))
			}
		}
		attributes[gltf.JOINTS_0] = modeler.WriteJoints(m.doc, joints)
		attributes[gltf.WEIGHTS_0] = modeler.WriteWeights(m.doc, weights)
	} else {
		for i, v := range mesh.Vertices {
			positions[i] = v.MirrorX().Array()
		}
		for _, n := range mesh.Normals {
			normals = append(normals, n.Normalize().MirrorX().Array())
		}
	}

	attributes[gltf.POSITION] = modeler.WritePosition(m.doc, positions)
	if len(normals) == nv && nv > 0 {
		attributes[gltf.NORMAL] = modeler.WriteNormal(m.doc, normals)
	}
	if len(mesh.Tangents) == nv && nv > 0 {
		tangents := make([][4]float32, nv)
		for i, t := range mesh.Tangents {
			tangents[i] = [4]float32{-t.X, t.Y, t.Z, t.W}
		}
		attributes[gltf.TANGENT] = modeler.WriteTangent(m.doc, tangents)
	}
	if len(mesh.UV) == nv && nv > 0 {
		attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(m.doc, convertUV(mesh.UV))
	}
	if len(mesh.UV2) == nv && nv > 0 {
		attributes[gltf.TEXCOORD_1] = modeler.WriteTextureCoord(m.doc, convertUV(mesh.UV2))
	}
	if colors != nil {
		attributes[gltf.COLOR_0] = modeler.WriteColor(m.doc, colors)
	}

	var targets []map[string]uint32
	var targetNames []string
	for i, bs := range mesh.BlendShapes {
		dv := make([][3]float32, nv)
		dn := make([][3]float32, nv)
		for v := 0; v < nv; v++ {
			if v < len(bs.DeltaVertices) {
				dv[v] = bs.DeltaVertices[v].MirrorX().Array()
			}
			if v < len(bs.DeltaNormals) {
				dn[v] = bs.DeltaNormals[v].MirrorX().Array()
			}
		}
		target := map[string]uint32{gltf.POSITION: modeler.WritePosition(m.doc, dv)}
		if _, ok := attributes[gltf.NORMAL]; ok {
			target[gltf.NORMAL] = modeler.WriteNormal(m.doc, dn)
		}
		targets = append(targets, target)
		targetNames = append(targetNames, bs.Name)
		if _, exists := m.MorphTargets[bs.Name]; !exists {
			m.MorphTargets[bs.Name] = MorphTarget{Node: id, Index: i}
		}
	}

	var primitives []*gltf.Primitive
	for _, p := range pending {
		primitives = append(primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(m.doc, p.indices)),
			Material:   gltf.Index(p.material),
			Mode:       p.mode,
			Attributes: attributes,
			Targets:    targets,
		})
	}
	gm := &gltf.Mesh{
		Name:       trimCloneSuffix(mesh.Name),
		Primitives: primitives,
	}
	if len(targetNames) > 0 {
		gm.Extras = map[string]interface{}{"targetNames": targetNames}
	}
	m.doc.Meshes = append(m.doc.Meshes, gm)
	node.Mesh = gltf.Index(uint32(len(m.doc.Meshes) - 1))
	m.SubMeshPrimitives[id] = subMeshPrimitives
}

func convertUV(uv []geom.Vector2) [][2]float32 {
	r := make([][2]float32, len(uv))
	for i, t := range uv {
		r[i] = t.FlipV()
	}
	return r
}

// convertIndices flips the winding of triangles. Other topologies pass through.
func convertIndices(sm *scene.SubMesh) []uint32 {
	if sm.Topology != scene.Triangles {
		return append([]uint32(nil), sm.Indices...)
	}
	indices := make([]uint32, 0, len(sm.Indices))
	for j := 0; j+2 < len(sm.Indices); j += 3 {
		indices = append(indices, sm.Indices[j+2], sm.Indices[j+1], sm.Indices[j])
	}
	return indices
}

func primitiveMode(t scene.Topology) gltf.PrimitiveMode {
	switch t {
	case scene.Lines:
		return gltf.PrimitiveLines
	case scene.LineStrip:
		return gltf.PrimitiveLineStrip
	case scene.Points:
		return gltf.PrimitivePoints
	}
	return gltf.PrimitiveTriangles
}
