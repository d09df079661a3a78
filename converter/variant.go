package converter

import (
	"fmt"

	"github.com/binzume/avatarconv/scene"
	"github.com/qmuntal/gltf"
)

const materialsVariantsExtension = "KHR_materials_variants"

type materialVariant struct {
	Name string `json:"name"`
}

type materialsVariants struct {
	Variants []*materialVariant `json:"variants"`
}

type variantMapping struct {
	Material uint32   `json:"material"`
	Variants []uint32 `json:"variants"`
}

type primitiveVariants struct {
	Mappings []*variantMapping `json:"mappings"`
}

type primitiveKey struct {
	mesh      uint32
	primitive int
}

type variantTranslator struct {
	doc       *gltf.Document
	nodes     *NodeTable
	diag      *diagnostics
	material  func(*scene.Material) (uint32, bool)
	subMeshes map[uint32][]int
}

// Convert adds KHR_materials_variants to the document and primitives.
func (t *variantTranslator) Convert(variants []*scene.MaterialVariant) ExtensionSet {
	ext := NewExtensionSet()
	if len(variants) == 0 {
		return ext
	}
	root := &materialsVariants{}
	mappings := map[primitiveKey]*primitiveVariants{}
	var order []primitiveKey
	for vi, v := range variants {
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("Variant%d", vi)
		}
		root.Variants = append(root.Variants, &materialVariant{Name: name})
		for mi, m := range v.Mappings {
			order = append(order, t.mapping(name, mi, uint32(vi), m, mappings)...)
		}
	}
	if len(mappings) == 0 {
		return ext
	}
	for _, k := range order {
		p := t.doc.Meshes[k.mesh].Primitives[k.primitive]
		if p.Extensions == nil {
			p.Extensions = gltf.Extensions{}
		}
		p.Extensions[materialsVariantsExtension] = mappings[k]
	}
	if t.doc.Extensions == nil {
		t.doc.Extensions = gltf.Extensions{}
	}
	t.doc.Extensions[materialsVariantsExtension] = root
	ext.Add(materialsVariantsExtension)
	return ext
}

// mapping records one renderer mapping and returns keys of newly mapped primitives.
func (t *variantTranslator) mapping(name string, index int, variant uint32, m *scene.MaterialMapping, mappings map[primitiveKey]*primitiveVariants) []primitiveKey {
	if m == nil || m.Renderer == nil {
		t.diag.missing("MaterialVariant", "%v:%d: renderer is missing", name, index)
		return nil
	}
	id, ok := t.nodes.ID(m.Renderer)
	if !ok {
		t.diag.missing("MaterialVariant", "%v:%d: %v is not exported", name, index, m.Renderer.Name)
		return nil
	}
	node := t.doc.Nodes[id]
	if node.Mesh == nil {
		t.diag.missing("MaterialVariant", "%v:%d: %v has no mesh", name, index, m.Renderer.Name)
		return nil
	}
	mesh := t.doc.Meshes[*node.Mesh]
	var added []primitiveKey
	for sub, mat := range m.Materials {
		prims := t.subMeshes[id]
		if sub >= len(prims) || prims[sub] < 0 {
			continue
		}
		pi := prims[sub]
		primitive := mesh.Primitives[pi]
		var matID uint32
		if mat != nil {
			if matID, ok = t.material(mat); !ok {
				continue
			}
		} else if primitive.Material != nil {
			matID = *primitive.Material
		} else {
			continue
		}
		key := primitiveKey{mesh: *node.Mesh, primitive: pi}
		pv := mappings[key]
		if pv == nil {
			pv = &primitiveVariants{}
			mappings[key] = pv
			added = append(added, key)
		}
		merged := false
		for _, vm := range pv.Mappings {
			if vm.Material == matID {
				vm.Variants = append(vm.Variants, variant)
				merged = true
				break
			}
		}
		if !merged {
			pv.Mappings = append(pv.Mappings, &variantMapping{Material: matID, Variants: []uint32{variant}})
		}
	}
	return added
}
