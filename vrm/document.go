package vrm

import (
	"github.com/qmuntal/gltf"
)

// Document is a glTF document carrying VRM extensions.
type Document gltf.Document

func (doc *Document) VRM() *VRM {
	if ext, ok := doc.Extensions[ExtensionName].(*VRM); ok {
		return ext
	}
	return nil
}

func (doc *Document) SpringBone() *SpringBone {
	if ext, ok := doc.Extensions[SpringBoneExtensionName].(*SpringBone); ok {
		return ext
	}
	return nil
}

func (doc *Document) NodeConstraint(node uint32) *NodeConstraint {
	if int(node) >= len(doc.Nodes) {
		return nil
	}
	if ext, ok := doc.Nodes[node].Extensions[NodeConstraintExtensionName].(*NodeConstraint); ok {
		return ext
	}
	return nil
}

func (doc *Document) MToon(material uint32) *MToon {
	if int(material) >= len(doc.Materials) {
		return nil
	}
	if ext, ok := doc.Materials[material].Extensions[MToonExtensionName].(*MToon); ok {
		return ext
	}
	return nil
}

func (doc *Document) IsExtensionUsed(extname string) bool {
	for _, ex := range doc.ExtensionsUsed {
		if ex == extname {
			return true
		}
	}
	return false
}

func (doc *Document) ValidateBones() error {
	v := doc.VRM()
	if v == nil {
		return (&Humanoid{}).ValidateBones()
	}
	return v.Humanoid.ValidateBones()
}
