package gltfutil

import (
	"fmt"
	"math"

	"github.com/binzume/avatarconv/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"
	"github.com/qmuntal/gltf/modeler"
)

// Transform scales and moves the whole document: positions, morph deltas, node translations and inverse bind matrices.
func Transform(doc *gltf.Document, scale *geom.Vector3, offset *geom.Vector3) error {
	if scale == nil && offset == nil {
		return nil
	}
	scaleMat := geom.NewMatrix4()
	if scale != nil {
		scaleMat = geom.NewScaleMatrix4(scale.X, scale.Y, scale.Z)
	}
	scaleOffsetMat := scaleMat
	if offset != nil {
		scaleOffsetMat = geom.NewTranslateMatrix4(offset.X, offset.Y, offset.Z).Mul(scaleMat)
	}

	accs := map[uint32]bool{}
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			if a, ok := p.Attributes[gltf.POSITION]; ok {
				accs[a] = false
			}
			for _, t := range p.Targets {
				if a, ok := t[gltf.POSITION]; ok {
					accs[a] = true
				}
			}
		}
	}
	for a, diff := range accs {
		acr := doc.Accessors[a]
		if acr.Sparse != nil || acr.BufferView == nil {
			return fmt.Errorf("accessor %d: sparse accessor is not supported", a)
		}
		pos, err := modeler.ReadPosition(doc, acr, [][3]float32{})
		if err != nil {
			return err
		}

		acr.Min = []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
		acr.Max = []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
		for i := range pos {
			if diff {
				scaleMat.ApplyToDirection(geom.NewVector3FromArray(pos[i])).ToArray(pos[i][:])
			} else {
				scaleOffsetMat.ApplyTo(geom.NewVector3FromArray(pos[i])).ToArray(pos[i][:])
			}
			for t, v := range pos[i] {
				acr.Min[t] = float32(math.Min(float64(acr.Min[t]), float64(v)))
				acr.Max[t] = float32(math.Max(float64(acr.Max[t]), float64(v)))
			}
		}
		bufferView := doc.BufferViews[*acr.BufferView]
		buffer := doc.Buffers[bufferView.Buffer]
		if err := binary.Write(buffer.Data[bufferView.ByteOffset+acr.ByteOffset:], bufferView.ByteStride, pos); err != nil {
			return fmt.Errorf("accessor %d: %w", a, err)
		}
	}
	for _, node := range doc.Nodes {
		scaleMat.ApplyTo(geom.NewVector3FromArray(node.Translation)).ToArray(node.Translation[:])
	}
	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices == nil {
			continue
		}
		accessor := doc.Accessors[*skin.InverseBindMatrices]
		if accessor.BufferView == nil {
			continue
		}
		bufferView := doc.BufferViews[*accessor.BufferView]
		data := doc.Buffers[bufferView.Buffer].Data
		if len(data) == 0 {
			continue
		}
		for i := uint32(0); i < accessor.Count; i++ {
			offset := bufferView.ByteOffset + accessor.ByteOffset + i*64
			mat := readMatrix(data[offset : offset+64])
			// apply scale
			geom.NewMatrix4FromSlice(mat[:]).Mul(scaleMat).NormalizeRotation().ToArray(mat[:])
			writeMatrix(data[offset:offset+64], mat)
		}
	}
	return nil
}
