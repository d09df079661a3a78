package gltfutil

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/binzume/avatarconv/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func readMatrix(data []byte) [16]float32 {
	var mat [16]float32
	for i := 0; i < 16; i++ {
		d := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		mat[i] = math.Float32frombits(d)
	}
	return mat
}

func writeMatrix(data []byte, mat [16]float32) {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], math.Float32bits(mat[i]))
	}
}

// WriteMatrices writes a MAT4 accessor and returns its index.
func WriteMatrices(doc *gltf.Document, mats []*geom.Matrix4) uint32 {
	a := make([][4]float32, len(mats)*4)
	for i, m := range mats {
		for c := 0; c < 4; c++ {
			a[i*4+c] = [4]float32{m[c*4], m[c*4+1], m[c*4+2], m[c*4+3]}
		}
	}
	acc := modeler.WriteTangent(doc, a)
	doc.Accessors[acc].Type = gltf.AccessorMat4
	doc.Accessors[acc].Count /= 4
	doc.Accessors[acc].Min = nil
	doc.Accessors[acc].Max = nil
	doc.BufferViews[*doc.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

// ReadMatrices reads a MAT4 accessor written by WriteMatrices.
func ReadMatrices(doc *gltf.Document, acc uint32) ([]*geom.Matrix4, error) {
	if int(acc) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d not found", acc)
	}
	accessor := doc.Accessors[acc]
	if accessor.BufferView == nil || accessor.Type != gltf.AccessorMat4 {
		return nil, fmt.Errorf("accessor %d is not a matrix", acc)
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	data := doc.Buffers[bufferView.Buffer].Data
	var mats []*geom.Matrix4
	for i := uint32(0); i < accessor.Count; i++ {
		offset := bufferView.ByteOffset + accessor.ByteOffset + i*64
		if int(offset+64) > len(data) {
			return nil, fmt.Errorf("accessor %d out of range", acc)
		}
		m := geom.Matrix4(readMatrix(data[offset : offset+64]))
		mats = append(mats, &m)
	}
	return mats, nil
}
