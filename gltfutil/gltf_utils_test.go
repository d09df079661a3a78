package gltfutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/binzume/avatarconv/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func TestMatrices(t *testing.T) {
	doc := gltf.NewDocument()
	m1 := geom.NewTranslateMatrix4(1, 2, 3)
	m2 := geom.NewScaleMatrix4(2, 2, 2)
	acc := WriteMatrices(doc, []*geom.Matrix4{m1, m2})

	if doc.Accessors[acc].Type != gltf.AccessorMat4 || doc.Accessors[acc].Count != 2 {
		t.Fatal("invalid accessor", doc.Accessors[acc])
	}
	mats, err := ReadMatrices(doc, acc)
	if err != nil {
		t.Fatal(err)
	}
	if len(mats) != 2 || *mats[0] != *m1 || *mats[1] != *m2 {
		t.Error("matrix mismatch", mats)
	}
	if _, err := ReadMatrices(doc, 100); err == nil {
		t.Error("expected error")
	}
}

func TestTransform(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{1, 0, 0}, {0, 1, 0}})
	diff := modeler.WritePosition(doc, [][3]float32{{0, 1, 0}, {0, 0, 0}})
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
		Attributes: map[string]uint32{gltf.POSITION: pos},
		Targets:    []map[string]uint32{{gltf.POSITION: diff}},
	}}}}
	doc.Nodes = []*gltf.Node{{Translation: [3]float32{0, 1, 0}, Scale: [3]float32{1, 1, 1}, Rotation: [4]float32{0, 0, 0, 1}}}

	err := Transform(doc, &geom.Vector3{X: 2, Y: 2, Z: 2}, &geom.Vector3{Y: 1})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := modeler.ReadPosition(doc, doc.Accessors[pos], nil)
	if p[0] != [3]float32{2, 1, 0} || p[1] != [3]float32{0, 3, 0} {
		t.Error("position", p)
	}
	d, _ := modeler.ReadPosition(doc, doc.Accessors[diff], nil)
	if d[0] != [3]float32{0, 2, 0} {
		t.Error("morph delta must not be offset", d)
	}
	if doc.Nodes[0].Translation != [3]float32{0, 2, 0} {
		t.Error("node", doc.Nodes[0].Translation)
	}
	if doc.Accessors[pos].Max[1] != 3 {
		t.Error("max", doc.Accessors[pos].Max)
	}
}

func testImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestAddTexture(t *testing.T) {
	img := testImage(8, 4, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	png.Encode(&buf, img)

	doc := gltf.NewDocument()
	idx, ext, err := AddTexture(doc, "tex.png", img, buf.Bytes(), "image/png", nil)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0 || ext != "" || doc.Textures[0].Source == nil {
		t.Error("png texture", idx, ext)
	}
	bv := doc.BufferViews[*doc.Images[0].BufferView]
	if int(bv.ByteLength) != buf.Len() {
		t.Error("original bytes should be embedded", bv.ByteLength, buf.Len())
	}
	if doc.Buffers[0].ByteLength != uint32(len(doc.Buffers[0].Data)) {
		t.Error("buffer length")
	}

	idx, ext, err = AddTexture(doc, "tex.webp", img, nil, "", &ImageOptions{Format: FormatWebP})
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 || ext != WebPExtension || doc.Textures[1].Source != nil || doc.Images[1].MimeType != "image/webp" {
		t.Error("webp texture", idx, ext)
	}

	EnsureSampler(doc)
	if len(doc.Samplers) != 1 {
		t.Error("sampler")
	}

	if _, _, err := AddTexture(doc, "none", nil, nil, "", nil); err != ErrNoImage {
		t.Error("expected ErrNoImage", err)
	}
}

func TestScaleImage(t *testing.T) {
	img := scaleImage(testImage(64, 32, color.NRGBA{A: 255}), 16)
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Error("size", img.Bounds())
	}
}
