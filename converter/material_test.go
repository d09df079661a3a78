package converter

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/binzume/avatarconv/compose"
	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
	"github.com/qmuntal/gltf"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func newTestMaterialTranslator(opts *Options, tracker *compose.Tracker) (*materialTranslator, *gltf.Document) {
	doc := &gltf.Document{}
	diag := newDiagnostics(nil)
	return newMaterialTranslator(context.Background(), doc, newTextureExporter(doc, nil, diag), diag, opts, tracker), doc
}

func TestShadingShiftToony(t *testing.T) {
	shift, toony := shadingShiftToony(0.5, 0.1)
	if !near(shift, -0.1) || !near(toony, 0.9/1.1) {
		t.Error("border 0.5 blur 0.1", shift, toony)
	}
	shift, toony = shadingShiftToony(1, 0)
	if shift != 1 || toony != 1 {
		t.Error("shift 1 should force toony 1", shift, toony)
	}
	if _, toony = shadingShiftToony(0, 0); !near(toony, 1) {
		t.Error("toony", toony)
	}
}

func TestPBRMaterial(t *testing.T) {
	m, doc := newTestMaterialTranslator(&Options{}, &compose.Tracker{})
	mat := scene.NewMaterial("Body(Clone)", "Standard")
	mat.Colors["_Color"] = geom.Vector4{X: 1, Y: 1, Z: 1, W: 0.5}
	mat.Floats["_Metallic"] = 0.2
	mat.Floats["_Glossiness"] = 0.3
	mat.Floats["_Cull"] = 0
	mat.Keywords = []string{"_EMISSION"}
	mat.Colors["_EmissionColor"] = geom.Vector4{X: 2, Y: 0, Z: 0, W: 1}

	id, ok := m.Material(mat)
	if !ok || id != 0 {
		t.Fatal("material", id, ok)
	}
	if id2, _ := m.Material(mat); id2 != id || len(doc.Materials) != 1 {
		t.Error("material should be cached")
	}
	mm := doc.Materials[0]
	if mm.Name != "Body" || !mm.DoubleSided || mm.AlphaMode != gltf.AlphaOpaque {
		t.Error("material", mm.Name, mm.DoubleSided, mm.AlphaMode)
	}
	pbr := mm.PBRMetallicRoughness
	if *pbr.MetallicFactor != 0.2 || !near(*pbr.RoughnessFactor, 0.7) || pbr.BaseColorFactor[3] != 0.5 {
		t.Error("pbr factors", *pbr.MetallicFactor, *pbr.RoughnessFactor, pbr.BaseColorFactor)
	}
	if mm.EmissiveFactor[0] != 1 {
		t.Error("emissive should be clamped", mm.EmissiveFactor)
	}
	if _, ok := mm.Extensions[emissiveStrengthExtension]; !ok || !m.extensionsUsed.Has(emissiveStrengthExtension) {
		t.Error("emissive strength extension")
	}
}

func TestLilToonMaterial(t *testing.T) {
	tracker := &compose.Tracker{}
	m, doc := newTestMaterialTranslator(&Options{}, tracker)
	mat := scene.NewMaterial("Skin", "lilToon")
	mat.Colors["_Color"] = geom.Vector4{X: 1, Y: 0.5, Z: 0.5, W: 1}
	mat.Floats["_UseShadow"] = 1
	mat.Floats["_ShadowBorder"] = 0.5
	mat.Floats["_ShadowBlur"] = 0.1

	id, _ := m.Material(mat)
	mm := doc.Materials[id]
	mtoon, ok := mm.Extensions[vrm.MToonExtensionName].(*vrm.MToon)
	if !ok {
		t.Fatal("mtoon extension")
	}
	if _, ok := mm.Extensions[unlitExtension]; !ok {
		t.Error("unlit extension")
	}
	if !m.extensionsUsed.Has(vrm.MToonExtensionName) || !m.extensionsUsed.Has(unlitExtension) {
		t.Error("extensions used", m.extensionsUsed.Sorted())
	}
	if !near(mtoon.ShadingShiftFactor, -0.1) || !near(mtoon.ShadingToonyFactor, 0.9/1.1) {
		t.Error("shading", mtoon.ShadingShiftFactor, mtoon.ShadingToonyFactor)
	}
	if mtoon.OutlineWidthMode != vrm.OutlineWidthNone {
		t.Error("outline", mtoon.OutlineWidthMode)
	}
	if bc := mm.PBRMetallicRoughness.BaseColorFactor; bc == nil || bc[0] != 1 || bc[1] >= 0.5 {
		t.Error("base color should be linear", bc)
	}
	if tracker.Len() != 0 || len(doc.Textures) != 0 {
		t.Error("nothing to bake", tracker.Len())
	}
}

func TestLilToonBake(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	newMat := func() *scene.Material {
		mat := scene.NewMaterial("Hair", "Hidden/lilToonCutout")
		mat.Textures["_MainTex"] = &scene.TextureSlot{Texture: &scene.Texture{Name: "hair", Image: img}, Scale: geom.Vector2{X: 1, Y: 1}}
		mat.Colors["_MainTexHSVG"] = geom.Vector4{X: 0.5, Y: 1, Z: 1, W: 1}
		mat.Floats["_Cutoff"] = 0.3
		return mat
	}

	tracker := &compose.Tracker{}
	m, doc := newTestMaterialTranslator(&Options{}, tracker)
	id, _ := m.Material(newMat())
	mm := doc.Materials[id]
	if tracker.Len() != 1 {
		t.Error("main texture should be baked", tracker.Len())
	}
	if mm.PBRMetallicRoughness.BaseColorTexture == nil || len(doc.Images) != 1 {
		t.Error("baked texture", len(doc.Images))
	}
	if mm.AlphaMode != gltf.AlphaMask || mm.AlphaCutoff == nil || *mm.AlphaCutoff != 0.3 {
		t.Error("cutout", mm.AlphaMode)
	}

	tracker = &compose.Tracker{}
	m, doc = newTestMaterialTranslator(&Options{DisableBaking: true}, tracker)
	m.Material(newMat())
	if tracker.Len() != 0 || len(doc.Textures) != 1 {
		t.Error("baking disabled", tracker.Len(), len(doc.Textures))
	}
}

func TestLilToonBakeGradation(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	ramp := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	mat := scene.NewMaterial("Cloth", "lilToon")
	mat.Textures["_MainTex"] = &scene.TextureSlot{Texture: &scene.Texture{Name: "cloth", Image: img}, Scale: geom.Vector2{X: 1, Y: 1}}
	mat.Textures["_MainGradationTex"] = &scene.TextureSlot{Texture: &scene.Texture{Name: "ramp", Image: ramp}, Scale: geom.Vector2{X: 1, Y: 1}}

	if mainBakeRequest(mat) != nil {
		t.Error("zero gradation strength should not bake")
	}
	mat.Floats["_MainGradationStrength"] = 0.5
	req := mainBakeRequest(mat)
	if req == nil || req.Gradation != ramp || req.GradationStrength != 0.5 {
		t.Fatal("gradation should be baked", req)
	}

	tracker := &compose.Tracker{}
	m, doc := newTestMaterialTranslator(&Options{}, tracker)
	m.Material(mat)
	if tracker.Len() != 1 || len(doc.Images) != 1 {
		t.Error("baked main texture", tracker.Len(), len(doc.Images))
	}
}

func TestLilToonMatCapFactor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	newMat := func() *scene.Material {
		mat := scene.NewMaterial("Eye", "lilToon")
		mat.Floats["_UseMatCap"] = 1
		mat.Floats["_MatCapBlendMode"] = 1
		mat.Textures["_MatCapTex"] = &scene.TextureSlot{Texture: &scene.Texture{Name: "matcap", Image: img}, Scale: geom.Vector2{X: 1, Y: 1}}
		mat.Colors["_MatCapColor"] = geom.Vector4{X: 1, Y: 1, Z: 1, W: 0.5}
		return mat
	}

	m, doc := newTestMaterialTranslator(&Options{}, &compose.Tracker{})
	id, _ := m.Material(newMat())
	mtoon := doc.Materials[id].Extensions[vrm.MToonExtensionName].(*vrm.MToon)
	if mtoon.MatcapTexture == nil || mtoon.MatcapFactor != [3]float32{0.5, 0.5, 0.5} {
		t.Error("matcap factor", mtoon.MatcapFactor)
	}

	m, doc = newTestMaterialTranslator(&Options{DisableBaking: true}, &compose.Tracker{})
	mat := newMat()
	mat.Colors["_MatCapColor"] = geom.Vector4{X: 1, Y: 0, Z: 1, W: 0.5}
	id, _ = m.Material(mat)
	mtoon = doc.Materials[id].Extensions[vrm.MToonExtensionName].(*vrm.MToon)
	if f := mtoon.MatcapFactor; !near(f[0], 0.5) || f[1] != 0 || !near(f[2], 0.5) {
		t.Error("unbaked matcap factor", f)
	}
}
