package converter

import (
	"context"
	"strings"

	"github.com/binzume/avatarconv/compose"
	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/qmuntal/gltf"
)

const (
	unlitExtension            = "KHR_materials_unlit"
	emissiveStrengthExtension = "KHR_materials_emissive_strength"
)

var (
	white = geom.Vector4{X: 1, Y: 1, Z: 1, W: 1}
	black = geom.Vector4{W: 1}
)

// materialTranslator converts each distinct source material once.
type materialTranslator struct {
	doc      *gltf.Document
	textures *textureExporter
	diag     *diagnostics
	baker    *lilToonBaker
	opts     *Options

	cache          map[*scene.Material]uint32
	extensionsUsed ExtensionSet
}

func newMaterialTranslator(ctx context.Context, doc *gltf.Document, textures *textureExporter, diag *diagnostics, opts *Options, tracker *compose.Tracker) *materialTranslator {
	var baker *lilToonBaker
	if !opts.DisableBaking {
		c := opts.Compositor
		if c == nil {
			c = compose.NewCPU()
		}
		baker = &lilToonBaker{ctx: ctx, compositor: c, tracker: tracker, diag: diag}
	}
	return &materialTranslator{
		doc:            doc,
		textures:       textures,
		diag:           diag,
		baker:          baker,
		opts:           opts,
		cache:          map[*scene.Material]uint32{},
		extensionsUsed: NewExtensionSet(),
	}
}

// Material returns the index of the converted material.
func (m *materialTranslator) Material(mat *scene.Material) (uint32, bool) {
	if mat == nil {
		return 0, false
	}
	if id, ok := m.cache[mat]; ok {
		return id, true
	}
	var mm *gltf.Material
	if mat.IsLilToon() {
		mm = m.lilToon(mat)
	} else {
		mm = m.pbr(mat)
	}
	for name := range mm.Extensions {
		m.extensionsUsed.Add(name)
	}
	m.doc.Materials = append(m.doc.Materials, mm)
	id := uint32(len(m.doc.Materials) - 1)
	m.cache[mat] = id
	return id, true
}

func alphaModeFromTag(mat *scene.Material) (gltf.AlphaMode, bool) {
	switch mat.Tag("RenderType") {
	case "Transparent":
		return gltf.AlphaBlend, true
	case "TransparentCutout":
		return gltf.AlphaMask, true
	case "":
		return gltf.AlphaOpaque, false
	}
	return gltf.AlphaOpaque, true
}

func clamp01Array(c *geom.Vector4) [3]float32 {
	return [3]float32{geom.Clamp01(c.X), geom.Clamp01(c.Y), geom.Clamp01(c.Z)}
}

func (m *materialTranslator) normalTexture(slot *scene.TextureSlot, scale float32) *gltf.NormalTexture {
	info := m.textures.Info(slot)
	if info == nil {
		return nil
	}
	return &gltf.NormalTexture{Index: gltf.Index(info.Index), Scale: &scale, Extensions: info.Extensions}
}

// pbr converts a material of an unknown shader with the Standard shader property names.
func (m *materialTranslator) pbr(mat *scene.Material) *gltf.Material {
	alphaMode, _ := alphaModeFromTag(mat)
	mm := &gltf.Material{
		Name:                 trimCloneSuffix(mat.Name),
		AlphaMode:            alphaMode,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
	}
	pbr := mm.PBRMetallicRoughness
	if c, ok := mat.Color("_Color"); ok {
		bc := c.Linear().Array()
		pbr.BaseColorFactor = &bc
	}
	pbr.BaseColorTexture = m.textures.Info(mat.Texture("_MainTex"))

	if mat.HasKeyword("_EMISSION") {
		e := mat.ColorOr("_EmissionColor", black).Linear()
		mm.EmissiveFactor = clamp01Array(e)
		if strength := max(e.X, e.Y, e.Z); strength > 1 {
			mm.Extensions = gltf.Extensions{emissiveStrengthExtension: map[string]interface{}{"emissiveStrength": strength}}
		}
		mm.EmissiveTexture = m.textures.Info(mat.Texture("_EmissionMap"))
	}
	mm.NormalTexture = m.normalTexture(mat.Texture("_BumpMap"), mat.FloatOr("_BumpScale", 1))
	if info := m.textures.Info(mat.Texture("_OcclusionMap")); info != nil {
		strength := geom.Clamp01(mat.FloatOr("_OcclusionStrength", 1))
		mm.OcclusionTexture = &gltf.OcclusionTexture{Index: gltf.Index(info.Index), Strength: &strength, Extensions: info.Extensions}
	}
	if info := m.textures.Info(mat.Texture("_MetallicGlossMap")); info != nil {
		var one float32 = 1
		pbr.MetallicRoughnessTexture = info
		pbr.MetallicFactor = &one
		pbr.RoughnessFactor = &one
	} else {
		if v, ok := mat.Float("_Metallic"); ok {
			mf := geom.Clamp01(v)
			pbr.MetallicFactor = &mf
		}
		if v, ok := mat.Float("_Glossiness"); ok {
			rf := geom.Clamp01(1 - v)
			pbr.RoughnessFactor = &rf
		}
	}
	if mm.AlphaMode == gltf.AlphaMask {
		if v, ok := mat.Float("_Cutoff"); ok {
			cutoff := max(v, 0)
			mm.AlphaCutoff = &cutoff
		}
	}
	if v, ok := mat.Float("_CullMode"); ok {
		mm.DoubleSided = v == 0
	} else if v, ok := mat.Float("_Cull"); ok {
		mm.DoubleSided = v == 0
	}
	if strings.Contains(mat.Shader, "Unlit") {
		if mm.Extensions == nil {
			mm.Extensions = gltf.Extensions{}
		}
		mm.Extensions[unlitExtension] = map[string]string{}
	}
	return mm
}
