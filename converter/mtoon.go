package converter

import (
	"math"
	"strings"

	"github.com/binzume/avatarconv/compose"
	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
	"github.com/qmuntal/gltf"
)

func lilToonAlphaMode(mat *scene.Material) gltf.AlphaMode {
	if mode, ok := alphaModeFromTag(mat); ok {
		return mode
	}
	if v, ok := mat.Float("_TransparentMode"); ok {
		switch int(v) {
		case 1:
			return gltf.AlphaMask
		case 2:
			return gltf.AlphaBlend
		}
		return gltf.AlphaOpaque
	}
	if strings.Contains(mat.Shader, "Cutout") {
		return gltf.AlphaMask
	}
	if strings.Contains(mat.Shader, "Transparent") {
		return gltf.AlphaBlend
	}
	return gltf.AlphaOpaque
}

func mulRGB(a *geom.Vector4, b *geom.Vector4) *geom.Vector4 {
	return &geom.Vector4{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z, W: a.W}
}

func linearRGB(c *geom.Vector4) [3]float32 {
	l := c.Linear()
	return [3]float32{l.X, l.Y, l.Z}
}

// lilToon converts a lilToon material to PBR with VRMC_materials_mtoon.
func (m *materialTranslator) lilToon(mat *scene.Material) *gltf.Material {
	mm := &gltf.Material{
		Name:                 trimCloneSuffix(mat.Name),
		AlphaMode:            lilToonAlphaMode(mat),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
	}
	mtoon := vrm.NewMToon()
	matcapBase, matcapShade := matCapMultiplyColors(mat)

	// base color
	var mainBaked *compose.Baked
	if c, ok := mat.Color("_Color"); ok {
		c = mulRGB(c, &matcapBase)
		bc := geom.Vector4{X: geom.Clamp01(c.X), Y: geom.Clamp01(c.Y), Z: geom.Clamp01(c.Z), W: geom.Clamp01(c.W)}
		f := bc.Linear().Array()
		mm.PBRMetallicRoughness.BaseColorFactor = &f
	}
	if slot := mat.Texture("_MainTex"); slot != nil {
		mainBaked = m.baker.bake(mainBakeRequest(mat))
		if mainBaked != nil {
			if id, ok := m.textures.Baked(mainBaked); ok {
				mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: id}
			}
		} else {
			mm.PBRMetallicRoughness.BaseColorTexture = m.textures.Info(slot)
		}
	}
	baseTexture := mm.PBRMetallicRoughness.BaseColorTexture

	if mm.AlphaMode == gltf.AlphaMask {
		if v, ok := mat.Float("_Cutoff"); ok {
			mm.AlphaCutoff = &v
		}
	}
	if v, ok := mat.Float("_Cull"); ok {
		mm.DoubleSided = v == 0
	}

	m.lilToonShadow(mat, mtoon, baseTexture, mainBaked, &matcapShade)

	if mat.Flag("_UseBumpMap") {
		mm.NormalTexture = m.normalTexture(mat.Texture("_BumpMap"), mat.FloatOr("_BumpScale", 1))
	}
	if mat.Flag("_UseEmission") {
		if c, ok := mat.Color("_EmissionColor"); ok {
			mm.EmissiveFactor = linearRGB(c)
		}
		mm.EmissiveTexture = m.textures.Info(mat.Texture("_EmissionMap"))
	}
	m.lilToonRim(mat, mtoon)
	m.lilToonMatCap(mat, mtoon)
	m.lilToonOutline(mat, mtoon)

	if c, ok := mat.Color("_MainTex_ScrollRotate"); ok {
		mtoon.UVAnimationScrollXSpeedFactor = c.X
		mtoon.UVAnimationScrollYSpeedFactor = c.Y
		mtoon.UVAnimationRotationSpeedFactor = c.W / math.Pi * 0.5
	}
	if mm.AlphaMode == gltf.AlphaBlend && mtoon.OutlineWidthMode != vrm.OutlineWidthNone {
		mtoon.TransparentWithZWrite = true
	}
	mtoon.GIEqualizationFactor = 0.9

	mm.Extensions = gltf.Extensions{
		vrm.MToonExtensionName: mtoon,
		unlitExtension:         map[string]string{},
	}
	return mm
}

func (m *materialTranslator) lilToonShadow(mat *scene.Material, mtoon *vrm.MToon, baseTexture *gltf.TextureInfo, mainBaked *compose.Baked, matcapShade *geom.Vector4) {
	if !mat.Flag("_UseShadow") {
		mtoon.ShadeColorFactor = linearRGB(matcapShade)
		mtoon.ShadingShiftFactor = 0
		mtoon.ShadingToonyFactor = 0.9
		if baseTexture != nil {
			mtoon.ShadeMultiplyTexture = &gltf.TextureInfo{Index: baseTexture.Index}
		}
		return
	}
	mtoon.ShadingShiftFactor, mtoon.ShadingToonyFactor = shadingShiftToony(
		mat.FloatOr("_ShadowBorder", 0.5), mat.FloatOr("_ShadowBlur", 0.1))

	var mainImage = textureImage(mat.Texture("_MainTex"))
	if mainBaked != nil {
		mainImage = mainBaked.Image
	}
	shade := white
	if baked := m.baker.bake(shadowBakeRequest(mat, mainImage)); baked != nil {
		if id, ok := m.textures.Baked(baked); ok {
			mtoon.ShadeMultiplyTexture = &gltf.TextureInfo{Index: id}
		}
	} else {
		c := mat.ColorOr("_ShadowColor", defaultShadowColor)
		strength := mat.FloatOr("_ShadowStrength", 1)
		shade = geom.Vector4{X: 1 - (1-c.X)*strength, Y: 1 - (1-c.Y)*strength, Z: 1 - (1-c.Z)*strength, W: 1}
		if info := m.textures.Info(mat.Texture("_ShadowColorTex")); info != nil {
			mtoon.ShadeMultiplyTexture = &gltf.TextureInfo{Index: info.Index}
		} else if baseTexture != nil {
			mtoon.ShadeMultiplyTexture = &gltf.TextureInfo{Index: baseTexture.Index}
		}
	}
	mtoon.ShadeColorFactor = linearRGB(mulRGB(&shade, matcapShade))
}

func (m *materialTranslator) lilToonRim(mat *scene.Material, mtoon *vrm.MToon) {
	if m.opts.DisableRimLight || !mat.Flag("_UseRim") {
		mtoon.ParametricRimColorFactor = [3]float32{}
		return
	}
	if c, ok := mat.Color("_RimColor"); ok {
		mtoon.ParametricRimColorFactor = linearRGB(c)
	}
	power := mat.FloatOr("_RimFresnelPower", 3.5)
	blur := mat.FloatOr("_RimBlur", 0.65)
	border := mat.FloatOr("_RimBorder", 0.5)
	mtoon.ParametricRimFresnelPowerFactor = power / max(0.001, blur)
	mtoon.ParametricRimLiftFactor = geom.Pow(1-border, power) * (1 - blur)
	if v, ok := mat.Float("_RimEnableLighting"); ok {
		mtoon.RimLightingMixFactor = v
	}
	if int(mat.FloatOr("_RimBlendMode", 0)) == 3 {
		if info := m.textures.Info(mat.Texture("_RimColorTex")); info != nil {
			mtoon.RimMultiplyTexture = &gltf.TextureInfo{Index: info.Index}
		}
	}
}

func (m *materialTranslator) lilToonMatCap(mat *scene.Material, mtoon *vrm.MToon) {
	mtoon.MatcapFactor = [3]float32{}
	if m.opts.DisableMatCap || !mat.Flag("_UseMatCap") {
		return
	}
	if mat.Texture("_MatCapBlendMask") != nil {
		m.diag.unsupported("Material", "%v: matcap blend mask", mat.Name)
		return
	}
	if geom.Approximately(mat.FloatOr("_MatCapBlendMode", 0), 3) {
		m.diag.unsupported("Material", "%v: multiply matcap is baked into base and shade colors", mat.Name)
		return
	}
	slot := mat.Texture("_MatCapTex")
	if slot == nil {
		return
	}
	mc, hasColor := mat.Color("_MatCapColor")
	alpha := float32(1)
	if hasColor {
		alpha = mc.W
	}
	if baked := m.baker.bake(matCapBakeRequest(mat)); baked != nil {
		if id, ok := m.textures.Baked(baked); ok {
			mtoon.MatcapTexture = &gltf.TextureInfo{Index: id}
			// the baked texture carries the color, alpha is the strength
			mtoon.MatcapFactor = [3]float32{alpha, alpha, alpha}
		}
		return
	}
	if id, ok := m.textures.Texture(slot.Texture); ok {
		mtoon.MatcapTexture = &gltf.TextureInfo{Index: id}
		mtoon.MatcapFactor = [3]float32{1, 1, 1}
		if hasColor {
			c := linearRGB(mc)
			mtoon.MatcapFactor = [3]float32{c[0] * alpha, c[1] * alpha, c[2] * alpha}
		}
	}
}

func (m *materialTranslator) lilToonOutline(mat *scene.Material, mtoon *vrm.MToon) {
	mtoon.OutlineWidthMode = vrm.OutlineWidthNone
	if m.opts.DisableOutline || !strings.Contains(mat.Shader, "Outline") {
		return
	}
	width := mat.FloatOr("_OutlineWidth", 0)
	if width <= 0 {
		return
	}
	mtoon.OutlineWidthMode = vrm.OutlineWidthWorldCoordinates
	mtoon.OutlineWidthFactor = width * 0.01
	if c, ok := mat.Color("_OutlineColor"); ok {
		mtoon.OutlineColorFactor = linearRGB(c)
	}
	if info := m.textures.Info(mat.Texture("_OutlineWidthMask")); info != nil {
		mtoon.OutlineWidthMultiplyTexture = &gltf.TextureInfo{Index: info.Index}
	}
	mtoon.OutlineLightingMixFactor = 1
}
