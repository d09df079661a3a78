package converter

import (
	"context"
	"image"

	"github.com/binzume/avatarconv/compose"
	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
)

var defaultShadowColor = geom.Vector4{X: 0.82, Y: 0.76, Z: 0.85, W: 1}

const matCapLerpFactor = 0.3

// lilToonBaker runs bake requests and keeps the results in the run's tracker.
type lilToonBaker struct {
	ctx        context.Context
	compositor compose.Compositor
	tracker    *compose.Tracker
	diag       *diagnostics
}

func (b *lilToonBaker) bake(req *compose.Request) *compose.Baked {
	if b == nil || req == nil {
		return nil
	}
	baked, err := b.tracker.Bake(b.ctx, b.compositor, req)
	if err != nil {
		b.diag.unsupported("Material", "%v: bake failed: %v", req.Name, err)
		return nil
	}
	return baked
}

func blendModeOf(v float32) compose.BlendMode {
	switch int(v) {
	case 1:
		return compose.BlendAdd
	case 2:
		return compose.BlendScreen
	case 3:
		return compose.BlendMultiply
	}
	return compose.BlendNormal
}

// layerOf builds the 2nd or 3rd main layer. suffix is "2nd" or "3rd".
func layerOf(mat *scene.Material, suffix string) *compose.Layer {
	if v, ok := mat.Float("_UseMain" + suffix + "Tex"); !ok || v == 0 {
		return nil
	}
	slot := mat.Texture("_Main" + suffix + "Tex")
	img := textureImage(slot)
	if img == nil {
		return nil
	}
	layer := compose.NewLayer(img, *mat.ColorOr("_Color"+suffix, white), blendModeOf(mat.FloatOr("_Main"+suffix+"TexBlendMode", 0)))
	layer.Scale = slot.Scale
	layer.Offset = slot.Offset
	layer.Mask = textureImage(mat.Texture("_Main" + suffix + "BlendMask"))
	return layer
}

// mainBakeRequest returns nil when the main texture can be used as is.
func mainBakeRequest(mat *scene.Material) *compose.Request {
	base := textureImage(mat.Texture("_MainTex"))
	if base == nil {
		return nil
	}
	hsvg := *mat.ColorOr("_MainTexHSVG", compose.DefaultHSVG)
	var layers []*compose.Layer
	for _, suffix := range []string{"2nd", "3rd"} {
		if l := layerOf(mat, suffix); l != nil {
			layers = append(layers, l)
		}
	}
	gradation := textureImage(mat.Texture("_MainGradationTex"))
	strength := mat.FloatOr("_MainGradationStrength", 0)
	if gradation == nil || strength <= 0 {
		gradation, strength = nil, 0
	}
	if hsvg == compose.DefaultHSVG && gradation == nil && len(layers) == 0 {
		return nil
	}
	req := compose.NewRequest(mat.Name+"_main", base)
	req.HSVG = hsvg
	req.Gradation = gradation
	req.GradationStrength = strength
	req.ColorAdjustMask = textureImage(mat.Texture("_MainColorAdjustMask"))
	req.Layers = layers
	return req
}

func needsShadowBake(mat *scene.Material) bool {
	if !mat.Flag("_UseShadow") {
		return false
	}
	return mat.Texture("_ShadowStrengthMask") != nil || mat.FloatOr("_ShadowMainStrength", 0) != 0
}

// shadowBakeRequest composes the shadow color over the (baked) main texture.
func shadowBakeRequest(mat *scene.Material, main image.Image) *compose.Request {
	if !needsShadowBake(mat) {
		return nil
	}
	if main == nil {
		main = textureImage(mat.Texture("_MainTex"))
	}
	if main == nil {
		return nil
	}
	shadow := mat.ColorOr("_ShadowColor", white)
	mainColor := mat.ColorOr("_Color", white)
	multiplied := &geom.Vector4{X: shadow.X * mainColor.X, Y: shadow.Y * mainColor.Y, Z: shadow.Z * mainColor.Z, W: shadow.W}
	adjusted := geom.LerpVector4(shadow, multiplied, mat.FloatOr("_ShadowMainStrength", 0))
	adjusted.W = mat.FloatOr("_ShadowStrength", 1)

	layerImage := textureImage(mat.Texture("_ShadowColorTex"))
	if layerImage == nil {
		layerImage = main
	}
	layer := compose.NewLayer(layerImage, *adjusted, compose.BlendNormal)
	layer.Mask = textureImage(mat.Texture("_ShadowStrengthMask"))

	req := compose.NewRequest(mat.Name+"_shade", main)
	req.Layers = []*compose.Layer{layer}
	return req
}

// matCapBakeRequest multiplies the matcap texture by its color.
func matCapBakeRequest(mat *scene.Material) *compose.Request {
	img := textureImage(mat.Texture("_MatCapTex"))
	if img == nil {
		return nil
	}
	c := mat.ColorOr("_MatCapColor", white)
	if *c == white {
		return nil
	}
	req := compose.NewRequest(mat.Name+"_matcap", img)
	req.Color = *c
	return req
}

func isMatCapMultiply(mat *scene.Material) bool {
	return mat.Flag("_UseMatCap") &&
		geom.Approximately(mat.FloatOr("_MatCapBlendMode", 0), 3) &&
		mat.Texture("_MatCapBlendMask") == nil
}

// matCapMultiplyColors approximates a multiply matcap by tinting the base and shade colors.
func matCapMultiplyColors(mat *scene.Material) (base, shade geom.Vector4) {
	img := textureImage(mat.Texture("_MatCapTex"))
	if !isMatCapMultiply(mat) || img == nil {
		return white, white
	}
	c := mat.ColorOr("_MatCapColor", white)
	maxColor, minColor := compose.MinMaxLuminance(img)
	maxColor = geom.Vector4{X: maxColor.X * c.X, Y: maxColor.Y * c.Y, Z: maxColor.Z * c.Z, W: 1}
	minColor = geom.Vector4{X: minColor.X * c.X, Y: minColor.Y * c.Y, Z: minColor.Z * c.Z, W: 1}
	lerpedMax := geom.LerpVector4(&maxColor, &minColor, matCapLerpFactor)
	lerpedMin := geom.LerpVector4(&minColor, &maxColor, matCapLerpFactor)
	s := mat.FloatOr("_MatCapBlend", 1) * c.W
	return *geom.LerpVector4(&white, lerpedMax, s), *geom.LerpVector4(&white, lerpedMin, s)
}

// shadingShiftToony converts lilToon shadow border and blur to MToon shading shift and toony factors.
func shadingShiftToony(border, blur float32) (shift, toony float32) {
	shift = geom.Clamp(geom.Clamp01(border-blur*0.5)*2-1, -1, 1)
	if geom.Approximately(shift, 1) {
		return shift, 1
	}
	return shift, geom.Clamp01((2 - geom.Clamp01(border+blur*0.5)*2) / (1 - shift))
}
