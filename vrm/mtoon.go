package vrm

import "github.com/qmuntal/gltf"

// https://github.com/vrm-c/vrm-specification/tree/master/specification/VRMC_materials_mtoon-1.0

const (
	OutlineWidthNone              = "none"
	OutlineWidthWorldCoordinates  = "worldCoordinates"
	OutlineWidthScreenCoordinates = "screenCoordinates"
)

type ShadingShiftTexture struct {
	Index    uint32  `json:"index"`
	TexCoord uint32  `json:"texCoord,omitempty"`
	Scale    float32 `json:"scale"`
}

type MToon struct {
	SpecVersion             string `json:"specVersion"`
	TransparentWithZWrite   bool   `json:"transparentWithZWrite"`
	RenderQueueOffsetNumber int    `json:"renderQueueOffsetNumber"`

	ShadeColorFactor     [3]float32           `json:"shadeColorFactor"`
	ShadeMultiplyTexture *gltf.TextureInfo    `json:"shadeMultiplyTexture,omitempty"`
	ShadingShiftFactor   float32              `json:"shadingShiftFactor"`
	ShadingShiftTexture  *ShadingShiftTexture `json:"shadingShiftTexture,omitempty"`
	ShadingToonyFactor   float32              `json:"shadingToonyFactor"`
	GIEqualizationFactor float32              `json:"giEqualizationFactor"`

	MatcapFactor                    [3]float32        `json:"matcapFactor"`
	MatcapTexture                   *gltf.TextureInfo `json:"matcapTexture,omitempty"`
	ParametricRimColorFactor        [3]float32        `json:"parametricRimColorFactor"`
	RimMultiplyTexture              *gltf.TextureInfo `json:"rimMultiplyTexture,omitempty"`
	RimLightingMixFactor            float32           `json:"rimLightingMixFactor"`
	ParametricRimFresnelPowerFactor float32           `json:"parametricRimFresnelPowerFactor"`
	ParametricRimLiftFactor         float32           `json:"parametricRimLiftFactor"`

	OutlineWidthMode            string            `json:"outlineWidthMode"`
	OutlineWidthFactor          float32           `json:"outlineWidthFactor"`
	OutlineWidthMultiplyTexture *gltf.TextureInfo `json:"outlineWidthMultiplyTexture,omitempty"`
	OutlineColorFactor          [3]float32        `json:"outlineColorFactor"`
	OutlineLightingMixFactor    float32           `json:"outlineLightingMixFactor"`

	UVAnimationMaskTexture         *gltf.TextureInfo `json:"uvAnimationMaskTexture,omitempty"`
	UVAnimationScrollXSpeedFactor  float32           `json:"uvAnimationScrollXSpeedFactor"`
	UVAnimationScrollYSpeedFactor  float32           `json:"uvAnimationScrollYSpeedFactor"`
	UVAnimationRotationSpeedFactor float32           `json:"uvAnimationRotationSpeedFactor"`
}

// NewMToon returns MToon with the default values of the extension.
func NewMToon() *MToon {
	return &MToon{
		SpecVersion:                     SpecVersion,
		ShadeColorFactor:                [3]float32{1, 1, 1},
		ShadingToonyFactor:              0.9,
		GIEqualizationFactor:            0.9,
		MatcapFactor:                    [3]float32{1, 1, 1},
		RimLightingMixFactor:            1,
		ParametricRimFresnelPowerFactor: 5,
		OutlineWidthMode:                OutlineWidthNone,
		OutlineLightingMixFactor:        1,
	}
}
