package unity

import (
	"sort"
	"strconv"
	"strings"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
)

// Script-defined components are recognized by their serialized fields because
// script GUIDs differ between SDK versions.
type behaviourKind int

const (
	behaviourUnknown behaviourKind = iota
	behaviourPhysBone
	behaviourPhysBoneCollider
	behaviourAvatarDescriptor
	behaviourConstraint
	behaviourExportDescriptor
)

func classifyBehaviour(mb *MonoBehaviour) behaviourKind {
	switch {
	case mb.Has("rootTransform", "pull", "immobile"):
		return behaviourPhysBone
	case mb.Has("shapeType", "insideBounds"):
		return behaviourPhysBoneCollider
	case mb.Has("ViewPosition", "VisemeBlendShapes"):
		return behaviourAvatarDescriptor
	case mb.Has("GlobalWeight", "Sources"):
		return behaviourConstraint
	case mb.Has("licenseUrl", "avatarPermission"):
		return behaviourExportDescriptor
	}
	return behaviourUnknown
}

type Keyframe struct {
	Time     float32 `yaml:"time"`
	Value    float32 `yaml:"value"`
	InSlope  float32 `yaml:"inSlope"`
	OutSlope float32 `yaml:"outSlope"`
}

type AnimationCurve struct {
	Curve []*Keyframe `yaml:"m_Curve"`
}

// SceneCurve returns nil for an empty curve.
func (c *AnimationCurve) SceneCurve() *scene.Curve {
	if c == nil || len(c.Curve) == 0 {
		return nil
	}
	curve := &scene.Curve{}
	for _, k := range c.Curve {
		curve.Keys = append(curve.Keys, scene.Keyframe{Time: k.Time, Value: k.Value, InTangent: k.InSlope, OutTangent: k.OutSlope})
	}
	return curve
}

type PhysBone struct {
	RootTransform    Ref   `yaml:"rootTransform"`
	IgnoreTransforms []Ref `yaml:"ignoreTransforms"`
	MultiChildType   int   `yaml:"multiChildType"`
	LimitType        int   `yaml:"limitType"`

	Pull           float32 `yaml:"pull"`
	Spring         float32 `yaml:"spring"`
	Stiffness      float32 `yaml:"stiffness"`
	Gravity        float32 `yaml:"gravity"`
	GravityFalloff float32 `yaml:"gravityFalloff"`
	Immobile       float32 `yaml:"immobile"`
	Radius         float32 `yaml:"radius"`
	MaxAngleX      float32 `yaml:"maxAngleX"`

	PullCurve      AnimationCurve `yaml:"pullCurve"`
	SpringCurve    AnimationCurve `yaml:"springCurve"`
	StiffnessCurve AnimationCurve `yaml:"stiffnessCurve"`
	GravityCurve   AnimationCurve `yaml:"gravityCurve"`
	ImmobileCurve  AnimationCurve `yaml:"immobileCurve"`
	RadiusCurve    AnimationCurve `yaml:"radiusCurve"`
	MaxAngleXCurve AnimationCurve `yaml:"maxAngleXCurve"`

	Colliders []Ref `yaml:"colliders"`
}

type PhysBoneCollider struct {
	RootTransform Ref          `yaml:"rootTransform"`
	ShapeType     int          `yaml:"shapeType"`
	InsideBounds  int          `yaml:"insideBounds"`
	Radius        float32      `yaml:"radius"`
	Height        float32      `yaml:"height"`
	Position      geom.Vector3 `yaml:"position"`
	Rotation      geom.Vector4 `yaml:"rotation"`
}

type EyeRotations struct {
	Linked int          `yaml:"linked"`
	Left   geom.Vector4 `yaml:"left"`
	Right  geom.Vector4 `yaml:"right"`
}

func (e *EyeRotations) rotations() *scene.EyeRotations {
	return &scene.EyeRotations{Left: e.Left, Right: e.Right}
}

type AvatarDescriptor struct {
	ViewPosition      geom.Vector3 `yaml:"ViewPosition"`
	LipSync           int          `yaml:"lipSync"`
	VisemeSkinnedMesh Ref          `yaml:"VisemeSkinnedMesh"`
	VisemeBlendShapes []string     `yaml:"VisemeBlendShapes"`
	EnableEyeLook     int          `yaml:"enableEyeLook"`

	CustomEyeLookSettings struct {
		EyelidType         int          `yaml:"eyelidType"`
		EyelidsSkinnedMesh Ref          `yaml:"eyelidsSkinnedMesh"`
		EyelidsBlendshapes []int        `yaml:"eyelidsBlendshapes"`
		LeftEye            Ref          `yaml:"leftEye"`
		RightEye           Ref          `yaml:"rightEye"`
		EyesLookingUp      EyeRotations `yaml:"eyesLookingUp"`
		EyesLookingDown    EyeRotations `yaml:"eyesLookingDown"`
		EyesLookingLeft    EyeRotations `yaml:"eyesLookingLeft"`
		EyesLookingRight   EyeRotations `yaml:"eyesLookingRight"`
	} `yaml:"customEyeLookSettings"`
}

type VRCConstraintSource struct {
	Weight          float32 `yaml:"Weight"`
	SourceTransform Ref     `yaml:"SourceTransform"`
}

type VRCConstraintSources struct {
	TotalLength  int                             `yaml:"totalLength"`
	OverflowList []*VRCConstraintSource          `yaml:"overflowList"`
	Items        map[string]*VRCConstraintSource `yaml:",inline"`
}

// List returns the sources in index order.
func (s *VRCConstraintSources) List() []*VRCConstraintSource {
	var keys []int
	for k := range s.Items {
		if i, err := strconv.Atoi(strings.TrimPrefix(k, "source")); err == nil && strings.HasPrefix(k, "source") {
			keys = append(keys, i)
		}
	}
	sort.Ints(keys)
	var list []*VRCConstraintSource
	for _, i := range keys {
		list = append(list, s.Items["source"+strconv.Itoa(i)])
	}
	list = append(list, s.OverflowList...)
	if s.TotalLength < len(list) {
		list = list[:s.TotalLength]
	}
	return list
}

type VRCConstraint struct {
	IsActive        int           `yaml:"IsActive"`
	GlobalWeight    float32       `yaml:"GlobalWeight"`
	TargetTransform Ref           `yaml:"TargetTransform"`
	AimAxis         *geom.Vector3 `yaml:"AimAxis"`

	AffectsPositionX *int `yaml:"AffectsPositionX"`
	AffectsRotationX *int `yaml:"AffectsRotationX"`
	AffectsRotationY *int `yaml:"AffectsRotationY"`
	AffectsRotationZ *int `yaml:"AffectsRotationZ"`
	AffectsScaleX    *int `yaml:"AffectsScaleX"`

	Sources VRCConstraintSources `yaml:"Sources"`
}

func flag(v *int) bool {
	return v != nil && *v != 0
}

// Kind reports the constraint type from the fields it serializes.
func (c *VRCConstraint) Kind() (scene.ConstraintKind, string) {
	switch {
	case c.AimAxis != nil:
		return scene.ConstraintAim, "VRCAimConstraint"
	case c.AffectsPositionX != nil && c.AffectsRotationX != nil:
		if len(c.Sources.List()) == 0 {
			return scene.ConstraintFrozenParent, "VRCParentConstraint"
		}
		return scene.ConstraintNone, "VRCParentConstraint"
	case c.AffectsRotationX != nil:
		return scene.ConstraintRotation, "VRCRotationConstraint"
	case c.AffectsPositionX != nil:
		return scene.ConstraintNone, "VRCPositionConstraint"
	case c.AffectsScaleX != nil:
		return scene.ConstraintNone, "VRCScaleConstraint"
	}
	return scene.ConstraintNone, "VRCLookAtConstraint"
}

type ExpressionProperty struct {
	ExpressionName          string `yaml:"expressionName"`
	BaseType                int    `yaml:"baseType"`
	BlendShapeName          string `yaml:"blendShapeName"`
	BlendShapeAnimationClip Ref    `yaml:"blendShapeAnimationClip"`
	IsBinary                int    `yaml:"isBinary"`
	OverrideBlink           int    `yaml:"overrideBlink"`
	OverrideLookAt          int    `yaml:"overrideLookAt"`
	OverrideMouth           int    `yaml:"overrideMouth"`
}

var overrideNames = []scene.Override{"none", "block", "blend"}

func overrideName(v int) scene.Override {
	if v < 0 || v >= len(overrideNames) {
		return "none"
	}
	return overrideNames[v]
}

// ExportDescriptor holds the license and export settings attached to an avatar.
type ExportDescriptor struct {
	Authors              []string `yaml:"authors"`
	Version              string   `yaml:"version"`
	CopyrightInformation string   `yaml:"copyrightInformation"`
	ContactInformation   string   `yaml:"contactInformation"`
	References           []string `yaml:"references"`
	LicenseURL           string   `yaml:"licenseUrl"`
	ThirdPartyLicenses   string   `yaml:"thirdPartyLicenses"`
	OtherLicenseURL      string   `yaml:"otherLicenseUrl"`
	AvatarPermission     int      `yaml:"avatarPermission"`
	CommercialUsage      int      `yaml:"commercialUsage"`
	CreditNotation       int      `yaml:"creditNotation"`
	Modification         int      `yaml:"modification"`

	// 0 allows, 1 disallows.
	AllowExcessivelyViolentUsage   int `yaml:"allowExcessivelyViolentUsage"`
	AllowExcessivelySexualUsage    int `yaml:"allowExcessivelySexualUsage"`
	AllowPoliticalOrReligiousUsage int `yaml:"allowPoliticalOrReligiousUsage"`
	AllowAntisocialOrHateUsage     int `yaml:"allowAntisocialOrHateUsage"`
	AllowRedistribution            int `yaml:"allowRedistribution"`
	Thumbnail                      Ref `yaml:"thumbnail"`

	ExpressionPresetHappyBlendShape     *ExpressionProperty   `yaml:"expressionPresetHappyBlendShape"`
	ExpressionPresetAngryBlendShape     *ExpressionProperty   `yaml:"expressionPresetAngryBlendShape"`
	ExpressionPresetSadBlendShape       *ExpressionProperty   `yaml:"expressionPresetSadBlendShape"`
	ExpressionPresetRelaxedBlendShape   *ExpressionProperty   `yaml:"expressionPresetRelaxedBlendShape"`
	ExpressionPresetSurprisedBlendShape *ExpressionProperty   `yaml:"expressionPresetSurprisedBlendShape"`
	ExpressionCustomBlendShapes         []*ExpressionProperty `yaml:"expressionCustomBlendShapes"`

	ExcludedSpringBoneColliderTransforms []Ref `yaml:"excludedSpringBoneColliderTransforms"`
	ExcludedSpringBoneTransforms         []Ref `yaml:"excludedSpringBoneTransforms"`
	ExcludedConstraintTransforms         []Ref `yaml:"excludedConstraintTransforms"`

	EnableMToonRimLight          int `yaml:"enableMToonRimLight"`
	EnableMToonMatCap            int `yaml:"enableMToonMatCap"`
	EnableMToonOutline           int `yaml:"enableMToonOutline"`
	EnableBakingAlphaMaskTexture int `yaml:"enableBakingAlphaMaskTexture"`
	MakeAllNodeNamesUnique       int `yaml:"makeAllNodeNamesUnique"`
	EnableVertexColorOutput      int `yaml:"enableVertexColorOutput"`
	DisableVertexColorOnLiltoon  int `yaml:"disableVertexColorOnLiltoon"`
	EnableKhrMaterialsVariants   int `yaml:"enableKhrMaterialsVariants"`
}

var (
	avatarPermissions = []string{"onlyAuthor", "onlySeparatelyLicensedPerson", "everyone"}
	commercialUsages  = []string{"personalNonProfit", "personalProfit", "corporation"}
	creditNotations   = []string{"required", "unnecessary"}
	modifications     = []string{"prohibited", "allowModification", "allowModificationRedistribution"}
)

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return ""
	}
	return names[v]
}

func (d *ExportDescriptor) meta(name string) *scene.Meta {
	return &scene.Meta{
		Name:               name,
		Version:            d.Version,
		Authors:            d.Authors,
		Copyright:          d.CopyrightInformation,
		Contact:            d.ContactInformation,
		References:         d.References,
		LicenseURL:         d.LicenseURL,
		ThirdPartyLicenses: d.ThirdPartyLicenses,
		OtherLicenseURL:    d.OtherLicenseURL,

		AvatarPermission: enumName(avatarPermissions, d.AvatarPermission),
		CommercialUsage:  enumName(commercialUsages, d.CommercialUsage),
		CreditNotation:   enumName(creditNotations, d.CreditNotation),
		Modification:     enumName(modifications, d.Modification),

		AllowRedistribution:            d.AllowRedistribution == 0,
		AllowExcessivelyViolentUsage:   d.AllowExcessivelyViolentUsage == 0,
		AllowExcessivelySexualUsage:    d.AllowExcessivelySexualUsage == 0,
		AllowPoliticalOrReligiousUsage: d.AllowPoliticalOrReligiousUsage == 0,
		AllowAntisocialOrHateUsage:     d.AllowAntisocialOrHateUsage == 0,
	}
}

// ExportSettings are the conversion switches stored on the avatar.
type ExportSettings struct {
	ExcludedSprings   []string
	ExcludedColliders []string

	EnableRimLight              bool
	EnableMatCap                bool
	EnableOutline               bool
	EnableBaking                bool
	UniqueNodeNames             bool
	VertexColors                bool
	DisableVertexColorOnLilToon bool
	EnableVariants              bool
}

func (d *ExportDescriptor) settings() *ExportSettings {
	return &ExportSettings{
		EnableRimLight:              d.EnableMToonRimLight != 0,
		EnableMatCap:                d.EnableMToonMatCap != 0,
		EnableOutline:               d.EnableMToonOutline != 0,
		EnableBaking:                d.EnableBakingAlphaMaskTexture != 0,
		UniqueNodeNames:             d.MakeAllNodeNamesUnique != 0,
		VertexColors:                d.EnableVertexColorOutput != 0,
		DisableVertexColorOnLilToon: d.DisableVertexColorOnLiltoon != 0,
		EnableVariants:              d.EnableKhrMaterialsVariants != 0,
	}
}
