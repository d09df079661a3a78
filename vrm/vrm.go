package vrm

// https://vrm.dev/
// https://github.com/vrm-c/vrm-specification/tree/master/specification/VRMC_vrm-1.0

import (
	"encoding/json"

	"github.com/qmuntal/gltf"
)

const (
	ExtensionName                 = "VRMC_vrm"
	SpringBoneExtensionName       = "VRMC_springBone"
	ExtendedColliderExtensionName = "VRMC_springBone_extended_collider"
	NodeConstraintExtensionName   = "VRMC_node_constraint"
	MToonExtensionName            = "VRMC_materials_mtoon"

	SpecVersion             = "1.0"
	ExtendedColliderVersion = "1.0"
	DefaultLicenseURL       = "https://vrm.dev/licenses/1.0/"
)

func init() {
	gltf.RegisterExtension(ExtensionName, Unmarshal)
	gltf.RegisterExtension(SpringBoneExtensionName, unmarshalAs[SpringBone])
	gltf.RegisterExtension(ExtendedColliderExtensionName, unmarshalAs[ExtendedCollider])
	gltf.RegisterExtension(NodeConstraintExtensionName, unmarshalAs[NodeConstraint])
	gltf.RegisterExtension(MToonExtensionName, unmarshalAs[MToon])
}

func Unmarshal(data []byte) (any, error) {
	return unmarshalAs[VRM](data)
}

func unmarshalAs[T any](data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

type VRM struct {
	SpecVersion string       `json:"specVersion"`
	Meta        Meta         `json:"meta"`
	Humanoid    Humanoid     `json:"humanoid"`
	FirstPerson *FirstPerson `json:"firstPerson,omitempty"`
	LookAt      *LookAt      `json:"lookAt,omitempty"`
	Expressions *Expressions `json:"expressions,omitempty"`
}

func NewVRM() *VRM {
	return &VRM{
		SpecVersion: SpecVersion,
		Humanoid:    Humanoid{HumanBones: map[string]*HumanBone{}},
	}
}

type AvatarPermission string
type CommercialUsage string
type CreditNotation string
type Modification string

const (
	AvatarPermissionOnlyAuthor             AvatarPermission = "onlyAuthor"
	AvatarPermissionOnlySeparatelyLicensed AvatarPermission = "onlySeparatelyLicensedPerson"
	AvatarPermissionEveryone               AvatarPermission = "everyone"

	CommercialUsagePersonalNonProfit CommercialUsage = "personalNonProfit"
	CommercialUsagePersonalProfit    CommercialUsage = "personalProfit"
	CommercialUsageCorporation       CommercialUsage = "corporation"

	CreditNotationRequired    CreditNotation = "required"
	CreditNotationUnnecessary CreditNotation = "unnecessary"

	ModificationProhibited          Modification = "prohibited"
	ModificationAllowModification   Modification = "allowModification"
	ModificationAllowRedistribution Modification = "allowModificationRedistribution"
)

type Meta struct {
	Name                 string   `json:"name"`
	Version              string   `json:"version,omitempty"`
	Authors              []string `json:"authors"`
	CopyrightInformation string   `json:"copyrightInformation,omitempty"`
	ContactInformation   string   `json:"contactInformation,omitempty"`
	References           []string `json:"references,omitempty"`
	ThirdPartyLicenses   string   `json:"thirdPartyLicenses,omitempty"`
	ThumbnailImage       *uint32  `json:"thumbnailImage,omitempty"`
	LicenseURL           string   `json:"licenseUrl"`

	AvatarPermission               AvatarPermission `json:"avatarPermission,omitempty"`
	AllowExcessivelyViolentUsage   bool             `json:"allowExcessivelyViolentUsage"`
	AllowExcessivelySexualUsage    bool             `json:"allowExcessivelySexualUsage"`
	CommercialUsage                CommercialUsage  `json:"commercialUsage,omitempty"`
	AllowPoliticalOrReligiousUsage bool             `json:"allowPoliticalOrReligiousUsage"`
	AllowAntisocialOrHateUsage     bool             `json:"allowAntisocialOrHateUsage"`
	CreditNotation                 CreditNotation   `json:"creditNotation,omitempty"`
	AllowRedistribution            bool             `json:"allowRedistribution"`
	Modification                   Modification     `json:"modification,omitempty"`
	OtherLicenseURL                string           `json:"otherLicenseUrl,omitempty"`
}

type HumanBone struct {
	Node uint32 `json:"node"`
}

type Humanoid struct {
	HumanBones map[string]*HumanBone `json:"humanBones"`
}

type MeshAnnotation struct {
	Node uint32 `json:"node"`
	Type string `json:"type"`
}

type FirstPerson struct {
	MeshAnnotations []*MeshAnnotation `json:"meshAnnotations,omitempty"`
}

type RangeMap struct {
	InputMaxValue float32 `json:"inputMaxValue"`
	OutputScale   float32 `json:"outputScale"`
}

const (
	LookAtTypeBone       = "bone"
	LookAtTypeExpression = "expression"
)

type LookAt struct {
	OffsetFromHeadBone      [3]float32 `json:"offsetFromHeadBone"`
	Type                    string     `json:"type"`
	RangeMapHorizontalInner *RangeMap  `json:"rangeMapHorizontalInner,omitempty"`
	RangeMapHorizontalOuter *RangeMap  `json:"rangeMapHorizontalOuter,omitempty"`
	RangeMapVerticalDown    *RangeMap  `json:"rangeMapVerticalDown,omitempty"`
	RangeMapVerticalUp      *RangeMap  `json:"rangeMapVerticalUp,omitempty"`
}

type ExpressionOverride string

const (
	OverrideNone  ExpressionOverride = "none"
	OverrideBlock ExpressionOverride = "block"
	OverrideBlend ExpressionOverride = "blend"
)

type MorphTargetBind struct {
	Node   uint32  `json:"node"`
	Index  uint32  `json:"index"`
	Weight float32 `json:"weight"`
}

type Expression struct {
	MorphTargetBinds []*MorphTargetBind `json:"morphTargetBinds,omitempty"`
	IsBinary         bool               `json:"isBinary"`
	OverrideBlink    ExpressionOverride `json:"overrideBlink,omitempty"`
	OverrideLookAt   ExpressionOverride `json:"overrideLookAt,omitempty"`
	OverrideMouth    ExpressionOverride `json:"overrideMouth,omitempty"`
}

// Preset expression names.
const (
	ExpressionHappy     = "happy"
	ExpressionAngry     = "angry"
	ExpressionSad       = "sad"
	ExpressionRelaxed   = "relaxed"
	ExpressionSurprised = "surprised"
	ExpressionAa        = "aa"
	ExpressionIh        = "ih"
	ExpressionOu        = "ou"
	ExpressionEe        = "ee"
	ExpressionOh        = "oh"
	ExpressionBlink     = "blink"
	ExpressionLookUp    = "lookUp"
	ExpressionLookDown  = "lookDown"
)

type Expressions struct {
	Preset map[string]*Expression `json:"preset,omitempty"`
	Custom map[string]*Expression `json:"custom,omitempty"`
}

func (e *Expressions) IsEmpty() bool {
	return e == nil || len(e.Preset) == 0 && len(e.Custom) == 0
}
