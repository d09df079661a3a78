// Package config loads the avatar2vrm conversion settings.
package config

import "github.com/binzume/avatarconv/converter"

// Config holds all conversion settings.
type Config struct {
	Conversion   ConversionConfig         `yaml:"conversion"`
	Meta         *MetaConfig              `yaml:"meta,omitempty"`
	BoneMappings []*converter.BoneMapping `yaml:"bone_mappings,omitempty"`
	Expressions  *ExpressionsConfig       `yaml:"expressions,omitempty"`
	Excluded     ExcludedConfig           `yaml:"excluded"`
	Variants     []*VariantConfig         `yaml:"variants,omitempty"`
	Logging      LoggingConfig            `yaml:"logging"`
}

// ConversionConfig holds the output switches. Unset switches keep the values stored on the avatar.
type ConversionConfig struct {
	// Scale multiplies all lengths. 0 and 1 keep the original size.
	Scale float32 `yaml:"scale"`
	// Dynamics is "document" or "component".
	Dynamics string `yaml:"dynamics"`

	UniqueNodeNames             *bool `yaml:"unique_node_names,omitempty"`
	VertexColors                *bool `yaml:"vertex_colors,omitempty"`
	DisableVertexColorOnLilToon *bool `yaml:"disable_vertex_color_on_liltoon,omitempty"`
	Baking                      *bool `yaml:"baking,omitempty"`
	RimLight                    *bool `yaml:"rim_light,omitempty"`
	MatCap                      *bool `yaml:"mat_cap,omitempty"`
	Outline                     *bool `yaml:"outline,omitempty"`
	Variants                    *bool `yaml:"variants,omitempty"`
	SkipBoneValidation          bool  `yaml:"skip_bone_validation"`

	Image ImageConfig `yaml:"image"`
}

type ImageConfig struct {
	// Format is "", "png", "jpeg" or "webp". Empty keeps the source format when possible.
	Format          string `yaml:"format"`
	ResolutionLimit int    `yaml:"resolution_limit"`
	JPEGQuality     int    `yaml:"jpeg_quality"`
}

// MetaConfig overrides the license information. Empty fields keep the avatar values.
type MetaConfig struct {
	Name               string   `yaml:"name,omitempty"`
	Version            string   `yaml:"version,omitempty"`
	Authors            []string `yaml:"authors,omitempty"`
	Copyright          string   `yaml:"copyright,omitempty"`
	Contact            string   `yaml:"contact,omitempty"`
	References         []string `yaml:"references,omitempty"`
	LicenseURL         string   `yaml:"license_url,omitempty"`
	ThirdPartyLicenses string   `yaml:"third_party_licenses,omitempty"`
	OtherLicenseURL    string   `yaml:"other_license_url,omitempty"`

	AvatarPermission string `yaml:"avatar_permission,omitempty"`
	CommercialUsage  string `yaml:"commercial_usage,omitempty"`
	CreditNotation   string `yaml:"credit_notation,omitempty"`
	Modification     string `yaml:"modification,omitempty"`

	AllowRedistribution            *bool `yaml:"allow_redistribution,omitempty"`
	AllowExcessivelyViolentUsage   *bool `yaml:"allow_excessively_violent_usage,omitempty"`
	AllowExcessivelySexualUsage    *bool `yaml:"allow_excessively_sexual_usage,omitempty"`
	AllowPoliticalOrReligiousUsage *bool `yaml:"allow_political_or_religious_usage,omitempty"`
	AllowAntisocialOrHateUsage     *bool `yaml:"allow_antisocial_or_hate_usage,omitempty"`
}

// ExpressionConfig is a blend shape driven expression.
type ExpressionConfig struct {
	Name           string `yaml:"name,omitempty"`
	BlendShape     string `yaml:"blend_shape"`
	Binary         bool   `yaml:"binary,omitempty"`
	OverrideBlink  string `yaml:"override_blink,omitempty"`
	OverrideLookAt string `yaml:"override_look_at,omitempty"`
	OverrideMouth  string `yaml:"override_mouth,omitempty"`
}

// ExpressionsConfig replaces the expressions stored on the avatar.
type ExpressionsConfig struct {
	Happy     *ExpressionConfig   `yaml:"happy,omitempty"`
	Angry     *ExpressionConfig   `yaml:"angry,omitempty"`
	Sad       *ExpressionConfig   `yaml:"sad,omitempty"`
	Relaxed   *ExpressionConfig   `yaml:"relaxed,omitempty"`
	Surprised *ExpressionConfig   `yaml:"surprised,omitempty"`
	Custom    []*ExpressionConfig `yaml:"custom,omitempty"`
}

// ExcludedConfig lists object names or paths. They are added to the exclusions stored on the avatar.
type ExcludedConfig struct {
	Springs   []string `yaml:"springs"`
	Colliders []string `yaml:"colliders"`
}

// VariantConfig maps renderers to alternative material assets.
type VariantConfig struct {
	Name string `yaml:"name"`
	// Materials maps a renderer path to material asset paths per submesh. Empty entries keep the original.
	Materials map[string][]string `yaml:"materials"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			Scale:    1,
			Dynamics: "document",
			Image: ImageConfig{
				JPEGQuality: 90,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
