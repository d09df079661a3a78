package config

import (
	"fmt"
	"sort"

	"github.com/binzume/avatarconv/converter"
	"github.com/binzume/avatarconv/gltfutil"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/unity"
)

func override(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ToOptions builds the converter options. settings are the switches stored on the avatar and may be nil.
// The config file wins over the stored switches.
func (c *Config) ToOptions(avatar *scene.Avatar, settings *unity.ExportSettings) (*converter.Options, error) {
	dynamics, err := converter.ParseDynamicsPolicy(c.Conversion.Dynamics)
	if err != nil {
		return nil, err
	}
	var format gltfutil.ImageFormat
	switch f := gltfutil.ImageFormat(c.Conversion.Image.Format); f {
	case gltfutil.FormatAuto, gltfutil.FormatPNG, gltfutil.FormatJPEG, gltfutil.FormatWebP:
		format = f
	default:
		return nil, fmt.Errorf("unknown image format %q", c.Conversion.Image.Format)
	}

	// Without stored settings every optional feature stays enabled.
	rimLight, matCap, outline, baking, variants := true, true, true, true, true
	opts := &converter.Options{
		Dynamics:           dynamics,
		SkipBoneValidation: c.Conversion.SkipBoneValidation,
		BoneMappings:       c.BoneMappings,
		ImageOptions: &gltfutil.ImageOptions{
			Format:          format,
			ResolutionLimit: c.Conversion.Image.ResolutionLimit,
			JPEGQuality:     c.Conversion.Image.JPEGQuality,
		},
	}
	if settings != nil {
		rimLight, matCap, outline, baking = settings.EnableRimLight, settings.EnableMatCap, settings.EnableOutline, settings.EnableBaking
		variants = settings.EnableVariants
		opts.UniqueNodeNames = settings.UniqueNodeNames
		opts.VertexColors = settings.VertexColors
		opts.DisableVertexColorOnLilToon = settings.DisableVertexColorOnLilToon
		opts.ExcludedSprings = append(opts.ExcludedSprings, settings.ExcludedSprings...)
		opts.ExcludedColliders = append(opts.ExcludedColliders, settings.ExcludedColliders...)
	}
	conv := &c.Conversion
	override(&rimLight, conv.RimLight)
	override(&matCap, conv.MatCap)
	override(&outline, conv.Outline)
	override(&baking, conv.Baking)
	override(&variants, conv.Variants)
	override(&opts.UniqueNodeNames, conv.UniqueNodeNames)
	override(&opts.VertexColors, conv.VertexColors)
	override(&opts.DisableVertexColorOnLilToon, conv.DisableVertexColorOnLilToon)
	opts.DisableRimLight, opts.DisableMatCap, opts.DisableOutline, opts.DisableBaking = !rimLight, !matCap, !outline, !baking
	if !variants {
		opts.Variants = []*scene.MaterialVariant{}
	}

	opts.ExcludedSprings = append(opts.ExcludedSprings, c.Excluded.Springs...)
	opts.ExcludedColliders = append(opts.ExcludedColliders, c.Excluded.Colliders...)

	if c.Meta != nil {
		var base *scene.Meta
		if avatar != nil {
			base = avatar.Meta
		}
		opts.Meta = c.Meta.Apply(base)
	}
	if c.Expressions != nil {
		if opts.Expressions, err = c.Expressions.expressions(); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// Apply returns a copy of base with the configured fields replaced.
func (m *MetaConfig) Apply(base *scene.Meta) *scene.Meta {
	meta := &scene.Meta{}
	if base != nil {
		*meta = *base
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&meta.Name, m.Name)
	set(&meta.Version, m.Version)
	set(&meta.Copyright, m.Copyright)
	set(&meta.Contact, m.Contact)
	set(&meta.LicenseURL, m.LicenseURL)
	set(&meta.ThirdPartyLicenses, m.ThirdPartyLicenses)
	set(&meta.OtherLicenseURL, m.OtherLicenseURL)
	set(&meta.AvatarPermission, m.AvatarPermission)
	set(&meta.CommercialUsage, m.CommercialUsage)
	set(&meta.CreditNotation, m.CreditNotation)
	set(&meta.Modification, m.Modification)
	if len(m.Authors) > 0 {
		meta.Authors = m.Authors
	}
	if len(m.References) > 0 {
		meta.References = m.References
	}
	override(&meta.AllowRedistribution, m.AllowRedistribution)
	override(&meta.AllowExcessivelyViolentUsage, m.AllowExcessivelyViolentUsage)
	override(&meta.AllowExcessivelySexualUsage, m.AllowExcessivelySexualUsage)
	override(&meta.AllowPoliticalOrReligiousUsage, m.AllowPoliticalOrReligiousUsage)
	override(&meta.AllowAntisocialOrHateUsage, m.AllowAntisocialOrHateUsage)
	return meta
}

func parseOverride(s string) (scene.Override, error) {
	switch s {
	case "", "none":
		return "none", nil
	case "block", "blend":
		return scene.Override(s), nil
	}
	return "", fmt.Errorf("unknown override %q", s)
}

func (e *ExpressionConfig) expression() (*scene.Expression, error) {
	if e == nil {
		return nil, nil
	}
	exp := &scene.Expression{
		Name:           e.Name,
		BaseType:       scene.ExpressionBlendShape,
		BlendShapeName: e.BlendShape,
		IsBinary:       e.Binary,
	}
	var err error
	if exp.OverrideBlink, err = parseOverride(e.OverrideBlink); err != nil {
		return nil, err
	}
	if exp.OverrideLookAt, err = parseOverride(e.OverrideLookAt); err != nil {
		return nil, err
	}
	if exp.OverrideMouth, err = parseOverride(e.OverrideMouth); err != nil {
		return nil, err
	}
	return exp, nil
}

func (c *ExpressionsConfig) expressions() (*scene.ExpressionSettings, error) {
	s := &scene.ExpressionSettings{}
	presets := []struct {
		dst **scene.Expression
		src *ExpressionConfig
	}{
		{&s.Happy, c.Happy}, {&s.Angry, c.Angry}, {&s.Sad, c.Sad}, {&s.Relaxed, c.Relaxed}, {&s.Surprised, c.Surprised},
	}
	for _, p := range presets {
		e, err := p.src.expression()
		if err != nil {
			return nil, err
		}
		*p.dst = e
	}
	for _, src := range c.Custom {
		e, err := src.expression()
		if err != nil {
			return nil, err
		}
		if e != nil {
			s.Custom = append(s.Custom, e)
		}
	}
	return s, nil
}

// MaterialVariants resolves the configured variants. load returns the material for an asset path.
func (c *Config) MaterialVariants(root *scene.Object, load func(path string) (*scene.Material, error)) ([]*scene.MaterialVariant, error) {
	var variants []*scene.MaterialVariant
	for _, vc := range c.Variants {
		v := &scene.MaterialVariant{Name: vc.Name}
		paths := make([]string, 0, len(vc.Materials))
		for path := range vc.Materials {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			materials := vc.Materials[path]
			var renderer *scene.Object
			root.Walk(func(o *scene.Object) bool {
				if renderer == nil && o.Renderer != nil && (o.Path() == path || o.Name == path) {
					renderer = o
				}
				return renderer == nil
			})
			if renderer == nil {
				return nil, fmt.Errorf("variant %s: renderer %q not found", vc.Name, path)
			}
			m := &scene.MaterialMapping{Renderer: renderer, Materials: make([]*scene.Material, len(materials))}
			for i, p := range materials {
				if p == "" {
					continue
				}
				mat, err := load(p)
				if err != nil {
					return nil, fmt.Errorf("variant %s: %w", vc.Name, err)
				}
				m.Materials[i] = mat
			}
			v.Mappings = append(v.Mappings, m)
		}
		variants = append(variants, v)
	}
	return variants, nil
}
