package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/avatarconv/converter"
	"github.com/binzume/avatarconv/gltfutil"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/unity"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Conversion.Scale != 1 {
		t.Errorf("expected scale 1, got %v", cfg.Conversion.Scale)
	}
	if cfg.Conversion.Dynamics != "document" {
		t.Errorf("expected dynamics 'document', got %s", cfg.Conversion.Dynamics)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Meta != nil || cfg.Expressions != nil {
		t.Error("overrides should be empty by default")
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "avatar2vrm.yaml")

	yamlContent := `
conversion:
  scale: 0.01
  dynamics: component
  outline: false
  unique_node_names: true
  image:
    format: webp
    resolution_limit: 1024

meta:
  authors: [Bob]
  license_url: https://example.com/license
  allow_redistribution: true

bone_mappings:
  - bone: leftEye
    node: Eye_L

expressions:
  happy:
    blend_shape: smile
    override_blink: block
  custom:
    - name: wink
      blend_shape: wink_L
      binary: true

excluded:
  springs: [Skirt]

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Conversion.Scale != 0.01 {
		t.Errorf("expected scale 0.01, got %v", cfg.Conversion.Scale)
	}
	if cfg.Conversion.Outline == nil || *cfg.Conversion.Outline {
		t.Error("expected outline to be disabled")
	}
	if cfg.Conversion.RimLight != nil {
		t.Error("unset switches should stay nil")
	}
	if cfg.Conversion.Image.JPEGQuality != 90 {
		t.Errorf("default should be kept, got %d", cfg.Conversion.Image.JPEGQuality)
	}
	if len(cfg.BoneMappings) != 1 || cfg.BoneMappings[0].Bone != "leftEye" || cfg.BoneMappings[0].NodeName != "Eye_L" {
		t.Errorf("unexpected bone mappings: %v", cfg.BoneMappings)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}

	opts, err := cfg.ToOptions(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Dynamics != converter.DynamicsComponent {
		t.Errorf("unexpected dynamics: %v", opts.Dynamics)
	}
	if !opts.DisableOutline || opts.DisableRimLight || !opts.UniqueNodeNames {
		t.Errorf("unexpected switches: %+v", opts)
	}
	if opts.ImageOptions.Format != gltfutil.FormatWebP || opts.ImageOptions.ResolutionLimit != 1024 {
		t.Errorf("unexpected image options: %+v", opts.ImageOptions)
	}
	if len(opts.ExcludedSprings) != 1 || opts.ExcludedSprings[0] != "Skirt" {
		t.Errorf("unexpected exclusions: %v", opts.ExcludedSprings)
	}
	if opts.Meta == nil || opts.Meta.Authors[0] != "Bob" || !opts.Meta.AllowRedistribution {
		t.Errorf("unexpected meta: %+v", opts.Meta)
	}
	e := opts.Expressions
	if e == nil || e.Happy.BlendShapeName != "smile" || e.Happy.OverrideBlink != "block" || e.Happy.OverrideMouth != "none" {
		t.Fatalf("unexpected expressions: %+v", e)
	}
	if e.Sad != nil || len(e.Custom) != 1 || !e.Custom[0].IsBinary || e.Custom[0].CanonicalName() != "wink" {
		t.Errorf("unexpected custom expressions: %+v", e.Custom)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	cfg, err := LoadFile("")
	if err != nil || cfg.Conversion.Scale != 1 {
		t.Error("empty path should return defaults", err)
	}
}

func TestToOptionsSettings(t *testing.T) {
	settings := &unity.ExportSettings{
		ExcludedSprings: []string{"Avatar/Hair"},
		EnableOutline:   true,
		VertexColors:    true,
	}
	enabled := true
	cfg := Default()
	cfg.Conversion.RimLight = &enabled
	cfg.Excluded.Springs = []string{"Tail"}

	opts, err := cfg.ToOptions(&scene.Avatar{}, settings)
	if err != nil {
		t.Fatal(err)
	}
	if opts.DisableOutline || opts.DisableRimLight {
		t.Error("enabled features should stay enabled")
	}
	if !opts.DisableMatCap || !opts.DisableBaking {
		t.Error("features disabled on the avatar should stay disabled")
	}
	if !opts.VertexColors {
		t.Error("vertex colors should come from the avatar")
	}
	if len(opts.ExcludedSprings) != 2 || opts.ExcludedSprings[0] != "Avatar/Hair" || opts.ExcludedSprings[1] != "Tail" {
		t.Errorf("unexpected exclusions: %v", opts.ExcludedSprings)
	}
	if opts.Variants == nil || len(opts.Variants) != 0 {
		t.Error("variants should be disabled")
	}
}

func TestToOptionsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Conversion.Image.Format = "gif"
	if _, err := cfg.ToOptions(nil, nil); err == nil {
		t.Error("expected error for unknown image format")
	}

	cfg = Default()
	cfg.Expressions = &ExpressionsConfig{Angry: &ExpressionConfig{BlendShape: "angry", OverrideMouth: "mix"}}
	if _, err := cfg.ToOptions(nil, nil); err == nil {
		t.Error("expected error for unknown override")
	}
}

func TestMetaApply(t *testing.T) {
	base := &scene.Meta{Name: "Avatar", Authors: []string{"Alice"}, Version: "1.0", AllowRedistribution: true}
	deny := false
	meta := (&MetaConfig{Version: "2.0", AllowRedistribution: &deny}).Apply(base)

	if meta == base {
		t.Fatal("Apply should copy")
	}
	if meta.Name != "Avatar" || meta.Authors[0] != "Alice" || meta.Version != "2.0" || meta.AllowRedistribution {
		t.Errorf("unexpected meta: %+v", meta)
	}
	if base.Version != "1.0" {
		t.Error("base should not change")
	}
}

func TestMaterialVariants(t *testing.T) {
	root := scene.NewObject("Avatar")
	body := root.AddChild(scene.NewObject("Body"))
	body.Renderer = &scene.Renderer{Materials: []*scene.Material{scene.NewMaterial("Skin", ""), scene.NewMaterial("Cloth", "")}}
	red := scene.NewMaterial("Red", "")
	load := func(path string) (*scene.Material, error) {
		if path == "Assets/Red.mat" {
			return red, nil
		}
		return nil, errors.New("not found")
	}

	cfg := Default()
	cfg.Variants = []*VariantConfig{{Name: "red", Materials: map[string][]string{"Avatar/Body": {"", "Assets/Red.mat"}}}}
	variants, err := cfg.MaterialVariants(root, load)
	if err != nil {
		t.Fatal(err)
	}
	if len(variants) != 1 || len(variants[0].Mappings) != 1 {
		t.Fatalf("unexpected variants: %v", variants)
	}
	m := variants[0].Mappings[0]
	if m.Renderer != body || m.Materials[0] != nil || m.Materials[1] != red {
		t.Errorf("unexpected mapping: %+v", m)
	}

	cfg.Variants[0].Materials = map[string][]string{"Missing": {"Assets/Red.mat"}}
	if _, err := cfg.MaterialVariants(root, load); err == nil {
		t.Error("expected error for missing renderer")
	}
	cfg.Variants[0].Materials = map[string][]string{"Body": {"Assets/Blue.mat"}}
	if _, err := cfg.MaterialVariants(root, load); err == nil {
		t.Error("expected error for missing material")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "avatar2vrm.yaml")
	cfg := Default()
	cfg.Excluded.Colliders = []string{"Chest"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Excluded.Colliders) != 1 || loaded.Excluded.Colliders[0] != "Chest" {
		t.Errorf("unexpected config: %+v", loaded.Excluded)
	}
}
