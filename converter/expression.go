package converter

import (
	"strings"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

var visemePresets = []struct {
	name   string
	viseme int
}{
	{vrm.ExpressionAa, scene.VisemeAa},
	{vrm.ExpressionIh, scene.VisemeIh},
	{vrm.ExpressionOu, scene.VisemeOu},
	{vrm.ExpressionEe, scene.VisemeE},
	{vrm.ExpressionOh, scene.VisemeOh},
}

var eyelidPresets = []string{vrm.ExpressionBlink, vrm.ExpressionLookUp, vrm.ExpressionLookDown}

type expressionTranslator struct {
	nodes        *NodeTable
	diag         *diagnostics
	morphTargets map[string]MorphTarget
}

func (t *expressionTranslator) Convert(desc *scene.AvatarDescriptor, settings *scene.ExpressionSettings) *vrm.Expressions {
	exps := &vrm.Expressions{Preset: map[string]*vrm.Expression{}, Custom: map[string]*vrm.Expression{}}
	if desc != nil {
		t.visemes(desc, exps)
		t.eyelids(desc, exps)
	}
	if settings == nil {
		return exps
	}
	presets := []struct {
		name string
		exp  *scene.Expression
	}{
		{vrm.ExpressionHappy, settings.Happy},
		{vrm.ExpressionAngry, settings.Angry},
		{vrm.ExpressionSad, settings.Sad},
		{vrm.ExpressionRelaxed, settings.Relaxed},
		{vrm.ExpressionSurprised, settings.Surprised},
	}
	for _, p := range presets {
		if p.exp == nil {
			continue
		}
		if !p.exp.IsValid() {
			t.diag.missing("Expression", "preset %v is skipped: expression is not set properly", p.name)
			continue
		}
		if e := t.item(p.exp); e != nil {
			exps.Preset[p.name] = e
		}
	}
	for i, c := range settings.Custom {
		if !c.IsValid() {
			t.diag.missing("Expression", "custom expression %d is skipped: expression is not set properly", i)
			continue
		}
		if e := t.item(c); e != nil {
			exps.Custom[c.CanonicalName()] = e
		}
	}
	return exps
}

func bind(node uint32, index int, weight float32) *vrm.Expression {
	return &vrm.Expression{MorphTargetBinds: []*vrm.MorphTargetBind{{Node: node, Index: uint32(index), Weight: weight}}}
}

func (t *expressionTranslator) visemes(desc *scene.AvatarDescriptor, exps *vrm.Expressions) {
	if desc.LipSync != scene.LipSyncVisemeBlendShape {
		return
	}
	id, ok := t.nodes.ID(desc.VisemeRenderer)
	if !ok || desc.VisemeRenderer.Renderer == nil || desc.VisemeRenderer.Renderer.Mesh == nil {
		t.diag.missing("Expression", "viseme renderer is missing or inactive")
		return
	}
	mesh := desc.VisemeRenderer.Renderer.Mesh
	for _, p := range visemePresets {
		if p.viseme >= len(desc.VisemeBlendShapes) {
			continue
		}
		name := desc.VisemeBlendShapes[p.viseme]
		if name == "" {
			continue
		}
		index := mesh.BlendShapeIndex(name)
		if index < 0 {
			t.diag.missing("Expression", "viseme %v: blend shape %q not found", p.name, name)
			continue
		}
		exps.Preset[p.name] = bind(id, index, 1)
	}
}

func (t *expressionTranslator) eyelids(desc *scene.AvatarDescriptor, exps *vrm.Expressions) {
	if !desc.EnableEyeLook || desc.EyelidType != scene.EyelidBlendShapes {
		return
	}
	renderer := desc.EyelidsRenderer
	if renderer == nil {
		renderer = desc.VisemeRenderer
	}
	id, ok := t.nodes.ID(renderer)
	if !ok || renderer.Renderer == nil || renderer.Renderer.Mesh == nil {
		t.diag.missing("Expression", "eyelids renderer is missing or inactive")
		return
	}
	count := len(renderer.Renderer.Mesh.BlendShapes)
	for i, name := range eyelidPresets {
		if i >= len(desc.EyelidBlendShapes) || desc.EyelidBlendShapes[i] < 0 {
			continue
		}
		index := desc.EyelidBlendShapes[i]
		if index >= count {
			t.diag.missing("Expression", "%v: blend shape index %d out of range (%d)", name, index, count)
			continue
		}
		exps.Preset[name] = bind(id, index, 1)
	}
}

func override(o scene.Override) vrm.ExpressionOverride {
	switch vrm.ExpressionOverride(o) {
	case vrm.OverrideBlock:
		return vrm.OverrideBlock
	case vrm.OverrideBlend:
		return vrm.OverrideBlend
	case vrm.OverrideNone:
		return vrm.OverrideNone
	}
	return ""
}

func (t *expressionTranslator) item(e *scene.Expression) *vrm.Expression {
	var binds []*vrm.MorphTargetBind
	switch e.BaseType {
	case scene.ExpressionBlendShape:
		mt, ok := t.morphTargets[e.BlendShapeName]
		if !ok {
			t.diag.missing("Expression", "blend shape %q not found", e.BlendShapeName)
			return nil
		}
		binds = append(binds, &vrm.MorphTargetBind{Node: mt.Node, Index: uint32(mt.Index), Weight: 1})
	case scene.ExpressionAnimationClip:
		for _, b := range e.Clip.Bindings {
			if !strings.HasPrefix(b.Property, scene.BlendShapePropertyPrefix) || b.Curve == nil {
				continue
			}
			name := strings.TrimPrefix(b.Property, scene.BlendShapePropertyPrefix)
			for _, k := range b.Curve.Keys {
				if k.Time > 0 || geom.Approximately(k.Value, 0) {
					continue
				}
				mt, ok := t.morphTargets[name]
				if !ok {
					t.diag.missing("Expression", "%v: blend shape %q not found", e.Clip.Name, name)
					continue
				}
				binds = append(binds, &vrm.MorphTargetBind{Node: mt.Node, Index: uint32(mt.Index), Weight: k.Value * 0.01})
			}
		}
	}
	if len(binds) == 0 {
		return nil
	}
	return &vrm.Expression{
		MorphTargetBinds: binds,
		IsBinary:         e.IsBinary,
		OverrideBlink:    override(e.OverrideBlink),
		OverrideLookAt:   override(e.OverrideLookAt),
		OverrideMouth:    override(e.OverrideMouth),
	}
}
