package converter

import (
	"testing"

	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

func TestExpressionTranslator(t *testing.T) {
	root := scene.NewObject("root")
	face := root.AddChild(scene.NewObject("Face"))
	visemes := make([]string, scene.VisemeCount)
	visemes[scene.VisemeAa] = "vrc.v_aa"
	visemes[scene.VisemeE] = "vrc.v_e"
	visemes[scene.VisemeOh] = "missing"
	face.Renderer = &scene.Renderer{Mesh: &scene.Mesh{BlendShapes: []*scene.BlendShape{
		{Name: "vrc.v_aa"}, {Name: "vrc.v_e"}, {Name: "blink"}, {Name: "smile"},
	}}}

	desc := &scene.AvatarDescriptor{
		LipSync:           scene.LipSyncVisemeBlendShape,
		VisemeRenderer:    face,
		VisemeBlendShapes: visemes,
		EnableEyeLook:     true,
		EyelidType:        scene.EyelidBlendShapes,
		EyelidBlendShapes: []int{2, -1, -1},
	}
	clip := &scene.AnimationClip{Name: "joy", Bindings: []*scene.CurveBinding{
		{Property: "blendShape.smile", Curve: &scene.Curve{Keys: []scene.Keyframe{{Time: 0, Value: 80}, {Time: 1, Value: 100}}}},
		{Property: "blendShape.blink", Curve: &scene.Curve{Keys: []scene.Keyframe{{Time: 0, Value: 0}}}},
		{Property: "m_IsActive", Curve: &scene.Curve{Keys: []scene.Keyframe{{Time: 0, Value: 1}}}},
	}}
	settings := &scene.ExpressionSettings{
		Happy: &scene.Expression{BaseType: scene.ExpressionAnimationClip, Clip: clip, OverrideBlink: "block"},
		Sad:   &scene.Expression{BaseType: scene.ExpressionBlendShape},
		Custom: []*scene.Expression{
			{Name: " wink ", BaseType: scene.ExpressionBlendShape, BlendShapeName: "blink", IsBinary: true},
			{BaseType: scene.ExpressionBlendShape, BlendShapeName: "unknown"},
		},
	}

	nodes := BuildNodeTable(root, false)
	diag := newDiagnostics(nil)
	morphTargets := map[string]MorphTarget{"smile": {Node: 1, Index: 3}, "blink": {Node: 1, Index: 2}}
	exps := (&expressionTranslator{nodes: nodes, diag: diag, morphTargets: morphTargets}).Convert(desc, settings)

	if e := exps.Preset[vrm.ExpressionAa]; e == nil || e.MorphTargetBinds[0].Node != 1 || e.MorphTargetBinds[0].Index != 0 {
		t.Error("aa", e)
	}
	if e := exps.Preset[vrm.ExpressionEe]; e == nil || e.MorphTargetBinds[0].Index != 1 {
		t.Error("ee", e)
	}
	if _, ok := exps.Preset[vrm.ExpressionOh]; ok {
		t.Error("missing viseme should be skipped")
	}
	if e := exps.Preset[vrm.ExpressionBlink]; e == nil || e.MorphTargetBinds[0].Index != 2 {
		t.Error("blink", e)
	}
	if _, ok := exps.Preset[vrm.ExpressionLookUp]; ok {
		t.Error("index -1 should be skipped")
	}
	happy := exps.Preset[vrm.ExpressionHappy]
	if happy == nil || len(happy.MorphTargetBinds) != 1 || !near(happy.MorphTargetBinds[0].Weight, 0.8) || happy.OverrideBlink != vrm.OverrideBlock {
		t.Error("happy", happy)
	}
	if _, ok := exps.Preset[vrm.ExpressionSad]; ok {
		t.Error("invalid preset")
	}
	if e := exps.Custom["wink"]; e == nil || !e.IsBinary || e.MorphTargetBinds[0].Weight != 1 {
		t.Error("custom", e)
	}
	if len(exps.Custom) != 1 {
		t.Error("custom count", len(exps.Custom))
	}
	// oh, sad, unknown
	if len(diag.list) != 3 {
		for _, d := range diag.list {
			t.Log(d)
		}
		t.Error("diagnostics", len(diag.list))
	}
}

func TestExpressionTranslatorUnsetPresets(t *testing.T) {
	root := scene.NewObject("root")
	face := root.AddChild(scene.NewObject("Face"))
	face.Renderer = &scene.Renderer{Mesh: &scene.Mesh{BlendShapes: []*scene.BlendShape{{Name: "blink"}}}}
	desc := &scene.AvatarDescriptor{
		VisemeRenderer:    face,
		EnableEyeLook:     true,
		EyelidType:        scene.EyelidBlendShapes,
		EyelidBlendShapes: []int{0, 5, -1},
	}
	settings := &scene.ExpressionSettings{
		Happy: &scene.Expression{BaseType: scene.ExpressionBlendShape, BlendShapeName: "blink"},
	}

	diag := newDiagnostics(nil)
	morphTargets := map[string]MorphTarget{"blink": {Node: 1, Index: 0}}
	exps := (&expressionTranslator{nodes: BuildNodeTable(root, false), diag: diag, morphTargets: morphTargets}).Convert(desc, settings)

	if exps.Preset[vrm.ExpressionHappy] == nil || exps.Preset[vrm.ExpressionBlink] == nil {
		t.Error("presets", exps.Preset)
	}
	if _, ok := exps.Preset[vrm.ExpressionLookUp]; ok {
		t.Error("out of range eyelid index should be skipped")
	}
	// lookUp only: unset presets are not reported
	if len(diag.list) != 1 || diag.list[0].Kind != MissingReference {
		for _, d := range diag.list {
			t.Log(d)
		}
		t.Error("diagnostics", len(diag.list))
	}
}
