package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

var ErrMissingBones = errors.New("missing required humanoid bones")

// BoneMapping assigns a node to a human bone by name.
type BoneMapping struct {
	Bone     string `yaml:"bone"`
	NodeName string `yaml:"node"`
}

// vrmBoneName converts a HumanBodyBones name to the VRM 1.0 name.
func vrmBoneName(name string) string {
	switch {
	case strings.HasSuffix(name, "ThumbProximal"):
		name = strings.TrimSuffix(name, "Proximal") + "Metacarpal"
	case strings.HasSuffix(name, "ThumbIntermediate"):
		name = strings.TrimSuffix(name, "Intermediate") + "Proximal"
	}
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

type humanoidTranslator struct {
	nodes    *NodeTable
	diag     *diagnostics
	mappings []*BoneMapping
}

func (t *humanoidTranslator) Convert(h *scene.Humanoid) vrm.Humanoid {
	humanoid := vrm.Humanoid{HumanBones: map[string]*vrm.HumanBone{}}
	if h != nil {
		for name, obj := range h.Bones {
			bone := vrmBoneName(name)
			if !vrm.IsHumanBoneName(bone) {
				t.diag.unsupported("Humanoid", "unknown bone %v", name)
				continue
			}
			id, ok := t.nodes.ID(obj)
			if !ok {
				if obj != nil {
					t.diag.missing("Humanoid", "bone %v: %v is not exported", bone, obj.Name)
				}
				continue
			}
			humanoid.HumanBones[bone] = &vrm.HumanBone{Node: id}
		}
	}
	for _, m := range t.mappings {
		if humanoid.HumanBones[m.Bone] != nil || m.NodeName == "" {
			continue
		}
		if id, ok := t.nodes.FindByName(m.NodeName); ok {
			humanoid.HumanBones[m.Bone] = &vrm.HumanBone{Node: id}
		} else {
			t.diag.missing("Humanoid", "bone node not found: %v", m.NodeName)
		}
	}
	for _, bone := range vrm.RequiredBones {
		if humanoid.HumanBones[bone] != nil {
			continue
		}
		if id, ok := t.nodes.FindByName(bone); ok {
			humanoid.HumanBones[bone] = &vrm.HumanBone{Node: id}
		}
	}
	return humanoid
}

func validateHumanoid(h *vrm.Humanoid) error {
	if missing := h.CheckRequiredBones(); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingBones, strings.Join(missing, ","))
	}
	return nil
}
