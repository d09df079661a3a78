package vrm

import (
	"fmt"
	"strings"
)

var RequiredBones = []string{
	"hips", "spine", "head",
	"leftUpperLeg", "leftLowerLeg", "leftFoot",
	"rightUpperLeg", "rightLowerLeg", "rightFoot",
	"leftUpperArm", "leftLowerArm", "leftHand",
	"rightUpperArm", "rightLowerArm", "rightHand",
}

var OptionalBones = []string{
	"chest", "upperChest", "neck",
	"leftEye", "rightEye", "jaw",
	"leftToes", "rightToes",
	"leftShoulder", "rightShoulder",
	"leftThumbMetacarpal", "leftThumbProximal", "leftThumbDistal",
	"leftIndexProximal", "leftIndexIntermediate", "leftIndexDistal",
	"leftMiddleProximal", "leftMiddleIntermediate", "leftMiddleDistal",
	"leftRingProximal", "leftRingIntermediate", "leftRingDistal",
	"leftLittleProximal", "leftLittleIntermediate", "leftLittleDistal",
	"rightThumbMetacarpal", "rightThumbProximal", "rightThumbDistal",
	"rightIndexProximal", "rightIndexIntermediate", "rightIndexDistal",
	"rightMiddleProximal", "rightMiddleIntermediate", "rightMiddleDistal",
	"rightRingProximal", "rightRingIntermediate", "rightRingDistal",
	"rightLittleProximal", "rightLittleIntermediate", "rightLittleDistal",
}

func IsHumanBoneName(name string) bool {
	for _, b := range RequiredBones {
		if b == name {
			return true
		}
	}
	for _, b := range OptionalBones {
		if b == name {
			return true
		}
	}
	return false
}

func (h *Humanoid) CheckRequiredBones() []string {
	var missing []string
	for _, name := range RequiredBones {
		if h.HumanBones[name] == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func (h *Humanoid) ValidateBones() error {
	if missing := h.CheckRequiredBones(); len(missing) > 0 {
		return fmt.Errorf("missing bones: %v", strings.Join(missing, ","))
	}
	return nil
}
