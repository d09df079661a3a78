package unity

import (
	"fmt"

	"github.com/binzume/avatarconv/scene"
)

const ClassAnimationClip = 74

type FloatCurve struct {
	Curve     AnimationCurve `yaml:"curve"`
	Attribute string         `yaml:"attribute"`
	Path      string         `yaml:"path"`
	ClassID   int            `yaml:"classID"`
}

type AnimationClip struct {
	Name        string        `yaml:"m_Name"`
	FloatCurves []*FloatCurve `yaml:"m_FloatCurves"`
}

func LoadAnimationClip(assets Assets, guid string) (*AnimationClip, error) {
	asset := assets.GetAsset(guid)
	if asset == nil {
		return nil, fmt.Errorf("animation %s: %w", guid, ErrAssetNotFound)
	}
	b, err := ReadAsset(assets, asset)
	if err != nil {
		return nil, err
	}
	for _, doc := range ParseYamlDocuments(b) {
		if doc.ClassID() == ClassAnimationClip {
			return decodeElement[AnimationClip](doc)
		}
	}
	return nil, fmt.Errorf("%s: no animation clip", asset.Path)
}

func (c *AnimationClip) SceneClip() *scene.AnimationClip {
	clip := &scene.AnimationClip{Name: c.Name}
	for _, fc := range c.FloatCurves {
		clip.Bindings = append(clip.Bindings, &scene.CurveBinding{
			Path:     fc.Path,
			Property: fc.Attribute,
			Curve:    fc.Curve.SceneCurve(),
		})
	}
	return clip
}
