package unity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/binzume/avatarconv/geom"
	"gopkg.in/yaml.v2"
)

type Material struct {
	Name           string   `yaml:"m_Name"`
	Shader         Ref      `yaml:"m_Shader"`
	ShaderKeywords string   `yaml:"m_ShaderKeywords"`
	ValidKeywords  []string `yaml:"m_ValidKeywords"`

	CustomRenderQueue int               `yaml:"m_CustomRenderQueue"`
	StringTagMap      map[string]string `yaml:"stringTagMap"`

	SavedProperties struct {
		TexEnvs []map[string]*TextureEnv `yaml:"m_TexEnvs"`
		Floats  []map[string]float32     `yaml:"m_Floats"`
		Colors  []map[string]*Color      `yaml:"m_Colors"`
	} `yaml:"m_SavedProperties"`
}

type Color struct {
	R float32
	G float32
	B float32
	A float32
}

func (c *Color) Vector4() geom.Vector4 {
	return geom.Vector4{X: c.R, Y: c.G, Z: c.B, W: c.A}
}

type TextureEnv struct {
	Texture Ref          `yaml:"m_Texture"`
	Scale   geom.Vector2 `yaml:"m_Scale"`
	Offset  geom.Vector2 `yaml:"m_Offset"`
}

func (m *Material) GetTextureProperty(name string) *TextureEnv {
	for _, t := range m.SavedProperties.TexEnvs {
		if tex, ok := t[name]; ok {
			return tex
		}
	}
	return nil
}

func (m *Material) GetColorProperty(name string) *Color {
	for _, t := range m.SavedProperties.Colors {
		if col, ok := t[name]; ok {
			return col
		}
	}
	return nil
}

func (m *Material) GetFloatProperty(name string) (float32, bool) {
	for _, t := range m.SavedProperties.Floats {
		if col, ok := t[name]; ok {
			return col, true
		}
	}
	return 0, false
}

// Keywords returns the enabled shader keywords of both serialization formats.
func (m *Material) Keywords() []string {
	keywords := append([]string(nil), m.ValidKeywords...)
	return append(keywords, strings.Fields(m.ShaderKeywords)...)
}

func LoadMaterial(assets Assets, guid string) (*Material, error) {
	asset := assets.GetAsset(guid)
	if asset == nil {
		return nil, fmt.Errorf("material %s: %w", guid, ErrAssetNotFound)
	}
	b, err := ReadAsset(assets, asset)
	if err != nil {
		return nil, err
	}
	for _, doc := range ParseYamlDocuments(b) {
		if doc.ClassID() == ClassMaterial {
			return decodeElement[Material](doc)
		}
	}
	// Material files without the unity header.
	var mat struct {
		Material Material `yaml:"Material"`
	}
	err = yaml.Unmarshal(b, &mat)
	return &mat.Material, err
}

var shaderNamePattern = regexp.MustCompile(`(?m)^\s*Shader\s+"([^"]+)"`)

// ShaderName resolves the name of the material's shader. Materials whose shader
// is not included in the assets are detected by their properties.
func ShaderName(assets Assets, mat *Material) string {
	if name, ok := UnityShaders[builtinKey{mat.Shader.FileID, mat.Shader.GUID}]; ok {
		return name
	}
	if asset := assets.GetAsset(mat.Shader.GUID); asset != nil && asset.Ext() == ".shader" {
		if b, err := ReadAsset(assets, asset); err == nil {
			if m := shaderNamePattern.FindSubmatch(b); m != nil {
				return string(m[1])
			}
		}
	}
	if _, ok := mat.GetFloatProperty("_lilToonVersion"); ok {
		return "lilToon"
	}
	if _, ok := mat.GetFloatProperty("_MToonVersion"); ok {
		return "VRM/MToon"
	}
	return ""
}
