package scene

import (
	"image"
	"strings"

	"github.com/binzume/avatarconv/geom"
)

// Texture is a decoded image. Data keeps the original encoded bytes when they
// can be written to the output without re-encoding.
type Texture struct {
	Name     string
	Image    image.Image
	Data     []byte
	MimeType string
}

type TextureSlot struct {
	Texture *Texture
	Scale   geom.Vector2
	Offset  geom.Vector2
}

// HasTransform reports whether scale/offset differ from identity.
func (t *TextureSlot) HasTransform() bool {
	return t.Scale != geom.Vector2{X: 1, Y: 1} || t.Offset != geom.Vector2{}
}

// Material is a shader instance with its saved properties.
type Material struct {
	Name     string
	Shader   string
	Tags     map[string]string
	Keywords []string

	Floats   map[string]float32
	Colors   map[string]geom.Vector4
	Textures map[string]*TextureSlot
}

func NewMaterial(name, shader string) *Material {
	return &Material{
		Name:     name,
		Shader:   shader,
		Tags:     map[string]string{},
		Floats:   map[string]float32{},
		Colors:   map[string]geom.Vector4{},
		Textures: map[string]*TextureSlot{},
	}
}

func (m *Material) Float(name string) (float32, bool) {
	v, ok := m.Floats[name]
	return v, ok
}

func (m *Material) FloatOr(name string, def float32) float32 {
	if v, ok := m.Floats[name]; ok {
		return v
	}
	return def
}

// Flag reports whether a toggle property exists and is set to 1.
func (m *Material) Flag(name string) bool {
	v, ok := m.Floats[name]
	return ok && v == 1
}

func (m *Material) Color(name string) (*geom.Vector4, bool) {
	c, ok := m.Colors[name]
	if !ok {
		return nil, false
	}
	return &c, true
}

func (m *Material) ColorOr(name string, def geom.Vector4) *geom.Vector4 {
	if c, ok := m.Colors[name]; ok {
		return &c
	}
	return &def
}

// Texture returns the slot only when a texture is assigned.
func (m *Material) Texture(name string) *TextureSlot {
	if t, ok := m.Textures[name]; ok && t != nil && t.Texture != nil {
		return t
	}
	return nil
}

func (m *Material) HasKeyword(keyword string) bool {
	for _, k := range m.Keywords {
		if k == keyword {
			return true
		}
	}
	return false
}

func (m *Material) Tag(name string) string {
	return m.Tags[name]
}

func (m *Material) IsLilToon() bool {
	return m.Shader == "lilToon" || strings.HasPrefix(m.Shader, "Hidden/lilToon")
}
