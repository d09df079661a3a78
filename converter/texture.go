package converter

import (
	"image"

	"github.com/binzume/avatarconv/compose"
	"github.com/binzume/avatarconv/gltfutil"
	"github.com/binzume/avatarconv/scene"
	"github.com/qmuntal/gltf"
)

const textureTransformExtension = "KHR_texture_transform"

// textureExporter writes each source or baked texture once.
type textureExporter struct {
	doc    *gltf.Document
	opts   *gltfutil.ImageOptions
	diag   *diagnostics
	ids    map[interface{}]uint32
	failed map[interface{}]bool

	extensionsUsed     ExtensionSet
	extensionsRequired ExtensionSet
}

func newTextureExporter(doc *gltf.Document, opts *gltfutil.ImageOptions, diag *diagnostics) *textureExporter {
	return &textureExporter{
		doc:                doc,
		opts:               opts,
		diag:               diag,
		ids:                map[interface{}]uint32{},
		failed:             map[interface{}]bool{},
		extensionsUsed:     NewExtensionSet(),
		extensionsRequired: NewExtensionSet(),
	}
}

func (t *textureExporter) add(key interface{}, name string, img image.Image, data []byte, mime string) (uint32, bool) {
	if id, ok := t.ids[key]; ok {
		return id, true
	}
	if t.failed[key] {
		return 0, false
	}
	id, ext, err := gltfutil.AddTexture(t.doc, name, img, data, mime, t.opts)
	if err != nil {
		t.failed[key] = true
		t.diag.unsupported("Texture", "%v: %v", name, err)
		return 0, false
	}
	if ext != "" {
		t.extensionsUsed.Add(ext)
		t.extensionsRequired.Add(ext)
	}
	t.ids[key] = id
	return id, true
}

func (t *textureExporter) Texture(tex *scene.Texture) (uint32, bool) {
	if tex == nil {
		return 0, false
	}
	return t.add(tex, tex.Name, tex.Image, tex.Data, tex.MimeType)
}

func (t *textureExporter) Baked(b *compose.Baked) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	return t.add(b, b.Name, b.Image, nil, "")
}

// Info returns a TextureInfo for the slot with KHR_texture_transform when needed.
func (t *textureExporter) Info(slot *scene.TextureSlot) *gltf.TextureInfo {
	if slot == nil {
		return nil
	}
	id, ok := t.Texture(slot.Texture)
	if !ok {
		return nil
	}
	info := &gltf.TextureInfo{Index: id}
	if tr := t.transform(slot); tr != nil {
		info.Extensions = gltf.Extensions{textureTransformExtension: tr}
	}
	return info
}

// transform converts a Unity scale/offset (v up) to KHR_texture_transform (v down).
func (t *textureExporter) transform(slot *scene.TextureSlot) map[string]interface{} {
	if slot == nil || !slot.HasTransform() {
		return nil
	}
	t.extensionsUsed.Add(textureTransformExtension)
	return map[string]interface{}{
		"offset": [2]float32{slot.Offset.X, 1 - slot.Scale.Y - slot.Offset.Y},
		"scale":  [2]float32{slot.Scale.X, slot.Scale.Y},
	}
}

// Image returns the decoded image of a material texture or nil.
func textureImage(slot *scene.TextureSlot) image.Image {
	if slot == nil || slot.Texture == nil {
		return nil
	}
	return slot.Texture.Image
}

// Image returns the image index backing tex.
func (t *textureExporter) Image(tex *scene.Texture) (uint32, bool) {
	id, ok := t.Texture(tex)
	if !ok {
		return 0, false
	}
	texture := t.doc.Textures[id]
	if texture.Source != nil {
		return *texture.Source, true
	}
	if ext, ok := texture.Extensions[gltfutil.WebPExtension].(map[string]interface{}); ok {
		if src, ok := ext["source"].(uint32); ok {
			return src, true
		}
	}
	return 0, false
}
