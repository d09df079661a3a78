package gltfutil

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"golang.org/x/image/draw"
)

const WebPExtension = "EXT_texture_webp"

type ImageFormat string

const (
	FormatAuto ImageFormat = ""
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
)

type ImageOptions struct {
	Format ImageFormat
	// ResolutionLimit caps the width of re-encoded images. 0 means unlimited.
	ResolutionLimit int
	// ReEncode forces encoding even when the original bytes can be embedded.
	ReEncode    bool
	JPEGQuality int
}

var ErrNoImage = errors.New("no image data")

func (o *ImageOptions) needsEncode(img image.Image, data []byte, mime string) bool {
	if len(data) == 0 || o.ReEncode || o.Format == FormatWebP {
		return true
	}
	if mime != "image/png" && mime != "image/jpeg" {
		return true
	}
	if o.Format == FormatPNG && mime != "image/png" || o.Format == FormatJPEG && mime != "image/jpeg" {
		return true
	}
	return img != nil && o.ResolutionLimit > 0 && img.Bounds().Dx() > o.ResolutionLimit
}

func scaleImage(img image.Image, limit int) image.Image {
	rect := img.Bounds()
	if limit <= 0 || rect.Dx() <= limit {
		return img
	}
	scale := float32(limit) / float32(rect.Dx())
	h := int(float32(rect.Dy()) * scale)
	if h < 1 {
		h = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, limit, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
	return dst
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// EncodeImage encodes img in the requested format. FormatAuto picks jpeg for
// opaque images when the source was jpeg and png otherwise.
func EncodeImage(w io.Writer, img image.Image, format ImageFormat, srcMime string, quality int) (string, error) {
	if format == FormatAuto {
		format = FormatPNG
		if srcMime == "image/jpeg" && isOpaque(img) {
			format = FormatJPEG
		}
	}
	switch format {
	case FormatWebP:
		return "image/webp", nativewebp.Encode(w, img, nil)
	case FormatJPEG:
		var o *jpeg.Options
		if quality > 0 {
			o = &jpeg.Options{Quality: quality}
		}
		return "image/jpeg", jpeg.Encode(w, img, o)
	}
	return "image/png", png.Encode(w, img)
}

// AddTexture embeds an image into the binary buffer and appends a texture
// using sampler 0. When the returned extension name is not empty the caller
// must list it in extensionsUsed and extensionsRequired.
func AddTexture(doc *gltf.Document, name string, img image.Image, data []byte, mime string, opts *ImageOptions) (uint32, string, error) {
	if opts == nil {
		opts = &ImageOptions{}
	}
	if img == nil && len(data) == 0 {
		return 0, "", ErrNoImage
	}
	var r io.Reader
	if opts.needsEncode(img, data, mime) {
		if img == nil {
			return 0, "", ErrNoImage
		}
		var buf bytes.Buffer
		m, err := EncodeImage(&buf, scaleImage(img, opts.ResolutionLimit), opts.Format, mime, opts.JPEGQuality)
		if err != nil {
			return 0, "", err
		}
		mime = m
		r = &buf
	} else {
		r = bytes.NewReader(data)
	}

	imgIdx, err := modeler.WriteImage(doc, name, mime, r)
	if err != nil {
		return 0, "", err
	}
	b := doc.Buffers[len(doc.Buffers)-1]
	b.ByteLength = uint32(len(b.Data)) // avoid AddImage bug

	texture := &gltf.Texture{Sampler: gltf.Index(0)}
	var ext string
	if mime == "image/webp" {
		ext = WebPExtension
		texture.Extensions = gltf.Extensions{WebPExtension: map[string]interface{}{"source": imgIdx}}
	} else {
		texture.Source = gltf.Index(imgIdx)
	}
	doc.Textures = append(doc.Textures, texture)
	return uint32(len(doc.Textures) - 1), ext, nil
}

// EnsureSampler adds the default sampler used by AddTexture.
func EnsureSampler(doc *gltf.Document) {
	if len(doc.Textures) > 0 && len(doc.Samplers) == 0 {
		doc.Samplers = []*gltf.Sampler{{
			MagFilter: gltf.MagLinear,
			MinFilter: gltf.MinLinearMipMapLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		}}
	}
}
