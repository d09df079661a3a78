package unity

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/binzume/avatarconv/scene"
	"github.com/blezek/tga"
	ftga "github.com/ftrvxmtrx/tga"
	"github.com/oov/psd"
	"golang.org/x/image/bmp"
)

var passthroughMimeTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
}

// decodeImage picks the decoder by extension. The tga package registers
// itself with an empty magic string, so image.Decode cannot be trusted with it.
func decodeImage(data []byte, ext string) (image.Image, string, error) {
	var img image.Image
	var err error
	switch ext {
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
		return img, "png", err
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
		return img, "jpeg", err
	case ".gif":
		img, err = gif.Decode(bytes.NewReader(data))
		return img, "gif", err
	case ".bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
		return img, "bmp", err
	case ".tga":
		img, err = ftga.Decode(bytes.NewReader(data))
		if err != nil {
			// Some TGA variants are only readable by this decoder.
			img, err = tga.Decode(bytes.NewReader(data))
		}
		return img, "tga", err
	case ".psd":
		doc, _, err := psd.Decode(bytes.NewReader(data), &psd.DecodeOptions{SkipLayerImage: true})
		if err != nil {
			return nil, "psd", err
		}
		return doc.Picker, "psd", nil
	}
	return image.Decode(bytes.NewReader(data))
}

// LoadTexture decodes an image asset. PNG and JPEG keep their encoded bytes.
func LoadTexture(assets Assets, guid string) (*scene.Texture, error) {
	asset := assets.GetAsset(guid)
	if asset == nil {
		return nil, fmt.Errorf("texture %s: %w", guid, ErrAssetNotFound)
	}
	data, err := ReadAsset(assets, asset)
	if err != nil {
		return nil, err
	}
	img, format, err := decodeImage(data, asset.Ext())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", asset.Path, err)
	}
	tex := &scene.Texture{Name: asset.Name(), Image: img}
	if mime, ok := passthroughMimeTypes[format]; ok {
		tex.Data = data
		tex.MimeType = mime
	}
	return tex, nil
}
