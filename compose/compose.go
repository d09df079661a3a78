// Package compose pre-composites toon shader texture layers into a single image.
package compose

import (
	"context"
	"image"

	"github.com/binzume/avatarconv/geom"
)

type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdd
	BlendScreen
	BlendMultiply
)

// Layer is an image blended over the base. Color multiplies the layer and Color.W is its opacity.
type Layer struct {
	Image     image.Image
	Color     geom.Vector4
	Mask      image.Image
	BlendMode BlendMode
	Scale     geom.Vector2
	Offset    geom.Vector2
}

// Request describes one baked texture. Base is required.
type Request struct {
	Name  string
	Base  image.Image
	Color geom.Vector4
	// HSVG is (hue shift, saturation, value, gamma).
	HSVG geom.Vector4
	// Gradation is a horizontal lookup ramp applied per channel after HSVG.
	Gradation         image.Image
	GradationStrength float32
	// ColorAdjustMask limits HSVG and gradation to its red channel.
	ColorAdjustMask image.Image
	Layers          []*Layer
}

var DefaultHSVG = geom.Vector4{X: 0, Y: 1, Z: 1, W: 1}

func NewRequest(name string, base image.Image) *Request {
	return &Request{
		Name:  name,
		Base:  base,
		Color: geom.Vector4{X: 1, Y: 1, Z: 1, W: 1},
		HSVG:  DefaultHSVG,
	}
}

func NewLayer(img image.Image, color geom.Vector4, mode BlendMode) *Layer {
	return &Layer{
		Image:     img,
		Color:     color,
		BlendMode: mode,
		Scale:     geom.Vector2{X: 1, Y: 1},
	}
}

// Compositor bakes a Request into a new image.
type Compositor interface {
	Compose(ctx context.Context, req *Request) (image.Image, error)
}
