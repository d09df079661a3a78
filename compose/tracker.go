package compose

import (
	"context"
	"image"
	"image/color"

	"github.com/binzume/avatarconv/geom"
)

// Baked is a composited image owned by a Tracker.
type Baked struct {
	Name  string
	Image image.Image
}

// Tracker keeps every baked image of a run until Release.
type Tracker struct {
	baked    []*Baked
	released int
}

func (t *Tracker) Bake(ctx context.Context, c Compositor, req *Request) (*Baked, error) {
	img, err := c.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	b := &Baked{Name: req.Name, Image: img}
	t.baked = append(t.baked, b)
	return b, nil
}

// Len returns the number of images not released yet.
func (t *Tracker) Len() int {
	return len(t.baked)
}

// Released returns the total number of images released so far.
func (t *Tracker) Released() int {
	return t.released
}

func (t *Tracker) Release() {
	for _, b := range t.baked {
		b.Image = nil
	}
	t.released += len(t.baked)
	t.baked = nil
}

// MinMaxLuminance returns the brightest and the darkest pixel (Rec.709) in gamma space.
func MinMaxLuminance(img image.Image) (max, min geom.Vector4) {
	max = geom.Vector4{W: 1}
	min = geom.Vector4{X: 1, Y: 1, Z: 1, W: 1}
	var maxLum, minLum float32 = 0, 1
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := toVector4(color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
			lum := p.Luminance()
			if lum > maxLum {
				maxLum = lum
				max = p
			}
			if lum < minLum {
				minLum = lum
				min = p
			}
		}
	}
	return max, min
}
