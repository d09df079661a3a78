package compose

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/binzume/avatarconv/geom"
)

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}

func TestComposeColor(t *testing.T) {
	req := NewRequest("main", fill(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	req.Color = geom.Vector4{X: 0.5, Y: 1, Z: 0, W: 1}

	img, err := NewCPU().Compose(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	c := img.(*image.NRGBA).NRGBAAt(1, 2)
	if !near(c.R, 128) || c.G != 255 || c.B != 0 || c.A != 255 {
		t.Error("invalid color", c)
	}
}

func TestComposeLayers(t *testing.T) {
	base := fill(4, 4, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	layer := fill(2, 2, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	req := NewRequest("shadow", base)
	req.Layers = []*Layer{NewLayer(layer, geom.Vector4{X: 1, Y: 1, Z: 1, W: 0.5}, BlendNormal)}
	img, err := NewCPU().Compose(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.(*image.NRGBA).NRGBAAt(3, 3); !near(c.R, 100) {
		t.Error("normal blend", c)
	}

	req.Layers[0].BlendMode = BlendMultiply
	req.Layers[0].Color.W = 1
	req.Layers[0].Mask = fill(4, 4, color.NRGBA{A: 255})
	img, _ = NewCPU().Compose(context.Background(), req)
	if c := img.(*image.NRGBA).NRGBAAt(0, 0); !near(c.R, 200) {
		t.Error("masked layer should keep base", c)
	}
}

func TestComposeHSVG(t *testing.T) {
	req := NewRequest("hsv", fill(1, 1, color.NRGBA{R: 255, A: 255}))
	req.HSVG = geom.Vector4{X: 1.0 / 3, Y: 1, Z: 1, W: 1}
	img, err := NewCPU().Compose(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.(*image.NRGBA).NRGBAAt(0, 0); c.R > 1 || c.G < 254 || c.B > 1 {
		t.Error("hue shift red -> green", c)
	}
}

func TestComposeGradation(t *testing.T) {
	ramp := image.NewNRGBA(image.Rect(0, 0, 256, 1))
	for x := 0; x < 256; x++ {
		v := uint8(255 - x)
		ramp.SetNRGBA(x, 0, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	req := NewRequest("gradation", fill(2, 2, color.NRGBA{R: 255, G: 64, B: 0, A: 255}))
	req.Gradation = ramp
	req.GradationStrength = 1
	img, err := NewCPU().Compose(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.(*image.NRGBA).NRGBAAt(0, 0); c.R != 0 || !near(c.G, 191) || c.B != 255 {
		t.Error("inverted ramp", c)
	}

	req.GradationStrength = 0.5
	img, _ = NewCPU().Compose(context.Background(), req)
	if c := img.(*image.NRGBA).NRGBAAt(0, 0); !near(c.R, 128) {
		t.Error("half strength", c)
	}

	req.GradationStrength = 1
	req.ColorAdjustMask = fill(2, 2, color.NRGBA{A: 255})
	img, _ = NewCPU().Compose(context.Background(), req)
	if c := img.(*image.NRGBA).NRGBAAt(1, 1); c.R != 255 || c.G != 64 || c.B != 0 {
		t.Error("masked pixels should keep the base color", c)
	}
}

func TestComposeError(t *testing.T) {
	if _, err := NewCPU().Compose(context.Background(), &Request{Name: "empty"}); err != ErrNoBase {
		t.Error("expected ErrNoBase", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCPU().Compose(ctx, NewRequest("c", fill(2, 2, color.NRGBA{}))); err == nil {
		t.Error("expected context error")
	}
}

func TestTracker(t *testing.T) {
	var tracker Tracker
	b, err := tracker.Bake(context.Background(), NewCPU(), NewRequest("a", fill(2, 2, color.NRGBA{A: 255})))
	if err != nil {
		t.Fatal(err)
	}
	if tracker.Len() != 1 || b.Image == nil {
		t.Error("not tracked")
	}
	tracker.Release()
	if tracker.Len() != 0 || tracker.Released() != 1 || b.Image != nil {
		t.Error("not released")
	}
}

func TestMinMaxLuminance(t *testing.T) {
	img := fill(2, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	max, min := MinMaxLuminance(img)
	if max.X != 1 || max.Y != 1 {
		t.Error("max", max)
	}
	if min.X != 0 || min.Z != 1 {
		t.Error("min", min)
	}
}
