package compose

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/binzume/avatarconv/geom"
	"golang.org/x/image/draw"
)

var ErrNoBase = errors.New("compose: no base image")

// CPU composites on the CPU. Layers and masks are resampled to the base size.
type CPU struct {
	Interpolator draw.Interpolator
}

func NewCPU() *CPU {
	return &CPU{Interpolator: draw.BiLinear}
}

type sampledLayer struct {
	*Layer
	img  *image.NRGBA
	mask *image.NRGBA
}

func (c *CPU) resample(src image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}
	interp := c.Interpolator
	if interp == nil {
		interp = draw.BiLinear
	}
	interp.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

func (c *CPU) Compose(ctx context.Context, req *Request) (image.Image, error) {
	if req == nil || req.Base == nil {
		return nil, ErrNoBase
	}
	b := req.Base.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("compose %v: empty base image", req.Name)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), req.Base, b.Min, draw.Src)

	var gradation, adjustMask *image.NRGBA
	if req.Gradation != nil && req.GradationStrength > 0 {
		gb := req.Gradation.Bounds()
		gradation = c.resample(req.Gradation, gb.Dx(), gb.Dy())
	}
	if req.ColorAdjustMask != nil {
		adjustMask = c.resample(req.ColorAdjustMask, w, h)
	}

	var layers []*sampledLayer
	for _, l := range req.Layers {
		if l == nil || l.Image == nil {
			continue
		}
		sl := &sampledLayer{Layer: l, img: c.resample(l.Image, w, h)}
		if l.Mask != nil {
			sl.mask = c.resample(l.Mask, w, h)
		}
		layers = append(layers, sl)
	}

	for y := 0; y < h; y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for x := 0; x < w; x++ {
			p := toVector4(dst.NRGBAAt(x, y))
			p = geom.Vector4{X: p.X * req.Color.X, Y: p.Y * req.Color.Y, Z: p.Z * req.Color.Z, W: p.W * req.Color.W}
			orig := p
			if req.HSVG != DefaultHSVG {
				p = toneCorrection(p, req.HSVG)
			}
			if gradation != nil {
				p = gradationMap(p, gradation, req.GradationStrength)
			}
			if adjustMask != nil {
				m := toVector4(adjustMask.NRGBAAt(x, y)).X
				p = geom.Vector4{X: geom.Lerp(orig.X, p.X, m), Y: geom.Lerp(orig.Y, p.Y, m), Z: geom.Lerp(orig.Z, p.Z, m), W: p.W}
			}
			for _, l := range layers {
				p = l.blend(p, x, y, w, h)
			}
			dst.SetNRGBA(x, y, fromVector4(p))
		}
	}
	return dst, nil
}

func (l *sampledLayer) blend(dst geom.Vector4, x, y, w, h int) geom.Vector4 {
	sx, sy := x, y
	if l.Scale != (geom.Vector2{X: 1, Y: 1}) || l.Offset != (geom.Vector2{}) {
		// texture space has v up.
		u := (float32(x)+0.5)/float32(w)*l.Scale.X + l.Offset.X
		v := (1-(float32(y)+0.5)/float32(h))*l.Scale.Y + l.Offset.Y
		sx = wrap(int(math.Floor(float64(u*float32(w)))), w)
		sy = wrap(int(math.Floor(float64((1-v)*float32(h)))), h)
	}
	src := toVector4(l.img.NRGBAAt(sx, sy))
	a := src.W * l.Color.W
	if l.mask != nil {
		a *= toVector4(l.mask.NRGBAAt(x, y)).X
	}
	src = geom.Vector4{X: src.X * l.Color.X, Y: src.Y * l.Color.Y, Z: src.Z * l.Color.Z}

	var r geom.Vector4
	switch l.BlendMode {
	case BlendAdd:
		r = geom.Vector4{X: dst.X + src.X*a, Y: dst.Y + src.Y*a, Z: dst.Z + src.Z*a}
	case BlendScreen:
		r = geom.Vector4{
			X: geom.Lerp(dst.X, 1-(1-dst.X)*(1-src.X), a),
			Y: geom.Lerp(dst.Y, 1-(1-dst.Y)*(1-src.Y), a),
			Z: geom.Lerp(dst.Z, 1-(1-dst.Z)*(1-src.Z), a),
		}
	case BlendMultiply:
		r = geom.Vector4{
			X: geom.Lerp(dst.X, dst.X*src.X, a),
			Y: geom.Lerp(dst.Y, dst.Y*src.Y, a),
			Z: geom.Lerp(dst.Z, dst.Z*src.Z, a),
		}
	default:
		r = geom.Vector4{
			X: geom.Lerp(dst.X, src.X, a),
			Y: geom.Lerp(dst.Y, src.Y, a),
			Z: geom.Lerp(dst.Z, src.Z, a),
		}
	}
	r.W = dst.W
	return r
}

// gradationMap looks each channel up in the middle row of the ramp.
func gradationMap(c geom.Vector4, ramp *image.NRGBA, strength float32) geom.Vector4 {
	w := ramp.Bounds().Dx()
	row := ramp.Bounds().Dy() / 2
	at := func(v float32) geom.Vector4 {
		return toVector4(ramp.NRGBAAt(int(geom.Clamp01(v)*float32(w-1)+0.5), row))
	}
	mapped := geom.Vector4{X: at(c.X).X, Y: at(c.Y).Y, Z: at(c.Z).Z}
	return geom.Vector4{
		X: geom.Lerp(c.X, mapped.X, strength),
		Y: geom.Lerp(c.Y, mapped.Y, strength),
		Z: geom.Lerp(c.Z, mapped.Z, strength),
		W: c.W,
	}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func toVector4(c color.NRGBA) geom.Vector4 {
	return geom.Vector4{X: float32(c.R) / 255, Y: float32(c.G) / 255, Z: float32(c.B) / 255, W: float32(c.A) / 255}
}

func fromVector4(v geom.Vector4) color.NRGBA {
	return color.NRGBA{R: toByte(v.X), G: toByte(v.Y), B: toByte(v.Z), A: toByte(v.W)}
}

func toByte(v float32) uint8 {
	return uint8(geom.Clamp01(v)*255 + 0.5)
}

// toneCorrection applies gamma, then hue shift and saturation/value scaling.
func toneCorrection(c geom.Vector4, hsvg geom.Vector4) geom.Vector4 {
	r := geom.Pow(geom.Clamp01(c.X), hsvg.W)
	g := geom.Pow(geom.Clamp01(c.Y), hsvg.W)
	b := geom.Pow(geom.Clamp01(c.Z), hsvg.W)
	h, s, v := rgbToHSV(r, g, b)
	h = h + hsvg.X
	h -= float32(math.Floor(float64(h)))
	s = geom.Clamp01(s * hsvg.Y)
	v = v * hsvg.Z
	r, g, b = hsvToRGB(h, s, v)
	return geom.Vector4{X: r, Y: g, Z: b, W: c.W}
}

func rgbToHSV(r, g, b float32) (h, s, v float32) {
	max := float32(math.Max(float64(r), math.Max(float64(g), float64(b))))
	min := float32(math.Min(float64(r), math.Min(float64(g), float64(b))))
	v = max
	d := max - min
	if max <= 0 || d <= 0 {
		return 0, 0, v
	}
	s = d / max
	switch max {
	case r:
		h = (g - b) / d
	case g:
		h = 2 + (b-r)/d
	default:
		h = 4 + (r-g)/d
	}
	h /= 6
	if h < 0 {
		h += 1
	}
	return h, s, v
}

func hsvToRGB(h, s, v float32) (r, g, b float32) {
	if s <= 0 {
		return v, v, v
	}
	h6 := h * 6
	i := int(math.Floor(float64(h6))) % 6
	f := h6 - float32(math.Floor(float64(h6)))
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch i {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	}
	return v, p, q
}
