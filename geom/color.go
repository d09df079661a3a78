package geom

import "math"

// GammaToLinear converts an sRGB encoded channel to linear.
func GammaToLinear(c Element) Element {
	v := float64(c)
	if v <= 0.04045 {
		return Element(v / 12.92)
	}
	return Element(math.Pow((v+0.055)/1.055, 2.4))
}

func LinearToGamma(c Element) Element {
	v := float64(c)
	if v <= 0.0031308 {
		return Element(v * 12.92)
	}
	return Element(1.055*math.Pow(v, 1/2.4) - 0.055)
}

// Linear returns the color with RGB converted to linear space. Alpha is kept.
func (c *Vector4) Linear() *Vector4 {
	return &Vector4{X: GammaToLinear(c.X), Y: GammaToLinear(c.Y), Z: GammaToLinear(c.Z), W: c.W}
}

func (c *Vector4) Gamma() *Vector4 {
	return &Vector4{X: LinearToGamma(c.X), Y: LinearToGamma(c.Y), Z: LinearToGamma(c.Z), W: c.W}
}

// Luminance returns Rec.709 luma of the RGB part.
func (c *Vector4) Luminance() Element {
	return 0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z
}

func (c *Vector4) RGB() [3]Element {
	return [3]Element{c.X, c.Y, c.Z}
}

func (c *Vector4) Array() [4]Element {
	return [4]Element{c.X, c.Y, c.Z, c.W}
}

// LerpVector4 interpolates all four components.
func LerpVector4(a, b *Vector4, t Element) *Vector4 {
	return &Vector4{
		X: Lerp(a.X, b.X, t),
		Y: Lerp(a.Y, b.Y, t),
		Z: Lerp(a.Z, b.Z, t),
		W: Lerp(a.W, b.W, t),
	}
}
