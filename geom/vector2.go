package geom

// Vector2 is a texture coordinate with v pointing up.
type Vector2 struct {
	X Element
	Y Element
}

// FlipV returns the coordinate with v pointing down, as glTF expects.
func (v Vector2) FlipV() [2]float32 {
	return [2]float32{v.X, 1 - v.Y}
}
