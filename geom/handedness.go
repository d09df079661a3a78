package geom

// Conversion between left-handed (Y-up, Z-forward) and right-handed glTF space
// is a mirror on the X axis.

func (v *Vector3) MirrorX() *Vector3 {
	return &Vector3{X: -v.X, Y: v.Y, Z: v.Z}
}

func (q *Quaternion) MirrorX() *Quaternion {
	return &Quaternion{X: q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// MirrorX returns S * m * S where S = diag(-1, 1, 1, 1).
func (m *Matrix4) MirrorX() *Matrix4 {
	r := *m
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			if (c == 0) != (row == 0) {
				r[c*4+row] = -r[c*4+row]
			}
		}
	}
	return &r
}
