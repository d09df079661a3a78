package unity

import (
	"math"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
)

const (
	builtinExtraGUID   = "0000000000000000e000000000000000"
	builtinDefaultGUID = "0000000000000000f000000000000000"
)

type builtinKey struct {
	FileID int64
	GUID   string
}

var UnityMeshes = map[builtinKey]string{
	{10202, builtinExtraGUID}: "Cube",
	{10206, builtinExtraGUID}: "Cylinder",
	{10207, builtinExtraGUID}: "Sphere",
	{10208, builtinExtraGUID}: "Capsule",
	{10209, builtinExtraGUID}: "Plane",
	{10210, builtinExtraGUID}: "Quad",
}

var UnityShaders = map[builtinKey]string{
	{45, builtinDefaultGUID}:                         "Standard (Specular setup)",
	{46, builtinDefaultGUID}:                         "Standard",
	{47, builtinDefaultGUID}:                         "Autodesk Interactive",
	{10750, builtinExtraGUID}:                        "Unlit/Transparent",
	{10751, builtinExtraGUID}:                        "Unlit/Transparent Cutout",
	{10752, builtinExtraGUID}:                        "Unlit/Color",
	{10753, builtinExtraGUID}:                        "Unlit/Texture",
	{4800000, "933532a4fcc9baf4fa0491de14d08ed7"}: "Universal Render Pipeline/Lit",
	{4800000, "650dd9526735d5b46b79224bc6e94025"}: "Universal Render Pipeline/Unlit",
	{4800000, "8d2bb70cbf9db8d4da26e15b26e74248"}: "Universal Render Pipeline/Simple Lit",
}

// IsBuiltinMesh reports whether ref points to a primitive mesh.
func IsBuiltinMesh(ref *Ref) bool {
	_, ok := UnityMeshes[builtinKey{ref.FileID, ref.GUID}]
	return ok
}

// GetBuiltinMesh builds a primitive mesh with one vertex per face corner.
func GetBuiltinMesh(ref *Ref) *scene.Mesh {
	name, ok := UnityMeshes[builtinKey{ref.FileID, ref.GUID}]
	if !ok {
		return nil
	}
	var vs []*geom.Vector3
	var faces [][]int
	var uvs [][]geom.Vector2
	outward := func(c *geom.Vector3) *geom.Vector3 { return c }
	switch name {
	case "Cube":
		vs, faces, uvs = Cube()
	case "Plane":
		vs, faces, uvs = Plane()
		outward = func(*geom.Vector3) *geom.Vector3 { return &geom.Vector3{Y: 1} }
	case "Quad":
		vs, faces, uvs = Quad()
		outward = func(*geom.Vector3) *geom.Vector3 { return &geom.Vector3{Z: -1} }
	case "Sphere":
		vs, faces, uvs = Sphere(32, 16)
	case "Cylinder":
		vs, faces, uvs = Cylinder(32)
	case "Capsule":
		vs, faces, uvs = Capsule(32)
	}

	mesh := &scene.Mesh{Name: name}
	sm := &scene.SubMesh{Topology: scene.Triangles}
	for f, face := range faces {
		if len(face) < 3 {
			continue
		}
		var center geom.Vector3
		for _, i := range face {
			center = *center.Add(vs[i])
		}
		center = *center.Scale(1 / float32(len(face)))
		n := vs[face[1]].Sub(vs[face[0]]).Cross(vs[face[2]].Sub(vs[face[0]]))
		reverse := n.Dot(outward(&center)) < 0
		normal := n.Normalize()
		if reverse {
			normal = normal.Scale(-1)
		}
		base := uint32(len(mesh.Vertices))
		for j, i := range face {
			mesh.Vertices = append(mesh.Vertices, *vs[i])
			mesh.Normals = append(mesh.Normals, *normal)
			var uv geom.Vector2
			if f < len(uvs) && j < len(uvs[f]) {
				uv = uvs[f][j]
			}
			mesh.UV = append(mesh.UV, uv)
		}
		for j := 1; j+1 < len(face); j++ {
			if reverse {
				sm.Indices = append(sm.Indices, base, base+uint32(j+1), base+uint32(j))
			} else {
				sm.Indices = append(sm.Indices, base, base+uint32(j), base+uint32(j+1))
			}
		}
	}
	mesh.SubMeshes = []*scene.SubMesh{sm}
	return mesh
}

func Cube() (vs []*geom.Vector3, faces [][]int, uvs [][]geom.Vector2) {
	vs = []*geom.Vector3{
		{X: -0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: -0.5, Y: 0.5, Z: 0.5},
	}
	faces = [][]int{
		{0, 1, 2, 3}, {7, 6, 5, 4},
		{4, 5, 1, 0}, {3, 2, 6, 7},
		{2, 1, 5, 6}, {0, 3, 7, 4},
	}
	uvs = [][]geom.Vector2{
		{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}},
		{{X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
	}
	return
}

func Sphere(sh, sv int) (vs []*geom.Vector3, faces [][]int, uvs [][]geom.Vector2) {
	return sphereInternal(sh, sv, 0, sv, 0)
}

func sphereInternal(sh, sv, t, b, voffset int) (vs []*geom.Vector3, faces [][]int, uvs [][]geom.Vector2) {
	const r = 0.5
	ofs := voffset
	if t > 2 {
		ofs -= (t - 1) * sh
	}
	for i := t; i <= b; i++ {
		if i == 0 {
			vs = append(vs, &geom.Vector3{X: 0, Y: r, Z: 0})
			ofs += 1
			continue
		} else if i == sv {
			vs = append(vs, &geom.Vector3{X: 0, Y: -r, Z: 0})
			continue
		}
		t := float64(i) / float64(sv) * math.Pi
		y := math.Cos(t) * r
		r2 := math.Sin(t) * r
		for j := 0; j < sh; j++ {
			t2 := float64(j) / float64(sh) * 2 * math.Pi
			vs = append(vs, &geom.Vector3{X: float32(math.Cos(t2) * r2), Y: float32(y), Z: float32(math.Sin(t2) * r2)})
		}
	}
	for i := t; i < b; i++ {
		i1 := (i - 1) * sh
		i2 := (i) * sh
		for j := 0; j < sh; j++ {
			j2 := (j + 1) % sh
			if i == 0 {
				faces = append(faces, []int{ofs - 1, i2 + j + ofs, i2 + j2 + ofs})
				uvs = append(uvs, []geom.Vector2{
					{X: float32(j) / float32(sh), Y: float32(i) / float32(sv)},
					{X: float32(j) / float32(sh), Y: float32(i+1) / float32(sv)},
					{X: float32(j+1) / float32(sh), Y: float32(i+1) / float32(sv)},
				})
			} else if i == sv-1 {
				faces = append(faces, []int{i1 + j + ofs, i2 + ofs, i1 + j2 + ofs})
				uvs = append(uvs, []geom.Vector2{
					{X: float32(j) / float32(sh), Y: float32(i) / float32(sv)},
					{X: float32(j) / float32(sh), Y: float32(i+1) / float32(sv)},
					{X: float32(j+1) / float32(sh), Y: float32(i) / float32(sv)},
				})
			} else {
				faces = append(faces, []int{i1 + j + ofs, i2 + j + ofs, i2 + j2 + ofs, i1 + j2 + ofs})
				uvs = append(uvs, []geom.Vector2{
					{X: float32(j) / float32(sh), Y: float32(i) / float32(sv)},
					{X: float32(j) / float32(sh), Y: float32(i+1) / float32(sv)},
					{X: float32(j+1) / float32(sh), Y: float32(i+1) / float32(sv)},
					{X: float32(j+1) / float32(sh), Y: float32(i) / float32(sv)},
				})
			}
		}
	}
	return
}

func Cylinder(s int) (vs []*geom.Vector3, faces [][]int, uvs [][]geom.Vector2) {
	const r = 0.5
	var top []int
	var bottom []int
	var topuv []geom.Vector2

	for i := 0; i < s; i++ {
		t := float64(i) / float64(s) * math.Pi * 2
		vs = append(vs,
			&geom.Vector3{X: float32(math.Cos(t) * r), Y: 1, Z: float32(math.Sin(t) * r)},
			&geom.Vector3{X: float32(math.Cos(t) * r), Y: -1, Z: float32(math.Sin(t) * r)})
		top = append(top, i*2)
		bottom = append(bottom, (s-i-1)*2+1)
		faces = append(faces, []int{i * 2, i*2 + 1, ((i+1)%s)*2 + 1, ((i + 1) % s) * 2})
		uvs = append(uvs, []geom.Vector2{
			{X: 1 - float32(i)/float32(s), Y: 0},
			{X: 1 - float32(i)/float32(s), Y: 1},
			{X: 1 - float32(i+1)/float32(s), Y: 1},
			{X: 1 - float32(i+1)/float32(s), Y: 0},
		})
		topuv = append(topuv, geom.Vector2{X: float32(i) / float32(s), Y: 1})
	}
	faces = append(faces, top, bottom)
	uvs = append(uvs, topuv, topuv)
	return
}

func Capsule(s int) (vs []*geom.Vector3, faces [][]int, uvs [][]geom.Vector2) {
	const r = 0.5
	const h = 1.0

	// cap
	vs1, faces1, uvs1 := sphereInternal(s, 8, 0, 4, len(vs))
	for _, v := range vs1 {
		v.Y += h / 2
	}
	vs = append(vs, vs1...)
	faces = append(faces, faces1...)
	uvs = append(uvs, uvs1...)

	st := len(vs) - s
	for i := 0; i < s; i++ {
		faces = append(faces, []int{st + i, st + i + s, st + (i+1)%s + s, st + (i+1)%s})
		uvs = append(uvs, []geom.Vector2{
			{X: 1 - float32(i)/float32(s), Y: 0},
			{X: 1 - float32(i)/float32(s), Y: 1},
			{X: 1 - float32(i+1)/float32(s), Y: 1},
			{X: 1 - float32(i+1)/float32(s), Y: 0},
		})
	}
	vs1, faces1, uvs1 = sphereInternal(s, 8, 4, 8, len(vs))
	for _, v := range vs1 {
		v.Y -= h / 2
	}
	vs = append(vs, vs1...)
	faces = append(faces, faces1...)
	uvs = append(uvs, uvs1...)
	return
}

func Quad() (vs []*geom.Vector3, faces [][]int, uvs [][]geom.Vector2) {
	vs = []*geom.Vector3{
		{X: -0.5, Y: -0.5},
		{X: 0.5, Y: -0.5},
		{X: -0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
	}
	faces = [][]int{
		{1, 0, 2, 3},
	}
	uvs = [][]geom.Vector2{
		{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
	}
	return
}

func Plane() (vs []*geom.Vector3, faces [][]int, uvs [][]geom.Vector2) {
	vs = []*geom.Vector3{
		{X: -5, Y: 0, Z: -5},
		{X: 5, Y: 0, Z: -5},
		{X: 5, Y: 0, Z: 5},
		{X: -5, Y: 0, Z: 5},
	}
	faces = [][]int{
		{0, 1, 2, 3},
	}
	uvs = [][]geom.Vector2{
		{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
	}
	return
}
