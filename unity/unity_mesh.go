package unity

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
)

var ErrUnsupportedMesh = errors.New("unsupported mesh")

type SubMeshDesc struct {
	FirstByte   int `yaml:"firstByte"`
	IndexCount  int `yaml:"indexCount"`
	Topology    int `yaml:"topology"`
	BaseVertex  int `yaml:"baseVertex"`
	FirstVertex int `yaml:"firstVertex"`
	VertexCount int `yaml:"vertexCount"`
}

type BlendShapeVertex struct {
	Vertex  geom.Vector3 `yaml:"vertex"`
	Normal  geom.Vector3 `yaml:"normal"`
	Tangent geom.Vector3 `yaml:"tangent"`
	Index   int          `yaml:"index"`
}

type BlendShapeFrame struct {
	FirstVertex int `yaml:"firstVertex"`
	VertexCount int `yaml:"vertexCount"`
	HasNormals  int `yaml:"hasNormals"`
	HasTangents int `yaml:"hasTangents"`
}

type BlendShapeChannel struct {
	Name       string `yaml:"name"`
	FrameIndex int    `yaml:"frameIndex"`
	FrameCount int    `yaml:"frameCount"`
}

type VertexChannel struct {
	Stream    int `yaml:"stream"`
	Offset    int `yaml:"offset"`
	Format    int `yaml:"format"`
	Dimension int `yaml:"dimension"`
}

// Mesh is a text serialized Mesh asset.
type Mesh struct {
	Name      string         `yaml:"m_Name"`
	SubMeshes []*SubMeshDesc `yaml:"m_SubMeshes"`
	Shapes    struct {
		Vertices []*BlendShapeVertex  `yaml:"vertices"`
		Shapes   []*BlendShapeFrame   `yaml:"shapes"`
		Channels []*BlendShapeChannel `yaml:"channels"`
	} `yaml:"m_Shapes"`
	BindPose    []map[string]float32 `yaml:"m_BindPose"`
	IndexFormat int                  `yaml:"m_IndexFormat"`
	IndexBuffer string               `yaml:"m_IndexBuffer"`
	Skin        []map[string]float32 `yaml:"m_Skin"`
	VertexData  struct {
		VertexCount int              `yaml:"m_VertexCount"`
		Channels    []*VertexChannel `yaml:"m_Channels"`
		DataSize    int              `yaml:"m_DataSize"`
		Data        string           `yaml:"_typelessdata"`
	} `yaml:"m_VertexData"`
}

// Vertex attribute formats.
const (
	formatFloat32 = iota
	formatFloat16
	formatUNorm8
	formatSNorm8
	formatUNorm16
	formatSNorm16
	formatUInt8
	formatSInt8
	formatUInt16
	formatSInt16
	formatUInt32
	formatSInt32
)

var formatSize = [...]int{4, 2, 1, 1, 2, 2, 1, 1, 2, 2, 4, 4}

// Vertex channels.
const (
	channelPosition = iota
	channelNormal
	channelTangent
	channelColor
	channelUV0
	channelUV1
	channelBlendWeight   = 12
	channelBlendIndices  = 13
	channelCount         = 14
	legacyChannelCount   = 8
	legacyChannelColor   = 2
	legacyChannelUV0     = 3
	legacyChannelUV1     = 4
	legacyChannelTangent = 7
)

func LoadMesh(assets Assets, ref *Ref) (*Mesh, error) {
	asset := assets.GetAsset(ref.GUID)
	if asset == nil {
		return nil, fmt.Errorf("mesh %v: %w", ref, ErrAssetNotFound)
	}
	if ext := asset.Ext(); ext != ".asset" && ext != ".mesh" {
		return nil, fmt.Errorf("%s: %w", asset.Path, ErrUnsupportedMesh)
	}
	b, err := ReadAsset(assets, asset)
	if err != nil {
		return nil, err
	}
	var found *YAMLDoc
	for _, doc := range ParseYamlDocuments(b) {
		if doc.ClassID() != ClassMesh {
			continue
		}
		if found == nil || doc.FileID() == ref.FileID {
			found = doc
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", asset.Path, ErrUnsupportedMesh)
	}
	return decodeElement[Mesh](found)
}

func half(b uint16) float32 {
	sign := uint32(b>>15) << 31
	exp := uint32(b>>10) & 0x1f
	frac := uint32(b & 0x3ff)
	switch {
	case exp == 0 && frac == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// subnormal
		return float32(frac) / 1024 / 16384 * (1 - 2*float32(b>>15))
	case exp == 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | frac<<13)
	}
	return math.Float32frombits(sign | (exp+112)<<23 | frac<<13)
}

func readComponent(data []byte, format int) float32 {
	le := binary.LittleEndian
	switch format {
	case formatFloat32:
		return math.Float32frombits(le.Uint32(data))
	case formatFloat16:
		return half(le.Uint16(data))
	case formatUNorm8:
		return float32(data[0]) / 255
	case formatSNorm8:
		return float32(math.Max(float64(int8(data[0]))/127, -1))
	case formatUNorm16:
		return float32(le.Uint16(data)) / 65535
	case formatSNorm16:
		return float32(math.Max(float64(int16(le.Uint16(data)))/32767, -1))
	case formatUInt8:
		return float32(data[0])
	case formatSInt8:
		return float32(int8(data[0]))
	case formatUInt16:
		return float32(le.Uint16(data))
	case formatSInt16:
		return float32(int16(le.Uint16(data)))
	case formatUInt32:
		return float32(le.Uint32(data))
	case formatSInt32:
		return float32(int32(le.Uint32(data)))
	}
	return 0
}

type vertexReader struct {
	data     []byte
	channels []*VertexChannel
	offsets  []int
	strides  []int
	count    int
}

func newVertexReader(m *Mesh) (*vertexReader, error) {
	data, err := hex.DecodeString(strings.TrimSpace(m.VertexData.Data))
	if err != nil {
		return nil, fmt.Errorf("vertex data: %w", err)
	}
	r := &vertexReader{data: data, channels: m.VertexData.Channels, count: m.VertexData.VertexCount}
	streams := 0
	for _, c := range r.channels {
		if c.Dimension&0xf > 0 && c.Stream+1 > streams {
			streams = c.Stream + 1
		}
	}
	r.strides = make([]int, streams)
	for _, c := range r.channels {
		dim := c.Dimension & 0xf
		if dim == 0 || c.Format < 0 || c.Format >= len(formatSize) {
			continue
		}
		if end := c.Offset + formatSize[c.Format]*dim; end > r.strides[c.Stream] {
			r.strides[c.Stream] = end
		}
	}
	r.offsets = make([]int, streams)
	offset := 0
	for s := range r.strides {
		r.offsets[s] = offset
		offset += r.strides[s] * r.count
		offset = (offset + 15) &^ 15
	}
	return r, nil
}

func (r *vertexReader) has(channel int) bool {
	return channel < len(r.channels) && r.channels[channel].Dimension&0xf > 0 &&
		r.channels[channel].Format < len(formatSize)
}

// read returns up to 4 components of a channel for vertex i.
func (r *vertexReader) read(channel, i int) [4]float32 {
	var v [4]float32
	c := r.channels[channel]
	size := formatSize[c.Format]
	pos := r.offsets[c.Stream] + r.strides[c.Stream]*i + c.Offset
	for d := 0; d < c.Dimension&0xf && d < 4; d++ {
		p := pos + size*d
		if p+size > len(r.data) {
			break
		}
		v[d] = readComponent(r.data[p:], c.Format)
	}
	return v
}

func (m *Mesh) indices() ([]uint32, error) {
	data, err := hex.DecodeString(strings.TrimSpace(m.IndexBuffer))
	if err != nil {
		return nil, fmt.Errorf("index buffer: %w", err)
	}
	if m.IndexFormat == 1 {
		indices := make([]uint32, len(data)/4)
		for i := range indices {
			indices[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		return indices, nil
	}
	indices := make([]uint32, len(data)/2)
	for i := range indices {
		indices[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return indices, nil
}

func (m *Mesh) subMeshes(indices []uint32) []*scene.SubMesh {
	indexSize := 2
	if m.IndexFormat == 1 {
		indexSize = 4
	}
	var subMeshes []*scene.SubMesh
	for _, desc := range m.SubMeshes {
		first := desc.FirstByte / indexSize
		end := first + desc.IndexCount
		if first > len(indices) {
			first = len(indices)
		}
		if end > len(indices) {
			end = len(indices)
		}
		src := indices[first:end]
		sm := &scene.SubMesh{Topology: scene.Triangles}
		switch desc.Topology {
		case 2: // quads
			for i := 0; i+3 < len(src); i += 4 {
				sm.Indices = append(sm.Indices, src[i], src[i+1], src[i+2], src[i], src[i+2], src[i+3])
			}
		case 3:
			sm.Topology = scene.Lines
		case 4:
			sm.Topology = scene.LineStrip
		case 5:
			sm.Topology = scene.Points
		}
		if sm.Indices == nil {
			sm.Indices = append([]uint32(nil), src...)
		}
		for i := range sm.Indices {
			sm.Indices[i] += uint32(desc.BaseVertex)
		}
		subMeshes = append(subMeshes, sm)
	}
	return subMeshes
}

// bindPose converts the row-major e00..e33 fields.
func bindPose(e map[string]float32) geom.Matrix4 {
	var mat geom.Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			mat[c*4+r] = e[fmt.Sprintf("e%d%d", r, c)]
		}
	}
	return mat
}

// SceneMesh decodes the vertex data.
func (m *Mesh) SceneMesh() (*scene.Mesh, error) {
	r, err := newVertexReader(m)
	if err != nil {
		return nil, err
	}
	indices, err := m.indices()
	if err != nil {
		return nil, err
	}
	n := r.count
	out := &scene.Mesh{Name: m.Name, SubMeshes: m.subMeshes(indices)}

	colorCh, uv0Ch, uv1Ch, tangentCh := channelColor, channelUV0, channelUV1, channelTangent
	if len(r.channels) == legacyChannelCount {
		colorCh, uv0Ch, uv1Ch, tangentCh = legacyChannelColor, legacyChannelUV0, legacyChannelUV1, legacyChannelTangent
	}

	if r.has(channelPosition) {
		out.Vertices = make([]geom.Vector3, n)
		for i := range out.Vertices {
			v := r.read(channelPosition, i)
			out.Vertices[i] = geom.Vector3{X: v[0], Y: v[1], Z: v[2]}
		}
	}
	if r.has(channelNormal) {
		out.Normals = make([]geom.Vector3, n)
		for i := range out.Normals {
			v := r.read(channelNormal, i)
			out.Normals[i] = geom.Vector3{X: v[0], Y: v[1], Z: v[2]}
		}
	}
	if r.has(tangentCh) {
		out.Tangents = make([]geom.Vector4, n)
		for i := range out.Tangents {
			v := r.read(tangentCh, i)
			out.Tangents[i] = geom.Vector4{X: v[0], Y: v[1], Z: v[2], W: v[3]}
		}
	}
	if r.has(colorCh) {
		out.Colors = make([]geom.Vector4, n)
		for i := range out.Colors {
			v := r.read(colorCh, i)
			out.Colors[i] = geom.Vector4{X: v[0], Y: v[1], Z: v[2], W: v[3]}
		}
	}
	if r.has(uv0Ch) {
		out.UV = make([]geom.Vector2, n)
		for i := range out.UV {
			v := r.read(uv0Ch, i)
			out.UV[i] = geom.Vector2{X: v[0], Y: v[1]}
		}
	}
	if r.has(uv1Ch) {
		out.UV2 = make([]geom.Vector2, n)
		for i := range out.UV2 {
			v := r.read(uv1Ch, i)
			out.UV2[i] = geom.Vector2{X: v[0], Y: v[1]}
		}
	}

	if r.has(channelBlendIndices) && len(r.channels) == channelCount {
		out.BoneWeights = make([]scene.BoneWeight, n)
		hasWeights := r.has(channelBlendWeight)
		dim := r.channels[channelBlendIndices].Dimension & 0xf
		for i := range out.BoneWeights {
			idx := r.read(channelBlendIndices, i)
			w := [4]float32{1}
			if hasWeights {
				w = r.read(channelBlendWeight, i)
			}
			bw := &out.BoneWeights[i]
			for j := 0; j < dim && j < 4; j++ {
				bw.Index[j] = int(idx[j])
				bw.Weight[j] = w[j]
			}
		}
	} else if len(m.Skin) == n {
		out.BoneWeights = make([]scene.BoneWeight, n)
		for i, s := range m.Skin {
			bw := &out.BoneWeights[i]
			for j := 0; j < 4; j++ {
				bw.Index[j] = int(s[fmt.Sprintf("boneIndex[%d]", j)])
				bw.Weight[j] = s[fmt.Sprintf("weight[%d]", j)]
			}
		}
	}

	for _, e := range m.BindPose {
		out.BindPoses = append(out.BindPoses, bindPose(e))
	}

	for _, ch := range m.Shapes.Channels {
		bs := &scene.BlendShape{Name: ch.Name}
		out.BlendShapes = append(out.BlendShapes, bs)
		if ch.FrameCount == 0 || ch.FrameIndex >= len(m.Shapes.Shapes) {
			continue
		}
		// Only the first frame is exported.
		frame := m.Shapes.Shapes[ch.FrameIndex]
		bs.DeltaVertices = make([]geom.Vector3, n)
		if frame.HasNormals != 0 {
			bs.DeltaNormals = make([]geom.Vector3, n)
		}
		for i := frame.FirstVertex; i < frame.FirstVertex+frame.VertexCount && i < len(m.Shapes.Vertices); i++ {
			v := m.Shapes.Vertices[i]
			if v.Index < 0 || v.Index >= n {
				continue
			}
			bs.DeltaVertices[v.Index] = v.Vertex
			if bs.DeltaNormals != nil {
				bs.DeltaNormals[v.Index] = v.Normal
			}
		}
	}
	return out, nil
}
