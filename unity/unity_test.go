package unity

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
)

const (
	guidAvatar    = "aaaa0000000000000000000000000001"
	guidMesh      = "aaaa0000000000000000000000000002"
	guidMaterial  = "aaaa0000000000000000000000000003"
	guidShader    = "aaaa0000000000000000000000000004"
	guidModel     = "aaaa0000000000000000000000000005"
	guidAccessory = "aaaa0000000000000000000000000006"
	guidTexture   = "aaaa0000000000000000000000000007"
)

const avatarPrefab = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!1 &100
GameObject:
  m_ObjectHideFlags: 0
  m_Component:
  - component: {fileID: 400}
  - component: {fileID: 9500}
  - component: {fileID: 11403}
  - component: {fileID: 11404}
  m_Name: Avatar
  m_TagString: Untagged
  m_IsActive: 1
--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
  m_LocalRotation: {x: 0, y: 0, z: 0, w: 1}
  m_LocalPosition: {x: 0, y: 0, z: 0}
  m_LocalScale: {x: 1, y: 1, z: 1}
  m_Children:
  - {fileID: 401}
  - {fileID: 402}
  m_Father: {fileID: 0}
--- !u!95 &9500
Animator:
  m_GameObject: {fileID: 100}
  m_Enabled: 1
  m_Avatar: {fileID: 9000000, guid: aaaa0000000000000000000000000005, type: 3}
--- !u!114 &11403
MonoBehaviour:
  m_GameObject: {fileID: 100}
  m_Enabled: 1
  m_Script: {fileID: 11500000, guid: 0000000000000000000000000000aaaa, type: 3}
  ViewPosition: {x: 0, y: 1.5, z: 0.1}
  lipSync: 3
  VisemeSkinnedMesh: {fileID: 13700}
  VisemeBlendShapes:
  - vrc.v_sil
  - vrc.v_pp
  enableEyeLook: 0
  customEyeLookSettings:
    eyelidType: 0
    eyelidsSkinnedMesh: {fileID: 0}
    eyelidsBlendshapes:
    leftEye: {fileID: 0}
    rightEye: {fileID: 0}
--- !u!114 &11404
MonoBehaviour:
  m_GameObject: {fileID: 100}
  m_Enabled: 1
  m_Script: {fileID: 11500000, guid: 0000000000000000000000000000bbbb, type: 3}
  authors:
  - Alice
  version: 1.0
  licenseUrl: https://vrm.dev/licenses/1.0/
  avatarPermission: 2
  commercialUsage: 1
  creditNotation: 0
  modification: 0
  allowRedistribution: 1
  thumbnail: {fileID: 0}
  expressionPresetHappyBlendShape:
    expressionName:
    baseType: 0
    blendShapeName: smile
    isBinary: 0
    overrideBlink: 1
    overrideLookAt: 0
    overrideMouth: 2
  expressionCustomBlendShapes: []
  excludedSpringBoneTransforms:
  - {fileID: 403}
  excludedSpringBoneColliderTransforms: []
  excludedConstraintTransforms:
  - {fileID: 403}
  enableMToonOutline: 1
  makeAllNodeNamesUnique: 1
--- !u!1 &101
GameObject:
  m_Component:
  - component: {fileID: 401}
  - component: {fileID: 11401}
  m_Name: Hips
  m_IsActive: 1
--- !u!4 &401
Transform:
  m_GameObject: {fileID: 101}
  m_LocalRotation: {x: 0, y: 0, z: 0, w: 1}
  m_LocalPosition: {x: 0, y: 1, z: 0}
  m_LocalScale: {x: 1, y: 1, z: 1}
  m_Children:
  - {fileID: 403}
  m_Father: {fileID: 400}
--- !u!114 &11401
MonoBehaviour:
  m_GameObject: {fileID: 101}
  m_Enabled: 1
  rootTransform: {fileID: 0}
  shapeType: 1
  insideBounds: 1
  radius: 0.1
  height: 0.5
  position: {x: 0, y: 0.1, z: 0}
  rotation: {x: 0, y: 0, z: 0, w: 1}
--- !u!1 &103
GameObject:
  m_Component:
  - component: {fileID: 403}
  - component: {fileID: 11400}
  - component: {fileID: 20000}
  m_Name: Hair
  m_IsActive: 1
--- !u!4 &403
Transform:
  m_GameObject: {fileID: 103}
  m_LocalRotation: {x: 0, y: 0, z: 0, w: 1}
  m_LocalPosition: {x: 0, y: 0.5, z: 0}
  m_LocalScale: {x: 1, y: 1, z: 1}
  m_Children: []
  m_Father: {fileID: 401}
--- !u!114 &11400
MonoBehaviour:
  m_GameObject: {fileID: 103}
  m_Enabled: 1
  rootTransform: {fileID: 0}
  ignoreTransforms: []
  multiChildType: 0
  pull: 0.2
  pullCurve:
    serializedVersion: 2
    m_Curve: []
  spring: 0.3
  stiffness: 0.1
  gravity: 0
  gravityFalloff: 0
  immobile: 0
  radius: 0.05
  limitType: 0
  maxAngleX: 45
  colliders:
  - {fileID: 11401}
--- !u!895512359 &20000
AimConstraint:
  m_GameObject: {fileID: 103}
  m_Enabled: 1
  m_Weight: 1
  m_Active: 1
  m_AimVector: {x: 0, y: 0, z: 1}
  m_Sources:
  - sourceTransform: {fileID: 401}
    weight: 1
--- !u!1 &102
GameObject:
  m_Component:
  - component: {fileID: 402}
  - component: {fileID: 13700}
  - component: {fileID: 11402}
  m_Name: Body
  m_IsActive: 1
--- !u!4 &402
Transform:
  m_GameObject: {fileID: 102}
  m_LocalRotation: {x: 0, y: 0, z: 0, w: 1}
  m_LocalPosition: {x: 0, y: 0, z: 0}
  m_LocalScale: {x: 1, y: 1, z: 1}
  m_Children: []
  m_Father: {fileID: 400}
--- !u!137 &13700
SkinnedMeshRenderer:
  m_GameObject: {fileID: 102}
  m_Enabled: 1
  m_Materials:
  - {fileID: 2100000, guid: aaaa0000000000000000000000000003, type: 2}
  m_Mesh: {fileID: 4300000, guid: aaaa0000000000000000000000000002, type: 2}
  m_Bones:
  - {fileID: 401}
  - {fileID: 403}
  m_BlendShapeWeights:
  - 25
  m_RootBone: {fileID: 401}
--- !u!114 &11402
MonoBehaviour:
  m_GameObject: {fileID: 102}
  m_Enabled: 1
  IsActive: 1
  GlobalWeight: 1
  TargetTransform: {fileID: 0}
  AffectsRotationX: 1
  AffectsRotationY: 0
  AffectsRotationZ: 1
  Sources:
    source0:
      Weight: 0.5
      SourceTransform: {fileID: 401}
    totalLength: 1
    overflowList: []
--- !u!1001 &50000
PrefabInstance:
  m_ObjectHideFlags: 0
  serializedVersion: 2
  m_Modification:
    serializedVersion: 3
    m_TransformParent: {fileID: 401}
    m_Modifications:
    - target: {fileID: 100, guid: aaaa0000000000000000000000000006, type: 3}
      propertyPath: m_Name
      value: Hat
      objectReference: {fileID: 0}
    - target: {fileID: 400, guid: aaaa0000000000000000000000000006, type: 3}
      propertyPath: m_LocalPosition.y
      value: 0.3
      objectReference: {fileID: 0}
    m_RemovedComponents: []
  m_SourcePrefab: {fileID: 100100000, guid: aaaa0000000000000000000000000006, type: 3}
--- !u!4 &60000 stripped
Transform:
  m_CorrespondingSourceObject: {fileID: 400, guid: aaaa0000000000000000000000000006, type: 3}
  m_PrefabInstance: {fileID: 50000}
  m_PrefabAsset: {fileID: 0}
--- !u!1 &104
GameObject:
  m_Component:
  - component: {fileID: 404}
  m_Name: Ribbon
  m_IsActive: 0
--- !u!4 &404
Transform:
  m_GameObject: {fileID: 104}
  m_LocalRotation: {x: 0, y: 0, z: 0, w: 1}
  m_LocalPosition: {x: 0, y: 0, z: 0}
  m_LocalScale: {x: 1, y: 1, z: 1}
  m_Children: []
  m_Father: {fileID: 60000}
`

const accessoryPrefab = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!1 &100
GameObject:
  m_Component:
  - component: {fileID: 400}
  - component: {fileID: 3300}
  - component: {fileID: 2300}
  m_Name: Accessory
  m_IsActive: 1
--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
  m_LocalRotation: {x: 0, y: 0, z: 0, w: 1}
  m_LocalPosition: {x: 0, y: 0, z: 0}
  m_LocalScale: {x: 1, y: 1, z: 1}
  m_Children: []
  m_Father: {fileID: 0}
--- !u!33 &3300
MeshFilter:
  m_GameObject: {fileID: 100}
  m_Mesh: {fileID: 10202, guid: 0000000000000000e000000000000000, type: 0}
--- !u!23 &2300
MeshRenderer:
  m_GameObject: {fileID: 100}
  m_Enabled: 1
  m_Materials:
  - {fileID: 2100000, guid: aaaa0000000000000000000000000003, type: 2}
`

const bodyMaterial = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!21 &2100000
Material:
  serializedVersion: 8
  m_Name: Body
  m_Shader: {fileID: 4800000, guid: aaaa0000000000000000000000000004, type: 3}
  m_ValidKeywords:
  - _ALPHATEST_ON
  m_InvalidKeywords: []
  stringTagMap:
    RenderType: TransparentCutout
  m_SavedProperties:
    serializedVersion: 3
    m_TexEnvs:
    - _MainTex:
        m_Texture: {fileID: 2800000, guid: aaaa0000000000000000000000000007, type: 3}
        m_Scale: {x: 1, y: 1}
        m_Offset: {x: 0, y: 0}
    - _BumpMap:
        m_Texture: {fileID: 0}
        m_Scale: {x: 1, y: 1}
        m_Offset: {x: 0, y: 0}
    m_Floats:
    - _Cutoff: 0.5
    - _lilToonVersion: 43
    m_Colors:
    - _Color: {r: 1, g: 0.5, b: 0.25, a: 1}
`

const modelMeta = `fileFormatVersion: 2
guid: aaaa0000000000000000000000000005
ModelImporter:
  serializedVersion: 21300
  humanDescription:
    serializedVersion: 3
    human:
    - boneName: Hips
      humanName: Hips
      limit:
        min: {x: 0, y: 0, z: 0}
    - boneName: Hair
      humanName: Left Thumb Proximal
    - boneName: Missing
      humanName: Head
`

const meshAssetTemplate = `%%YAML 1.1
%%TAG !u! tag:unity3d.com,2011:
--- !u!43 &4300000
Mesh:
  m_Name: Body
  serializedVersion: 10
  m_SubMeshes:
  - serializedVersion: 2
    firstByte: 0
    indexCount: 3
    topology: 0
    baseVertex: 0
    firstVertex: 0
    vertexCount: 3
  m_Shapes:
    vertices:
    - vertex: {x: 0, y: 0.1, z: 0}
      normal: {x: 0, y: 0, z: 0}
      tangent: {x: 0, y: 0, z: 0}
      index: 2
    shapes:
    - firstVertex: 0
      vertexCount: 1
      hasNormals: 0
      hasTangents: 0
    channels:
    - name: smile
      nameHash: 1
      frameIndex: 0
      frameCount: 1
  m_BindPose:
  - e00: 1
    e01: 0
    e02: 0
    e03: 0
    e10: 0
    e11: 1
    e12: 0
    e13: -1
    e20: 0
    e21: 0
    e22: 1
    e23: 0
    e30: 0
    e31: 0
    e32: 0
    e33: 1
  m_IndexFormat: 0
  m_IndexBuffer: 000001000200
  m_VertexData:
    serializedVersion: 3
    m_VertexCount: 3
    m_Channels:
%s
    m_DataSize: %d
    _typelessdata: %s
`

// meshChannels places position and normal in stream 0, weights and indices in stream 1.
var meshChannels = [channelCount]VertexChannel{
	channelPosition:     {Stream: 0, Offset: 0, Format: formatFloat32, Dimension: 3},
	channelNormal:       {Stream: 0, Offset: 12, Format: formatFloat32, Dimension: 3},
	channelBlendWeight:  {Stream: 1, Offset: 0, Format: formatFloat32, Dimension: 4},
	channelBlendIndices: {Stream: 1, Offset: 16, Format: formatUInt32, Dimension: 4},
}

func buildMeshAsset() string {
	var buf bytes.Buffer
	le := binary.LittleEndian
	f32 := func(v ...float32) {
		for _, f := range v {
			binary.Write(&buf, le, math.Float32bits(f))
		}
	}
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for _, p := range positions {
		f32(p[0], p[1], p[2])
		f32(0, 0, -1)
	}
	// stream 1 starts at a 16 byte boundary
	for buf.Len()%16 != 0 {
		buf.WriteByte(0)
	}
	for i := range positions {
		f32(0.75, 0.25, 0, 0)
		binary.Write(&buf, le, [4]uint32{uint32(i % 2), 1, 0, 0})
	}

	var channels bytes.Buffer
	for _, c := range meshChannels {
		fmt.Fprintf(&channels, "    - stream: %d\n      offset: %d\n      format: %d\n      dimension: %d\n", c.Stream, c.Offset, c.Format, c.Dimension)
	}
	return fmt.Sprintf(meshAssetTemplate, bytes.TrimRight(channels.Bytes(), "\n"), buf.Len(), hex.EncodeToString(buf.Bytes()))
}

func pngData(t *testing.T) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeAsset(t *testing.T, base, path, guid string, data []byte) {
	t.Helper()
	p := filepath.Join(base, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if data != nil {
		if err := os.WriteFile(p, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if guid != "" {
		meta := fmt.Sprintf("fileFormatVersion: 2\nguid: %s\n", guid)
		if err := os.WriteFile(p+".meta", []byte(meta), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func testProject(t *testing.T) Assets {
	base := t.TempDir()
	writeAsset(t, base, "Assets/Avatar/Avatar.prefab", guidAvatar, []byte(avatarPrefab))
	writeAsset(t, base, "Assets/Avatar/Accessory.prefab", guidAccessory, []byte(accessoryPrefab))
	writeAsset(t, base, "Assets/Avatar/Body.asset", guidMesh, []byte(buildMeshAsset()))
	writeAsset(t, base, "Assets/Avatar/Body.mat", guidMaterial, []byte(bodyMaterial))
	writeAsset(t, base, "Assets/Shaders/lts.shader", guidShader, []byte("Shader \"lilToon\"\n{\n}\n"))
	writeAsset(t, base, "Assets/Avatar/Body.png", guidTexture, pngData(t))
	writeAsset(t, base, "Assets/Avatar/Model.fbx", "", []byte("fbx"))
	if err := os.WriteFile(filepath.Join(base, "Assets/Avatar/Model.fbx.meta"), []byte(modelMeta), 0644); err != nil {
		t.Fatal(err)
	}

	assets, err := OpenAssets(filepath.Join(base, "Assets"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { assets.Close() })
	return assets
}

func TestOpenAssets(t *testing.T) {
	assets := testProject(t)

	if len(assets.GetAllAssets()) != 7 {
		t.Error("unexpected asset count: ", len(assets.GetAllAssets()))
	}
	a := assets.GetAssetByPath("Assets/Avatar/Body.mat")
	if a == nil || a.GUID != guidMaterial {
		t.Fatal("asset not found", a)
	}
	if a.Ext() != ".mat" || a.Name() != "Body" {
		t.Error("unexpected name: ", a.Name(), a.Ext())
	}
	if assets.GetAsset(guidModel).Path != "Assets/Avatar/Model.fbx" {
		t.Error("unexpected path: ", assets.GetAsset(guidModel).Path)
	}
}

func TestParseYamlDocuments(t *testing.T) {
	docs := ParseYamlDocuments([]byte(avatarPrefab))
	if len(docs) != 20 {
		t.Fatal("unexpected document count: ", len(docs))
	}
	if docs[0].ClassID() != ClassGameObject || docs[0].FileID() != 100 {
		t.Error("unexpected header: ", docs[0].Tag, docs[0].FileID())
	}
	var stripped []*YAMLDoc
	for _, d := range docs {
		if d.Stripped {
			stripped = append(stripped, d)
		}
	}
	if len(stripped) != 1 || stripped[0].FileID() != 60000 || stripped[0].ClassID() != ClassTransform {
		t.Error("stripped document not detected", stripped)
	}
	if (&YAMLDoc{Tag: "!custom"}).ClassID() != -1 {
		t.Error("unknown tag should not have a class id")
	}
}

func TestLoadScene(t *testing.T) {
	assets := testProject(t)
	s, err := LoadScene(assets, assets.GetAssetByPath("Assets/Avatar/Avatar.prefab"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Roots) != 1 || s.Root().Name != "Avatar" {
		t.Fatal("unexpected roots: ", s.Roots)
	}
	hips := s.GetTransform(&Ref{FileID: 401})
	if hips == nil || len(hips.GetChildren()) != 2 {
		t.Fatal("nested prefab is not attached")
	}
	hat := s.GetTransform(&Ref{FileID: 60000})
	if hat == nil || hat.GetGameObject().Name != "Hat" {
		t.Fatal("stripped transform is not resolved")
	}
	if hat.LocalPosition.Y != 0.3 {
		t.Error("modification is not applied: ", hat.LocalPosition)
	}
	if hat.GetParent() != hips {
		t.Error("unexpected parent")
	}
	if len(hat.GetChildren()) != 1 || hat.GetChildren()[0].GetGameObject().Name != "Ribbon" {
		t.Error("child added to the instance is missing")
	}
}

func TestLoadPrefab(t *testing.T) {
	assets := testProject(t)
	p, err := LoadPrefab(assets, "Assets/Avatar/Avatar.prefab", nil)
	if err != nil {
		t.Fatal(err)
	}
	root := p.Avatar.Root
	if root.Name != "Avatar" || len(root.Children) != 2 {
		t.Fatal("unexpected root: ", root.Name, len(root.Children))
	}
	hips, body, hair, hat := root.Find("Hips"), root.Find("Body"), root.Find("Hair"), root.Find("Hat")
	if hips == nil || body == nil || hair == nil || hat == nil {
		t.Fatal("objects not found")
	}
	if hips.Transform.Position.Y != 1 || hair.Parent != hips || hat.Parent != hips {
		t.Error("unexpected hierarchy")
	}
	if ribbon := root.Find("Ribbon"); ribbon == nil || ribbon.Active || ribbon.Parent != hat {
		t.Error("unexpected ribbon: ", ribbon)
	}

	t.Run("renderer", func(t *testing.T) {
		r := body.Renderer
		if r == nil || !r.Skinned || !r.Enabled {
			t.Fatal("skinned renderer not loaded")
		}
		if len(r.Bones) != 2 || r.Bones[0] != hips || r.Bones[1] != hair {
			t.Error("unexpected bones: ", r.Bones)
		}
		if len(r.BlendShapeWeights) != 1 || r.BlendShapeWeights[0] != 25 {
			t.Error("unexpected weights: ", r.BlendShapeWeights)
		}
		m := r.Mesh
		if m == nil || len(m.Vertices) != 3 || len(m.SubMeshes) != 1 {
			t.Fatal("mesh not loaded: ", m)
		}
		if m.Vertices[1] != (geom.Vector3{X: 1}) || m.Normals[2] != (geom.Vector3{Z: -1}) {
			t.Error("unexpected vertex: ", m.Vertices[1], m.Normals[2])
		}
		bw := m.BoneWeights[1]
		if bw.Index != [4]int{1, 1, 0, 0} || bw.Weight[0] != 0.75 || bw.Weight[1] != 0.25 {
			t.Error("unexpected bone weight: ", bw)
		}
		if len(m.BindPoses) != 1 || m.BindPoses[0][13] != -1 {
			t.Error("unexpected bind pose: ", m.BindPoses)
		}
		if len(m.BlendShapes) != 1 || m.BlendShapes[0].Name != "smile" || m.BlendShapes[0].DeltaVertices[2].Y != 0.1 {
			t.Error("unexpected blend shape: ", m.BlendShapes)
		}
	})

	t.Run("material", func(t *testing.T) {
		mat := body.Renderer.Materials[0]
		if mat == nil || mat.Name != "Body" || mat.Shader != "lilToon" {
			t.Fatal("unexpected material: ", mat)
		}
		if v, _ := mat.Float("_Cutoff"); v != 0.5 {
			t.Error("unexpected _Cutoff: ", v)
		}
		if c, _ := mat.Color("_Color"); c == nil || c.Y != 0.5 {
			t.Error("unexpected _Color: ", c)
		}
		if mat.Tag("RenderType") != "TransparentCutout" || !mat.HasKeyword("_ALPHATEST_ON") {
			t.Error("unexpected tags: ", mat.Tags, mat.Keywords)
		}
		tex := mat.Texture("_MainTex")
		if tex == nil || tex.Texture.MimeType != "image/png" || tex.Texture.Image.Bounds().Dx() != 2 {
			t.Error("texture not loaded: ", tex)
		}
		if mat.Texture("_BumpMap") != nil {
			t.Error("empty texture slot should be skipped")
		}
		if hat.Renderer == nil || hat.Renderer.Materials[0] != mat {
			t.Error("materials should be shared")
		}
		if hat.Renderer.Mesh == nil || hat.Renderer.Mesh.Name != "Cube" {
			t.Error("builtin mesh not loaded")
		}
		m, err := p.MaterialByPath("Assets/Avatar/Body.mat")
		if err != nil || m != mat {
			t.Error("MaterialByPath: ", m, err)
		}
	})

	t.Run("physbone", func(t *testing.T) {
		if len(hair.PhysBones) != 1 {
			t.Fatal("physbone not loaded")
		}
		pb := hair.PhysBones[0]
		if pb.Owner != hair || pb.Pull != 0.2 || pb.Spring != 0.3 || pb.MaxAngleX != 45 || pb.PullCurve != nil {
			t.Error("unexpected physbone: ", pb)
		}
		if len(pb.Colliders) != 1 || len(hips.PhysBoneColliders) != 1 || pb.Colliders[0] != hips.PhysBoneColliders[0] {
			t.Fatal("collider not linked")
		}
		c := pb.Colliders[0]
		if c.Shape != scene.ColliderCapsule || !c.InsideBounds || c.Height != 0.5 || c.Position.Y != 0.1 {
			t.Error("unexpected collider: ", c)
		}
	})

	t.Run("constraint", func(t *testing.T) {
		if len(hair.Constraints) != 0 {
			t.Error("excluded constraint was loaded")
		}
		if len(body.Constraints) != 1 {
			t.Fatal("constraint not loaded")
		}
		c := body.Constraints[0]
		if c.Kind != scene.ConstraintRotation || !c.Active || !c.AffectsX || c.AffectsY || !c.AffectsZ {
			t.Error("unexpected constraint: ", c)
		}
		if len(c.Sources) != 1 || c.Sources[0].Target != hips || c.Sources[0].Weight != 0.5 {
			t.Error("unexpected sources: ", c.Sources)
		}
	})

	t.Run("descriptor", func(t *testing.T) {
		d := p.Avatar.Descriptor
		if d == nil {
			t.Fatal("descriptor not loaded")
		}
		if d.LipSync != scene.LipSyncVisemeBlendShape || d.VisemeRenderer != body || d.ViewPosition.Y != 1.5 {
			t.Error("unexpected descriptor: ", d)
		}
		if len(d.VisemeBlendShapes) != 2 || d.VisemeBlendShapes[1] != "vrc.v_pp" {
			t.Error("unexpected visemes: ", d.VisemeBlendShapes)
		}
	})

	t.Run("humanoid", func(t *testing.T) {
		h := p.Avatar.Humanoid
		if h == nil {
			t.Fatal("humanoid not loaded")
		}
		if h.Bone("Hips") != hips || h.Bone("LeftThumbProximal") != hair {
			t.Error("unexpected bones: ", h.Bones)
		}
		if h.Bone("Head") != nil {
			t.Error("missing bone should be skipped")
		}
	})

	t.Run("export settings", func(t *testing.T) {
		meta := p.Avatar.Meta
		if meta == nil || meta.Name != "Avatar" || len(meta.Authors) != 1 || meta.Version != "1.0" {
			t.Fatal("unexpected meta: ", meta)
		}
		if meta.AvatarPermission != "everyone" || meta.CommercialUsage != "personalProfit" || meta.AllowRedistribution {
			t.Error("unexpected license: ", meta)
		}
		happy := p.Avatar.Expressions.Happy
		if !happy.IsValid() || happy.BlendShapeName != "smile" || happy.OverrideBlink != "block" || happy.OverrideMouth != "blend" {
			t.Error("unexpected expression: ", happy)
		}
		s := p.Settings
		if s == nil || !s.EnableOutline || s.EnableRimLight || !s.UniqueNodeNames {
			t.Fatal("unexpected settings: ", s)
		}
		if len(s.ExcludedSprings) != 1 || s.ExcludedSprings[0] != "Avatar/Hips/Hair" {
			t.Error("unexpected exclusions: ", s.ExcludedSprings)
		}
	})
}

func TestLoadTexture(t *testing.T) {
	assets := testProject(t)

	tex, err := LoadTexture(assets, guidTexture)
	if err != nil {
		t.Fatal(err)
	}
	if tex.MimeType != "image/png" || len(tex.Data) == 0 {
		t.Error("png should keep its encoded bytes: ", tex.MimeType)
	}
	if tex.Image.Bounds().Dx() != 2 {
		t.Error("unexpected size: ", tex.Image.Bounds())
	}
	if r, _, _, _ := tex.Image.At(0, 0).RGBA(); r != 0xffff {
		t.Error("unexpected pixel: ", tex.Image.At(0, 0))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	if _, format, err := decodeImage(buf.Bytes(), ".jpg"); err != nil || format != "jpeg" {
		t.Error("jpeg not decoded: ", format, err)
	}
	if _, _, err := decodeImage([]byte("not an image"), ".png"); err == nil {
		t.Error("expected error")
	}
}

func TestLoadPrefab_NotFound(t *testing.T) {
	assets := testProject(t)
	if _, err := LoadPrefab(assets, "Assets/Missing.prefab", nil); err == nil {
		t.Error("expected error")
	}
	if _, err := LoadPrefab(assets, "Assets/Avatar/Avatar.prefab", &LoadOptions{RootName: "Other"}); err == nil {
		t.Error("expected ErrNoRootObject")
	}
}

func TestHalf(t *testing.T) {
	cases := map[uint16]float32{
		0x0000: 0,
		0x3c00: 1,
		0xc000: -2,
		0x3800: 0.5,
		0x7bff: 65504,
		0x0001: 1.0 / 16777216,
	}
	for in, want := range cases {
		if got := half(in); got != want {
			t.Errorf("half(%#04x) = %v, want %v", in, got, want)
		}
	}
}

func TestVRCConstraintSources(t *testing.T) {
	s := &VRCConstraintSources{
		TotalLength: 3,
		Items: map[string]*VRCConstraintSource{
			"source1": {Weight: 2},
			"source0": {Weight: 1},
			"source2": {Weight: 3},
			"source3": {Weight: 4},
		},
	}
	list := s.List()
	if len(list) != 3 {
		t.Fatal("unexpected length: ", len(list))
	}
	for i, src := range list {
		if src.Weight != float32(i+1) {
			t.Error("unexpected order: ", i, src.Weight)
		}
	}
}

func TestGetBuiltinMesh(t *testing.T) {
	for fileID, name := range map[int64]string{10202: "Cube", 10207: "Sphere", 10209: "Plane", 10210: "Quad"} {
		ref := &Ref{FileID: fileID, GUID: builtinExtraGUID}
		if !IsBuiltinMesh(ref) {
			t.Fatal("not a builtin mesh: ", name)
		}
		m := GetBuiltinMesh(ref)
		if m == nil || m.Name != name {
			t.Fatal("unexpected mesh: ", name)
		}
		indices := m.SubMeshes[0].Indices
		if len(indices)%3 != 0 || len(m.Normals) != len(m.Vertices) {
			t.Fatal("invalid mesh: ", name)
		}
		for i := 0; i < len(indices); i += 3 {
			a, b, c := m.Vertices[indices[i]], m.Vertices[indices[i+1]], m.Vertices[indices[i+2]]
			n := b.Sub(&a).Cross(c.Sub(&a))
			if n.Dot(&m.Normals[indices[i]]) < 0 {
				t.Errorf("%s: triangle %d faces inward", name, i/3)
				break
			}
		}
	}
	if GetBuiltinMesh(&Ref{FileID: 1, GUID: builtinExtraGUID}) != nil {
		t.Error("unknown builtin mesh")
	}
}
