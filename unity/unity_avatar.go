package unity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/binzume/avatarconv/scene"
	"go.uber.org/zap"
)

var ErrNoRootObject = errors.New("no root object")

type LoadOptions struct {
	Logger *zap.Logger
	// RootName selects the avatar root among the scene roots. Default: the first root.
	RootName string
}

// Prefab is a loaded avatar prefab with its snapshot.
type Prefab struct {
	Scene    *Scene
	Avatar   *scene.Avatar
	Settings *ExportSettings

	loader *avatarLoader
}

// LoadPrefab loads a prefab (or scene) and builds the avatar snapshot.
func LoadPrefab(assets Assets, prefabPath string, opts *LoadOptions) (*Prefab, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	asset := assets.GetAssetByPath(prefabPath)
	if asset == nil {
		return nil, fmt.Errorf("%s: %w", prefabPath, ErrAssetNotFound)
	}
	s, err := LoadScene(assets, asset, log)
	if err != nil {
		return nil, err
	}
	var root *Transform
	for _, r := range s.Roots {
		o := r.GetGameObject()
		if o != nil && (opts.RootName == "" || o.Name == opts.RootName) {
			root = r
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%s: %w", prefabPath, ErrNoRootObject)
	}

	l := newAvatarLoader(assets, log)
	p := &Prefab{Scene: s, loader: l}
	p.Avatar, p.Settings = l.build(root)
	log.Info("prefab loaded", zap.String("path", prefabPath), zap.String("root", p.Avatar.Root.Name),
		zap.Int("materials", len(l.materials)), zap.Int("meshes", len(l.meshes)))
	return p, nil
}

// MaterialByPath loads a material asset, sharing textures with the prefab.
func (p *Prefab) MaterialByPath(path string) (*scene.Material, error) {
	asset := p.loader.assets.GetAssetByPath(path)
	if asset == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrAssetNotFound)
	}
	return p.loader.material(&Ref{FileID: 2100000, GUID: asset.GUID})
}

type componentEntry struct {
	obj *scene.Object
	c   Component
}

type avatarLoader struct {
	assets Assets
	log    *zap.Logger

	objects    map[*GameObject]*scene.Object
	transforms map[*Transform]*scene.Object

	materials map[builtinKey]*scene.Material
	meshes    map[builtinKey]*scene.Mesh
	textures  map[string]*scene.Texture
	failed    map[string]bool
	colliders map[*MonoBehaviour]*scene.PhysBoneCollider

	excludedConstraints map[*scene.Object]bool
}

func newAvatarLoader(assets Assets, log *zap.Logger) *avatarLoader {
	return &avatarLoader{
		assets:              assets,
		log:                 log,
		objects:             map[*GameObject]*scene.Object{},
		transforms:          map[*Transform]*scene.Object{},
		materials:           map[builtinKey]*scene.Material{},
		meshes:              map[builtinKey]*scene.Mesh{},
		textures:            map[string]*scene.Texture{},
		failed:              map[string]bool{},
		colliders:           map[*MonoBehaviour]*scene.PhysBoneCollider{},
		excludedConstraints: map[*scene.Object]bool{},
	}
}

func (l *avatarLoader) build(root *Transform) (*scene.Avatar, *ExportSettings) {
	var entries []*componentEntry
	avatar := &scene.Avatar{Root: l.buildObject(root, nil, &entries)}

	var settings *ExportSettings
	for _, e := range entries {
		if mb, ok := e.c.(*MonoBehaviour); ok && classifyBehaviour(mb) == behaviourExportDescriptor && settings == nil {
			settings = l.exportDescriptor(avatar, mb)
		}
	}

	for _, e := range entries {
		switch c := e.c.(type) {
		case *MeshRenderer:
			e.obj.Renderer = l.meshRenderer(e.obj, c)
		case *SkinnedMeshRenderer:
			e.obj.Renderer = l.skinnedMeshRenderer(e.obj, c)
		case *Animator:
			if avatar.Humanoid == nil {
				avatar.Humanoid = l.humanoid(avatar.Root, c)
			}
		case *Constraint:
			if !l.excludedConstraints[e.obj] {
				e.obj.Constraints = append(e.obj.Constraints, l.constraint(c))
			}
		case *MonoBehaviour:
			l.behaviour(avatar, e.obj, c)
		}
	}
	return avatar, settings
}

func (l *avatarLoader) buildObject(tr *Transform, parent *scene.Object, entries *[]*componentEntry) *scene.Object {
	obj := scene.NewObject("")
	obj.Transform = scene.Transform{Position: tr.LocalPosition, Rotation: tr.LocalRotation, Scale: tr.LocalScale}
	if o := tr.GetGameObject(); o != nil {
		obj.Name = o.Name
		obj.Active = o.IsActive != 0
		l.objects[o] = obj
		for _, c := range o.Components() {
			if _, ok := c.(*Transform); !ok {
				*entries = append(*entries, &componentEntry{obj: obj, c: c})
			}
		}
	}
	l.transforms[tr] = obj
	if parent != nil {
		parent.AddChild(obj)
	}
	for _, c := range tr.GetChildren() {
		l.buildObject(c, obj, entries)
	}
	return obj
}

// object resolves a transform, game object or component reference.
func (l *avatarLoader) object(s *Scene, ref *Ref) *scene.Object {
	switch e := s.GetElement(ref).(type) {
	case *Transform:
		return l.transforms[e]
	case *GameObject:
		return l.objects[e]
	case Component:
		if o := e.GetGameObject(); o != nil {
			return l.objects[o]
		}
	}
	return nil
}

func (l *avatarLoader) objectList(s *Scene, refs []Ref) []*scene.Object {
	var objs []*scene.Object
	for i := range refs {
		if o := l.object(s, &refs[i]); o != nil {
			objs = append(objs, o)
		}
	}
	return objs
}

func (l *avatarLoader) texture(guid string) *scene.Texture {
	if t, ok := l.textures[guid]; ok {
		return t
	}
	if l.failed[guid] {
		return nil
	}
	t, err := LoadTexture(l.assets, guid)
	if err != nil {
		l.failed[guid] = true
		l.log.Warn("cannot load texture", zap.String("guid", guid), zap.Error(err))
		return nil
	}
	l.textures[guid] = t
	return t
}

func (l *avatarLoader) material(ref *Ref) (*scene.Material, error) {
	key := builtinKey{ref.FileID, ref.GUID}
	if m, ok := l.materials[key]; ok {
		return m, nil
	}
	mat, err := LoadMaterial(l.assets, ref.GUID)
	if err != nil {
		return nil, err
	}
	m := scene.NewMaterial(mat.Name, ShaderName(l.assets, mat))
	for k, v := range mat.StringTagMap {
		m.Tags[k] = v
	}
	m.Keywords = mat.Keywords()
	for _, p := range mat.SavedProperties.Floats {
		for k, v := range p {
			m.Floats[k] = v
		}
	}
	for _, p := range mat.SavedProperties.Colors {
		for k, v := range p {
			if v != nil {
				m.Colors[k] = v.Vector4()
			}
		}
	}
	for _, p := range mat.SavedProperties.TexEnvs {
		for k, v := range p {
			if v == nil || !v.Texture.IsValid() {
				continue
			}
			if tex := l.texture(v.Texture.GUID); tex != nil {
				m.Textures[k] = &scene.TextureSlot{Texture: tex, Scale: v.Scale, Offset: v.Offset}
			}
		}
	}
	l.materials[key] = m
	return m, nil
}

func (l *avatarLoader) rendererMaterials(obj *scene.Object, r *Renderer) []*scene.Material {
	materials := make([]*scene.Material, len(r.Materials))
	for i := range r.Materials {
		ref := &r.Materials[i]
		if !ref.IsValid() {
			continue
		}
		m, err := l.material(ref)
		if err != nil {
			l.log.Warn("cannot load material", zap.String("object", obj.Name), zap.Stringer("ref", ref), zap.Error(err))
			continue
		}
		materials[i] = m
	}
	return materials
}

func (l *avatarLoader) mesh(obj *scene.Object, ref *Ref) *scene.Mesh {
	if !ref.IsValid() {
		return nil
	}
	key := builtinKey{ref.FileID, ref.GUID}
	if m, ok := l.meshes[key]; ok {
		return m
	}
	var mesh *scene.Mesh
	if IsBuiltinMesh(ref) {
		mesh = GetBuiltinMesh(ref)
	} else {
		m, err := LoadMesh(l.assets, ref)
		if err == nil {
			mesh, err = m.SceneMesh()
		}
		if err != nil {
			l.log.Warn("cannot load mesh", zap.String("object", obj.Name), zap.Stringer("ref", ref), zap.Error(err))
		}
	}
	l.meshes[key] = mesh
	return mesh
}

func (l *avatarLoader) meshRenderer(obj *scene.Object, r *MeshRenderer) *scene.Renderer {
	filter := r.GetMeshFilter()
	if filter == nil {
		return nil
	}
	return &scene.Renderer{
		Enabled:   r.IsEnabled(),
		Mesh:      l.mesh(obj, &filter.Mesh),
		Materials: l.rendererMaterials(obj, &r.Renderer),
	}
}

func (l *avatarLoader) skinnedMeshRenderer(obj *scene.Object, r *SkinnedMeshRenderer) *scene.Renderer {
	bones := make([]*scene.Object, len(r.Bones))
	for i := range r.Bones {
		bones[i] = l.object(r.Scene, &r.Bones[i])
	}
	return &scene.Renderer{
		Enabled:           r.IsEnabled(),
		Skinned:           true,
		Mesh:              l.mesh(obj, &r.Mesh),
		Materials:         l.rendererMaterials(obj, &r.Renderer),
		Bones:             bones,
		BlendShapeWeights: r.BlendShapeWeights,
	}
}

// humanoid reads the bone mapping from the importer settings of the animator avatar.
func (l *avatarLoader) humanoid(root *scene.Object, a *Animator) *scene.Humanoid {
	if !a.Avatar.IsValid() {
		return nil
	}
	asset := l.assets.GetAsset(a.Avatar.GUID)
	if asset == nil {
		l.log.Warn("animator avatar not found", zap.Stringer("ref", &a.Avatar))
		return nil
	}
	meta, err := LoadMetaFile(l.assets, asset)
	if err != nil || meta.ModelImporter == nil {
		l.log.Warn("no humanoid description", zap.String("asset", asset.Path), zap.Error(err))
		return nil
	}
	h := &scene.Humanoid{Bones: map[string]*scene.Object{}}
	for _, b := range meta.ModelImporter.HumanDescription.Human {
		obj := root.Find(b.BoneName)
		if obj == nil {
			l.log.Warn("humanoid bone not found", zap.String("bone", b.HumanName), zap.String("name", b.BoneName))
			continue
		}
		h.Bones[strings.ReplaceAll(b.HumanName, " ", "")] = obj
	}
	return h
}

func (l *avatarLoader) constraint(c *Constraint) *scene.Constraint {
	sc := &scene.Constraint{
		Active:       c.Active != 0 && c.IsEnabled(),
		GlobalWeight: c.Weight,
		AimAxis:      c.AimVector,
		AffectsX:     c.AffectRotationX != 0,
		AffectsY:     c.AffectRotationY != 0,
		AffectsZ:     c.AffectRotationZ != 0,
	}
	for _, s := range c.Sources {
		sc.Sources = append(sc.Sources, scene.ConstraintSource{Target: l.object(c.Scene, &s.SourceTransform), Weight: s.Weight})
	}
	switch c.ClassID {
	case ClassAimConstraint:
		sc.Kind, sc.Component = scene.ConstraintAim, "AimConstraint"
	case ClassRotationConstraint:
		sc.Kind, sc.Component = scene.ConstraintRotation, "RotationConstraint"
	case ClassParentConstraint:
		sc.Component = "ParentConstraint"
		if len(sc.Sources) == 0 {
			sc.Kind = scene.ConstraintFrozenParent
		}
	case ClassLookAtConstraint:
		sc.Component = "LookAtConstraint"
	case ClassPositionConstraint:
		sc.Component = "PositionConstraint"
	case ClassScaleConstraint:
		sc.Component = "ScaleConstraint"
	}
	return sc
}

func (l *avatarLoader) behaviour(avatar *scene.Avatar, obj *scene.Object, mb *MonoBehaviour) {
	var err error
	switch classifyBehaviour(mb) {
	case behaviourPhysBone:
		var pb *scene.PhysBone
		if pb, err = l.physBone(obj, mb); pb != nil {
			obj.PhysBones = append(obj.PhysBones, pb)
		}
	case behaviourPhysBoneCollider:
		_, err = l.collider(mb)
	case behaviourAvatarDescriptor:
		if avatar.Descriptor == nil {
			avatar.Descriptor, err = l.descriptor(mb)
		}
	case behaviourConstraint:
		err = l.vrcConstraint(obj, mb)
	}
	if err != nil {
		l.log.Warn("cannot decode component", zap.String("object", obj.Name), zap.Error(err))
	}
}

func (l *avatarLoader) physBone(obj *scene.Object, mb *MonoBehaviour) (*scene.PhysBone, error) {
	src, err := decodeBehaviour[PhysBone](mb)
	if err != nil {
		return nil, err
	}
	pb := &scene.PhysBone{
		Name:           obj.Name,
		Enabled:        mb.IsEnabled(),
		Owner:          obj,
		Root:           l.object(mb.Scene, &src.RootTransform),
		Ignore:         l.objectList(mb.Scene, src.IgnoreTransforms),
		MultiChildType: scene.MultiChildType(src.MultiChildType),
		LimitType:      scene.LimitType(src.LimitType),

		Pull:           src.Pull,
		Spring:         src.Spring,
		Stiffness:      src.Stiffness,
		Gravity:        src.Gravity,
		GravityFalloff: src.GravityFalloff,
		Immobile:       src.Immobile,
		Radius:         src.Radius,
		MaxAngleX:      src.MaxAngleX,

		PullCurve:      src.PullCurve.SceneCurve(),
		SpringCurve:    src.SpringCurve.SceneCurve(),
		StiffnessCurve: src.StiffnessCurve.SceneCurve(),
		GravityCurve:   src.GravityCurve.SceneCurve(),
		ImmobileCurve:  src.ImmobileCurve.SceneCurve(),
		RadiusCurve:    src.RadiusCurve.SceneCurve(),
		MaxAngleXCurve: src.MaxAngleXCurve.SceneCurve(),
	}
	for i := range src.Colliders {
		target, ok := mb.Scene.GetElement(&src.Colliders[i]).(*MonoBehaviour)
		if !ok {
			continue
		}
		if c, err := l.collider(target); err == nil && c != nil {
			pb.Colliders = append(pb.Colliders, c)
		}
	}
	return pb, nil
}

// collider converts a collider once and attaches it to its owner.
func (l *avatarLoader) collider(mb *MonoBehaviour) (*scene.PhysBoneCollider, error) {
	if c, ok := l.colliders[mb]; ok {
		return c, nil
	}
	owner := l.object(mb.Scene, &mb.GameObject)
	if owner == nil {
		// outside of the avatar
		l.colliders[mb] = nil
		return nil, nil
	}
	src, err := decodeBehaviour[PhysBoneCollider](mb)
	if err != nil {
		return nil, err
	}
	c := &scene.PhysBoneCollider{
		Owner:        owner,
		Root:         l.object(mb.Scene, &src.RootTransform),
		Shape:        scene.ColliderShape(src.ShapeType),
		Radius:       src.Radius,
		Height:       src.Height,
		Position:     src.Position,
		Rotation:     src.Rotation,
		InsideBounds: src.InsideBounds != 0,
	}
	owner.PhysBoneColliders = append(owner.PhysBoneColliders, c)
	l.colliders[mb] = c
	return c, nil
}

func (l *avatarLoader) descriptor(mb *MonoBehaviour) (*scene.AvatarDescriptor, error) {
	src, err := decodeBehaviour[AvatarDescriptor](mb)
	if err != nil {
		return nil, err
	}
	eye := &src.CustomEyeLookSettings
	return &scene.AvatarDescriptor{
		ViewPosition:      src.ViewPosition,
		LipSync:           scene.LipSyncStyle(src.LipSync),
		VisemeRenderer:    l.object(mb.Scene, &src.VisemeSkinnedMesh),
		VisemeBlendShapes: src.VisemeBlendShapes,

		EnableEyeLook:     src.EnableEyeLook != 0,
		EyelidType:        scene.EyelidType(eye.EyelidType),
		EyelidsRenderer:   l.object(mb.Scene, &eye.EyelidsSkinnedMesh),
		EyelidBlendShapes: eye.EyelidsBlendshapes,

		LeftEye:          l.object(mb.Scene, &eye.LeftEye),
		RightEye:         l.object(mb.Scene, &eye.RightEye),
		EyesLookingUp:    eye.EyesLookingUp.rotations(),
		EyesLookingDown:  eye.EyesLookingDown.rotations(),
		EyesLookingLeft:  eye.EyesLookingLeft.rotations(),
		EyesLookingRight: eye.EyesLookingRight.rotations(),
	}, nil
}

func (l *avatarLoader) vrcConstraint(obj *scene.Object, mb *MonoBehaviour) error {
	src, err := decodeBehaviour[VRCConstraint](mb)
	if err != nil {
		return err
	}
	target := obj
	if t := l.object(mb.Scene, &src.TargetTransform); t != nil {
		target = t
	}
	if l.excludedConstraints[target] {
		return nil
	}
	sc := &scene.Constraint{
		Active:       src.IsActive != 0 && mb.IsEnabled(),
		GlobalWeight: src.GlobalWeight,
		AffectsX:     flag(src.AffectsRotationX),
		AffectsY:     flag(src.AffectsRotationY),
		AffectsZ:     flag(src.AffectsRotationZ),
	}
	sc.Kind, sc.Component = src.Kind()
	if src.AimAxis != nil {
		sc.AimAxis = *src.AimAxis
	}
	for _, s := range src.Sources.List() {
		if s == nil {
			continue
		}
		sc.Sources = append(sc.Sources, scene.ConstraintSource{Target: l.object(mb.Scene, &s.SourceTransform), Weight: s.Weight})
	}
	target.Constraints = append(target.Constraints, sc)
	return nil
}

func (l *avatarLoader) expression(p *ExpressionProperty) *scene.Expression {
	if p == nil {
		return nil
	}
	e := &scene.Expression{
		Name:           p.ExpressionName,
		BaseType:       scene.ExpressionBaseType(p.BaseType),
		BlendShapeName: p.BlendShapeName,
		IsBinary:       p.IsBinary != 0,
		OverrideBlink:  overrideName(p.OverrideBlink),
		OverrideLookAt: overrideName(p.OverrideLookAt),
		OverrideMouth:  overrideName(p.OverrideMouth),
	}
	if e.BaseType == scene.ExpressionAnimationClip && p.BlendShapeAnimationClip.IsValid() {
		clip, err := LoadAnimationClip(l.assets, p.BlendShapeAnimationClip.GUID)
		if err != nil {
			l.log.Warn("cannot load animation clip", zap.String("expression", p.ExpressionName), zap.Error(err))
		} else {
			e.Clip = clip.SceneClip()
		}
	}
	return e
}

func (l *avatarLoader) paths(s *Scene, refs []Ref) []string {
	var paths []string
	for _, o := range l.objectList(s, refs) {
		paths = append(paths, o.Path())
	}
	return paths
}

func (l *avatarLoader) exportDescriptor(avatar *scene.Avatar, mb *MonoBehaviour) *ExportSettings {
	src, err := decodeBehaviour[ExportDescriptor](mb)
	if err != nil {
		l.log.Warn("cannot decode export settings", zap.Error(err))
		return nil
	}
	avatar.Meta = src.meta(avatar.Root.Name)
	if src.Thumbnail.IsValid() {
		avatar.Meta.Thumbnail = l.texture(src.Thumbnail.GUID)
	}
	avatar.Expressions = &scene.ExpressionSettings{
		Happy:     l.expression(src.ExpressionPresetHappyBlendShape),
		Angry:     l.expression(src.ExpressionPresetAngryBlendShape),
		Sad:       l.expression(src.ExpressionPresetSadBlendShape),
		Relaxed:   l.expression(src.ExpressionPresetRelaxedBlendShape),
		Surprised: l.expression(src.ExpressionPresetSurprisedBlendShape),
	}
	for _, p := range src.ExpressionCustomBlendShapes {
		if e := l.expression(p); e != nil {
			avatar.Expressions.Custom = append(avatar.Expressions.Custom, e)
		}
	}
	for _, o := range l.objectList(mb.Scene, src.ExcludedConstraintTransforms) {
		l.excludedConstraints[o] = true
	}
	settings := src.settings()
	settings.ExcludedSprings = l.paths(mb.Scene, src.ExcludedSpringBoneTransforms)
	settings.ExcludedColliders = l.paths(mb.Scene, src.ExcludedSpringBoneColliderTransforms)
	return settings
}
