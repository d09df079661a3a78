package unity

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const maxPrefabDepth = 16

var ErrAssetNotFound = errors.New("asset not found")

type sceneLoader struct {
	assets Assets
	log    *zap.Logger
	depth  int
}

// LoadScene loads a scene or prefab including its nested prefab instances.
func LoadScene(assets Assets, sceneAsset *Asset, log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}
	return (&sceneLoader{assets: assets, log: log}).load(sceneAsset)
}

func (l *sceneLoader) load(sceneAsset *Asset) (*Scene, error) {
	if l.depth > maxPrefabDepth {
		return nil, fmt.Errorf("%s: prefab nesting too deep", sceneAsset.Path)
	}
	b, err := ReadAsset(l.assets, sceneAsset)
	if err != nil {
		return nil, err
	}

	scene := newScene(sceneAsset.GUID, sceneAsset.Path)
	var instances []*PrefabInstance
	var instanceIDs []int64

	for _, doc := range ParseYamlDocuments(b) {
		fileID := doc.FileID()
		if doc.Stripped {
			st, err := decodeElement[strippedElement](doc)
			if err == nil {
				scene.stripped[fileID] = st
			}
			continue
		}
		var element interface{}
		switch class := doc.ClassID(); class {
		case ClassGameObject:
			var obj *GameObject
			obj, err = decodeElement[GameObject](doc)
			if obj != nil {
				obj.Scene = scene
			}
			element = obj
		case ClassTransform:
			element, err = decodeComponent[Transform](doc, scene)
		case ClassMeshFilter:
			element, err = decodeComponent[MeshFilter](doc, scene)
		case ClassMeshRenderer:
			element, err = decodeComponent[MeshRenderer](doc, scene)
		case ClassSkinnedMeshRenderer:
			element, err = decodeComponent[SkinnedMeshRenderer](doc, scene)
		case ClassAnimator:
			element, err = decodeComponent[Animator](doc, scene)
		case ClassMonoBehaviour:
			var mb *MonoBehaviour
			mb, err = decodeComponent[MonoBehaviour](doc, scene)
			if mb != nil {
				mb.doc = doc
			}
			element = mb
		case ClassAimConstraint, ClassRotationConstraint, ClassParentConstraint,
			ClassLookAtConstraint, ClassPositionConstraint, ClassScaleConstraint:
			var c *Constraint
			c, err = decodeComponent[Constraint](doc, scene)
			if c != nil {
				c.ClassID = class
			}
			element = c
		case ClassPrefabInstance:
			var inst *PrefabInstance
			inst, err = decodeElement[PrefabInstance](doc)
			if inst != nil {
				instances = append(instances, inst)
				instanceIDs = append(instanceIDs, fileID)
			}
			element = inst
		default:
			continue
		}
		if err != nil {
			l.log.Warn("cannot decode element", zap.String("scene", sceneAsset.Path), zap.Int64("fileID", fileID), zap.Error(err))
			continue
		}
		scene.Elements[fileID] = element
		if c, ok := element.(Component); ok {
			scene.Components = append(scene.Components, c)
		}
	}

	for i, inst := range instances {
		if nested := l.loadInstance(scene, inst); nested != nil {
			scene.instances[instanceIDs[i]] = nested
		}
	}
	l.link(scene, instances, instanceIDs)
	return scene, nil
}

func decodeComponent[T any, PT interface {
	*T
	Component
}](doc *YAMLDoc, scene *Scene) (PT, error) {
	v, err := decodeElement[T](doc)
	if err != nil {
		return nil, err
	}
	c := PT(v)
	c.base().Scene = scene
	c.base().FileID = doc.FileID()
	return c, nil
}

func (l *sceneLoader) loadInstance(scene *Scene, inst *PrefabInstance) *Scene {
	src := l.assets.GetAsset(inst.SourcePrefab.GUID)
	if src == nil {
		l.log.Warn("nested prefab not found", zap.String("scene", scene.Path), zap.String("guid", inst.SourcePrefab.GUID))
		return nil
	}
	if src.Ext() != ".prefab" {
		l.log.Warn("unsupported nested asset", zap.String("scene", scene.Path), zap.String("asset", src.Path))
		return nil
	}
	l.depth++
	nested, err := l.load(src)
	l.depth--
	if err != nil {
		l.log.Warn("cannot load nested prefab", zap.String("asset", src.Path), zap.Error(err))
		return nil
	}

	for _, m := range inst.Modification.Modifications {
		target := nested.GetElement(&Ref{FileID: m.Target.FileID})
		setter, ok := target.(propertySetter)
		if !ok || !setter.setProperty(m.PropertyPath, m.Value, &m.ObjectReference) {
			l.log.Debug("modification ignored", zap.String("asset", src.Path), zap.String("property", m.PropertyPath))
		}
	}
	for _, ref := range inst.Modification.RemovedComponents {
		c, ok := nested.GetElement(&Ref{FileID: ref.FileID}).(Component)
		if !ok {
			continue
		}
		if o := c.GetGameObject(); o != nil {
			o.removeComponent(c)
		}
	}
	return nested
}

// link attaches components to their objects and builds the transform tree.
func (l *sceneLoader) link(scene *Scene, instances []*PrefabInstance, instanceIDs []int64) {
	for _, c := range scene.Components {
		if o := c.GetGameObject(); o != nil {
			o.addComponent(c)
		}
	}

	var transforms []*Transform
	for _, c := range scene.Components {
		if t, ok := c.(*Transform); ok {
			transforms = append(transforms, t)
		}
	}
	for _, t := range transforms {
		for i := range t.Children {
			if child := scene.GetTransform(&t.Children[i]); child != nil {
				t.AddChild(child)
			}
		}
	}
	for _, t := range transforms {
		if !t.Father.IsValid() {
			scene.Roots = append(scene.Roots, t)
		} else if p := scene.GetTransform(&t.Father); p != nil {
			p.AddChild(t)
		}
	}

	for i, inst := range instances {
		nested := scene.instances[instanceIDs[i]]
		if nested == nil {
			continue
		}
		parent := scene.GetTransform(&inst.Modification.TransformParent)
		for _, r := range nested.Roots {
			if parent != nil {
				parent.AddChild(r)
			} else {
				scene.Roots = append(scene.Roots, r)
			}
		}
	}
}
