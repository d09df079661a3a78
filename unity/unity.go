package unity

import (
	"strconv"
	"strings"
)

// Class IDs of the serialized types this package understands.
const (
	ClassGameObject          = 1
	ClassTransform           = 4
	ClassMaterial            = 21
	ClassMeshRenderer        = 23
	ClassTexture2D           = 28
	ClassMeshFilter          = 33
	ClassMesh                = 43
	ClassAnimator            = 95
	ClassMonoBehaviour       = 114
	ClassSkinnedMeshRenderer = 137
	ClassPrefabInstance      = 1001
	ClassAimConstraint       = 895512359
	ClassLookAtConstraint    = 1183024399
	ClassParentConstraint    = 1773428102
	ClassPositionConstraint  = 1818360608
	ClassRotationConstraint  = 1818360609
	ClassScaleConstraint     = 1818360610
)

type Ref struct {
	FileID int64  `yaml:"fileID"`
	GUID   string `yaml:"guid"`
	Type   int    `yaml:"type"`
}

func (r *Ref) IsValid() bool {
	return r != nil && r.FileID != 0
}

func (r *Ref) String() string {
	if r == nil {
		return "<nil>"
	}
	if r.GUID == "" {
		return strconv.FormatInt(r.FileID, 10)
	}
	return r.GUID + ":" + strconv.FormatInt(r.FileID, 10)
}

// strippedElement is a placeholder for an object owned by a nested prefab.
type strippedElement struct {
	CorrespondingSourceObject Ref `yaml:"m_CorrespondingSourceObject"`
	PrefabInstance            Ref `yaml:"m_PrefabInstance"`
}

// Scene is a loaded .unity or .prefab file. Nested prefab instances are loaded
// into their own Scene and resolved through stripped placeholders.
type Scene struct {
	GUID string
	Path string
	// Roots are the root transforms in document order, including nested prefab roots.
	Roots []*Transform

	Elements   map[int64]interface{}
	Components []Component

	stripped  map[int64]*strippedElement
	instances map[int64]*Scene
}

func newScene(guid, path string) *Scene {
	return &Scene{
		GUID:      guid,
		Path:      path,
		Elements:  map[int64]interface{}{},
		stripped:  map[int64]*strippedElement{},
		instances: map[int64]*Scene{},
	}
}

// GetElement resolves a local reference. References to stripped objects
// resolve to the object in the nested prefab.
func (s *Scene) GetElement(ref *Ref) interface{} {
	if s == nil || !ref.IsValid() {
		return nil
	}
	if ref.GUID != "" && ref.GUID != s.GUID {
		return nil
	}
	if st, ok := s.stripped[ref.FileID]; ok {
		inst := s.instances[st.PrefabInstance.FileID]
		if inst == nil {
			return nil
		}
		return inst.GetElement(&Ref{FileID: st.CorrespondingSourceObject.FileID})
	}
	return s.Elements[ref.FileID]
}

func (s *Scene) GetTransform(ref *Ref) *Transform {
	t, _ := s.GetElement(ref).(*Transform)
	return t
}

func (s *Scene) GetGameObject(ref *Ref) *GameObject {
	t, _ := s.GetElement(ref).(*GameObject)
	return t
}

// Root returns the first root object.
func (s *Scene) Root() *GameObject {
	for _, r := range s.Roots {
		if o := r.GetGameObject(); o != nil {
			return o
		}
	}
	return nil
}

type GameObject struct {
	Name      string `yaml:"m_Name"`
	IsActive  int    `yaml:"m_IsActive"`
	TagString string `yaml:"m_TagString"`

	Scene      *Scene `yaml:"-"`
	components []Component
}

func (o *GameObject) Components() []Component {
	return o.components
}

func (o *GameObject) GetTransform() *Transform {
	for _, c := range o.components {
		if t, ok := c.(*Transform); ok {
			return t
		}
	}
	return nil
}

func (o *GameObject) addComponent(c Component) {
	o.components = append(o.components, c)
}

func (o *GameObject) removeComponent(c Component) {
	for i, e := range o.components {
		if e == c {
			o.components = append(o.components[:i], o.components[i+1:]...)
			return
		}
	}
}

func (o *GameObject) setProperty(path, value string, ref *Ref) bool {
	switch path {
	case "m_Name":
		o.Name = value
	case "m_IsActive":
		o.IsActive = atoi(value)
	case "m_TagString":
		o.TagString = value
	default:
		return false
	}
	return true
}

// Modification is one property override of a prefab instance.
type Modification struct {
	Target          Ref    `yaml:"target"`
	PropertyPath    string `yaml:"propertyPath"`
	Value           string `yaml:"value"`
	ObjectReference Ref    `yaml:"objectReference"`
}

type PrefabInstance struct {
	Modification struct {
		TransformParent   Ref             `yaml:"m_TransformParent"`
		Modifications     []*Modification `yaml:"m_Modifications"`
		RemovedComponents []Ref           `yaml:"m_RemovedComponents"`
	} `yaml:"m_Modification"`

	SourcePrefab Ref `yaml:"m_SourcePrefab"`
}

type HumanBone struct {
	BoneName  string `yaml:"boneName"`
	HumanName string `yaml:"humanName"`
}

type ModelImporter struct {
	HumanDescription struct {
		Human []*HumanBone `yaml:"human"`
	} `yaml:"humanDescription"`
}

type MetaFile struct {
	FileFormatVersion int            `yaml:"fileFormatVersion"`
	GUID              string         `yaml:"guid"`
	ModelImporter     *ModelImporter `yaml:"ModelImporter"`
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func atof(s string) float32 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 32)
	return float32(v)
}
