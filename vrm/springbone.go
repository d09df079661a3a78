package vrm

// https://github.com/vrm-c/vrm-specification/tree/master/specification/VRMC_springBone-1.0

type SphereShape struct {
	Offset [3]float32 `json:"offset"`
	Radius float32    `json:"radius"`
}

type CapsuleShape struct {
	Offset [3]float32 `json:"offset"`
	Radius float32    `json:"radius"`
	Tail   [3]float32 `json:"tail"`
}

type ColliderShape struct {
	Sphere  *SphereShape  `json:"sphere,omitempty"`
	Capsule *CapsuleShape `json:"capsule,omitempty"`
}

type Collider struct {
	Node       uint32         `json:"node"`
	Shape      ColliderShape  `json:"shape"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type ColliderGroup struct {
	Name      string   `json:"name,omitempty"`
	Colliders []uint32 `json:"colliders"`
}

type SpringJoint struct {
	Node         uint32     `json:"node"`
	HitRadius    float32    `json:"hitRadius"`
	Stiffness    float32    `json:"stiffness"`
	GravityPower float32    `json:"gravityPower"`
	GravityDir   [3]float32 `json:"gravityDir"`
	DragForce    float32    `json:"dragForce"`
}

type Spring struct {
	Name           string         `json:"name,omitempty"`
	Joints         []*SpringJoint `json:"joints"`
	ColliderGroups []uint32       `json:"colliderGroups,omitempty"`
	Center         *uint32        `json:"center,omitempty"`
}

type SpringBone struct {
	SpecVersion    string           `json:"specVersion"`
	Colliders      []*Collider      `json:"colliders,omitempty"`
	ColliderGroups []*ColliderGroup `json:"colliderGroups,omitempty"`
	Springs        []*Spring        `json:"springs,omitempty"`
}

func (s *SpringBone) IsEmpty() bool {
	return s == nil || len(s.Springs) == 0 && len(s.Colliders) == 0
}

// Shapes of VRMC_springBone_extended_collider.

type ExtendedSphereShape struct {
	Offset [3]float32 `json:"offset"`
	Radius float32    `json:"radius"`
	Inside bool       `json:"inside"`
}

type ExtendedCapsuleShape struct {
	Offset [3]float32 `json:"offset"`
	Radius float32    `json:"radius"`
	Tail   [3]float32 `json:"tail"`
	Inside bool       `json:"inside"`
}

type PlaneShape struct {
	Offset [3]float32 `json:"offset"`
	Normal [3]float32 `json:"normal"`
}

type ExtendedColliderShape struct {
	Sphere  *ExtendedSphereShape  `json:"sphere,omitempty"`
	Capsule *ExtendedCapsuleShape `json:"capsule,omitempty"`
	Plane   *PlaneShape           `json:"plane,omitempty"`
}

type ExtendedCollider struct {
	SpecVersion string                `json:"specVersion"`
	Shape       ExtendedColliderShape `json:"shape"`
}
