package converter

import (
	"fmt"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

const farDistance = 10000000

// Chain is an unbranched run of node IDs.
type Chain []uint32

// SplitChains splits the tree under root into maximal unbranched runs in
// depth-first order. A single node run ending at a branch is dropped.
func SplitChains(root uint32, children func(uint32) []uint32) []Chain {
	var chains []Chain
	var walk func(start uint32)
	walk = func(start uint32) {
		run := Chain{start}
		id := start
		for {
			c := children(id)
			switch len(c) {
			case 0:
				chains = append(chains, run)
				return
			case 1:
				id = c[0]
				run = append(run, id)
				continue
			}
			if len(run) > 1 {
				chains = append(chains, run)
			}
			for _, child := range c {
				walk(child)
			}
			return
		}
	}
	walk(root)
	return chains
}

// lowerDepth returns the longest path from id to a leaf.
func lowerDepth(id uint32, children func(uint32) []uint32, memo map[uint32]int) int {
	if d, ok := memo[id]; ok {
		return d
	}
	depth := 0
	for _, c := range children(id) {
		depth = max(depth, lowerDepth(c, children, memo)+1)
	}
	memo[id] = depth
	return depth
}

// depthRatio is upper/(upper+lower), 0 when both are 0.
func depthRatio(upper, lower int) float32 {
	if upper+lower == 0 {
		return 0
	}
	return float32(upper) / float32(upper+lower)
}

type springBoneTranslator struct {
	nodes  *NodeTable
	diag   *diagnostics
	policy DynamicsPolicy

	excludedSprings   map[*scene.Object]bool
	excludedColliders map[*scene.Object]bool
}

type physBoneEntry struct {
	pb        *scene.PhysBone
	root      uint32
	colliders map[int]bool
}

// Convert builds VRMC_springBone from PhysBones and colliders on active nodes.
func (t *springBoneTranslator) Convert() (*vrm.SpringBone, ExtensionSet) {
	ext := NewExtensionSet()
	sb := &vrm.SpringBone{SpecVersion: vrm.SpecVersion}

	colliderIndex := map[*scene.PhysBoneCollider]int{}
	var physBones []*physBoneEntry
	for _, n := range t.nodes.Nodes {
		if n.Object == nil {
			continue
		}
		for _, c := range n.Object.PhysBoneColliders {
			root := c.RootObject()
			if t.excludedColliders[root] {
				continue
			}
			id, ok := t.nodes.ID(root)
			if !ok {
				t.diag.missing("SpringBone", "%v: collider root is missing or inactive", n.Name)
				continue
			}
			collider, extended := convertCollider(id, c)
			if extended {
				ext.Add(vrm.ExtendedColliderExtensionName)
			}
			colliderIndex[c] = len(sb.Colliders)
			sb.Colliders = append(sb.Colliders, collider)
		}
		for _, pb := range n.Object.PhysBones {
			if !pb.Enabled {
				continue
			}
			root := pb.RootObject()
			if t.excludedSprings[root] {
				continue
			}
			id, ok := t.nodes.ID(root)
			if !ok {
				t.diag.missing("SpringBone", "%v: physbone root is missing or inactive", n.Name)
				continue
			}
			physBones = append(physBones, &physBoneEntry{pb: pb, root: id})
		}
	}

	// collider groups
	groupColliders := [][]int{}
	for _, e := range physBones {
		e.colliders = map[int]bool{}
		var group []uint32
		for _, c := range e.pb.Colliders {
			if i, ok := colliderIndex[c]; ok && !e.colliders[i] {
				e.colliders[i] = true
				group = append(group, uint32(i))
			}
		}
		if len(group) == 0 {
			continue
		}
		sb.ColliderGroups = append(sb.ColliderGroups, &vrm.ColliderGroup{Name: physBoneName(e.pb), Colliders: group})
		ids := make([]int, len(group))
		for i, g := range group {
			ids[i] = int(g)
		}
		groupColliders = append(groupColliders, ids)
	}

	for _, e := range physBones {
		var groups []uint32
		for g, colliders := range groupColliders {
			for _, c := range colliders {
				if e.colliders[c] {
					groups = append(groups, uint32(g))
					break
				}
			}
		}
		sb.Springs = append(sb.Springs, t.springs(e, groups)...)
	}

	if !sb.IsEmpty() {
		ext.Add(vrm.SpringBoneExtensionName)
	}
	return sb, ext
}

func physBoneName(pb *scene.PhysBone) string {
	if pb.Name != "" {
		return pb.Name
	}
	if o := pb.RootObject(); o != nil {
		return o.Name
	}
	return "PhysBone"
}

func (t *springBoneTranslator) springs(e *physBoneEntry, groups []uint32) []*vrm.Spring {
	children := func(id uint32) []uint32 {
		var r []uint32
		for _, c := range t.nodes.Node(id).Children {
			if obj := t.nodes.Object(c); obj != nil && !e.pb.IsIgnored(obj) {
				r = append(r, c)
			}
		}
		return r
	}
	chains := SplitChains(e.root, children)
	branched := len(chains) > 1
	if branched && e.pb.MultiChildType == scene.MultiChildIgnore {
		chains = chains[:1]
	}
	name := physBoneName(e.pb)
	memo := map[uint32]int{}
	var springs []*vrm.Spring
	for i, chain := range chains {
		spring := &vrm.Spring{Name: name, ColliderGroups: groups}
		if branched {
			spring.Name = fmt.Sprintf("%s.%d", name, i+1)
		}
		for upper, id := range chain {
			ratio := depthRatio(upper, lowerDepth(id, children, memo))
			spring.Joints = append(spring.Joints, t.policy.Joint(id, evaluateJointParams(e.pb, ratio)))
		}
		springs = append(springs, spring)
	}
	return springs
}

func convertCollider(node uint32, c *scene.PhysBoneCollider) (*vrm.Collider, bool) {
	collider := &vrm.Collider{Node: node}
	far := [3]float32{-farDistance, -farDistance, -farDistance}
	switch c.Shape {
	case scene.ColliderCapsule:
		half := max(0, (c.Height-c.Radius*2)*0.5)
		offset := c.Position.Add(c.Rotation.ApplyTo(&geom.Vector3{Y: -half})).MirrorX().Array()
		tail := c.Position.Add(c.Rotation.ApplyTo(&geom.Vector3{Y: half})).MirrorX().Array()
		if c.InsideBounds {
			collider.Shape.Capsule = &vrm.CapsuleShape{Offset: far, Tail: far}
			collider.Extensions = extendedCollider(vrm.ExtendedColliderShape{
				Capsule: &vrm.ExtendedCapsuleShape{Offset: offset, Radius: c.Radius, Tail: tail, Inside: true},
			})
			return collider, true
		}
		collider.Shape.Capsule = &vrm.CapsuleShape{Offset: offset, Radius: c.Radius, Tail: tail}
	case scene.ColliderPlane:
		normal := c.Axis()
		offset := c.Position.MirrorX().Array()
		collider.Shape.Sphere = &vrm.SphereShape{
			Offset: c.Position.Sub(normal.Scale(farDistance)).MirrorX().Array(),
			Radius: farDistance,
		}
		collider.Extensions = extendedCollider(vrm.ExtendedColliderShape{
			Plane: &vrm.PlaneShape{Offset: offset, Normal: normal.MirrorX().Array()},
		})
		return collider, true
	default:
		offset := c.Position.MirrorX().Array()
		if c.InsideBounds {
			collider.Shape.Sphere = &vrm.SphereShape{Offset: far}
			collider.Extensions = extendedCollider(vrm.ExtendedColliderShape{
				Sphere: &vrm.ExtendedSphereShape{Offset: offset, Radius: c.Radius, Inside: true},
			})
			return collider, true
		}
		collider.Shape.Sphere = &vrm.SphereShape{Offset: offset, Radius: c.Radius}
	}
	return collider, false
}

func extendedCollider(shape vrm.ExtendedColliderShape) map[string]any {
	return map[string]any{
		vrm.ExtendedColliderExtensionName: &vrm.ExtendedCollider{SpecVersion: vrm.ExtendedColliderVersion, Shape: shape},
	}
}
