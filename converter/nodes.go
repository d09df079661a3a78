package converter

import (
	"fmt"

	"github.com/binzume/avatarconv/scene"
	"github.com/qmuntal/gltf"
	"golang.org/x/text/unicode/norm"
)

// Node is a flattened scene node in glTF space.
type Node struct {
	ID       uint32
	Object   *scene.Object
	Name     string
	Parent   *uint32
	Children []uint32
	Depth    int

	Translation [3]float32
	Rotation    [4]float32
	Scale       [3]float32
}

// NodeTable assigns dense pre-order IDs to the active objects under the root.
type NodeTable struct {
	Nodes []*Node
	ids   map[*scene.Object]uint32

	names   map[string]bool
	counter map[string]int
	unique  bool
}

func BuildNodeTable(root *scene.Object, uniqueNames bool) *NodeTable {
	t := &NodeTable{
		ids:     map[*scene.Object]uint32{},
		names:   map[string]bool{},
		counter: map[string]int{},
		unique:  uniqueNames,
	}
	if root != nil {
		t.visit(root, nil, 0)
	}
	return t
}

func (t *NodeTable) visit(obj *scene.Object, parent *uint32, depth int) {
	tr := &obj.Transform
	node := t.add(obj.Name, parent)
	node.Object = obj
	node.Depth = depth
	node.Translation = tr.Position.MirrorX().Array()
	node.Rotation = tr.Rotation.MirrorX().Array()
	node.Scale = tr.Scale.Array()
	t.ids[obj] = node.ID

	for _, c := range obj.Children {
		if c.Active {
			t.visit(c, gltf.Index(node.ID), depth+1)
		}
	}
}

func (t *NodeTable) add(name string, parent *uint32) *Node {
	node := &Node{
		ID:          uint32(len(t.Nodes)),
		Name:        t.makeName(name),
		Parent:      parent,
		Rotation:    [4]float32{0, 0, 0, 1},
		Scale:       [3]float32{1, 1, 1},
		Translation: [3]float32{0, 0, 0},
	}
	t.Nodes = append(t.Nodes, node)
	if parent != nil {
		p := t.Nodes[*parent]
		p.Children = append(p.Children, node.ID)
		node.Depth = p.Depth + 1
	}
	return node
}

func (t *NodeTable) makeName(name string) string {
	name = norm.NFC.String(name)
	if !t.unique {
		return name
	}
	if !t.names[name] {
		t.names[name] = true
		return name
	}
	n := t.counter[name]
	for {
		n++
		candidate := fmt.Sprintf("%s_%d", name, n)
		if !t.names[candidate] {
			t.counter[name] = n
			t.names[candidate] = true
			return candidate
		}
	}
}

// AddExtra appends a node that has no source object. Must be called after
// all objects were visited so pre-order IDs stay dense.
func (t *NodeTable) AddExtra(name string, parent uint32) uint32 {
	return t.add(name, &parent).ID
}

func (t *NodeTable) ID(obj *scene.Object) (uint32, bool) {
	if obj == nil {
		return 0, false
	}
	id, ok := t.ids[obj]
	return id, ok
}

func (t *NodeTable) Node(id uint32) *Node {
	if int(id) >= len(t.Nodes) {
		return nil
	}
	return t.Nodes[id]
}

func (t *NodeTable) Len() int {
	return len(t.Nodes)
}

// Object returns the source object of the node or nil.
func (t *NodeTable) Object(id uint32) *scene.Object {
	if n := t.Node(id); n != nil {
		return n.Object
	}
	return nil
}

func (t *NodeTable) FindByName(name string) (uint32, bool) {
	for _, n := range t.Nodes {
		if n.Name == name {
			return n.ID, true
		}
	}
	return 0, false
}

// GLTFNodes builds one gltf.Node per table entry.
func (t *NodeTable) GLTFNodes() []*gltf.Node {
	nodes := make([]*gltf.Node, len(t.Nodes))
	for i, n := range t.Nodes {
		nodes[i] = &gltf.Node{
			Name:        n.Name,
			Children:    append([]uint32(nil), n.Children...),
			Translation: n.Translation,
			Rotation:    n.Rotation,
			Scale:       n.Scale,
		}
	}
	return nodes
}
