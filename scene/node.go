// Package scene is the scene graph the simulation renders into: named nodes
// with a local transform, a parent chain and optional mesh buffers.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh holds indexed triangles in the node's local frame
type Mesh struct {
	Vertices []mgl64.Vec3
	Indices  []uint32
}

// Bounds is an axis-aligned box in world space
type Bounds struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

func (b Bounds) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b Bounds) Extend(point mgl64.Vec3) Bounds {
	for i := range 3 {
		b.Min[i] = math.Min(b.Min[i], point[i])
		b.Max[i] = math.Max(b.Max[i], point[i])
	}
	return b
}

func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Bounds) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Node is one element of the scene graph. Rotation is a unit quaternion and
// Scale defaults to one on every axis.
type Node struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
	Mesh     *Mesh

	// Color and Texture tint the node when it is drawn
	Color   uint32
	Texture string
	Visible bool

	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
		Visible:  true,
	}
}

// NewMeshNode returns a node drawing mesh
func NewMeshNode(name string, mesh *Mesh) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	return n
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children; the slice must not be modified
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches child to n, detaching it from its previous parent
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child and reports whether it was a child of n
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// LocalMatrix composes translation, rotation and scale
func (n *Node) LocalMatrix() mgl64.Mat4 {
	return mgl64.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z()).
		Mul4(n.Rotation.Mat4()).
		Mul4(mgl64.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z()))
}

// WorldMatrix walks the parent chain up to the root
func (n *Node) WorldMatrix() mgl64.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// WorldRotation is the product of the rotations along the parent chain.
// It is exact as long as no ancestor carries a non-uniform scale.
func (n *Node) WorldRotation() mgl64.Quat {
	q := n.Rotation
	for p := n.parent; p != nil; p = p.parent {
		q = p.Rotation.Mul(q)
	}
	return q.Normalize()
}

// SetWorldTransform places n so that its world pose is (position, rotation),
// expressed in the frame of its current parent
func (n *Node) SetWorldTransform(position mgl64.Vec3, rotation mgl64.Quat) {
	if n.parent == nil {
		n.Position = position
		n.Rotation = rotation
		return
	}
	inverse := n.parent.WorldMatrix().Inv()
	n.Position = mgl64.TransformCoordinate(position, inverse)
	n.Rotation = n.parent.WorldRotation().Inverse().Mul(rotation).Normalize()
}

// Traverse visits n and its descendants depth first
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Find returns the first node named name in depth-first order, n included
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Meshes returns n and its descendants that carry a non empty mesh
func (n *Node) Meshes() []*Node {
	var meshes []*Node
	n.Traverse(func(node *Node) {
		if node.Mesh != nil && len(node.Mesh.Vertices) > 0 {
			meshes = append(meshes, node)
		}
	})
	return meshes
}

// WorldVertices returns the mesh vertices of n transformed to world space
func (n *Node) WorldVertices() []mgl64.Vec3 {
	if n.Mesh == nil {
		return nil
	}
	m := n.WorldMatrix()
	vertices := make([]mgl64.Vec3, len(n.Mesh.Vertices))
	for i, v := range n.Mesh.Vertices {
		vertices[i] = mgl64.TransformCoordinate(v, m)
	}
	return vertices
}

// WorldBounds covers the world-space vertices of n and all its descendants.
// A subtree without geometry yields empty bounds.
func (n *Node) WorldBounds() Bounds {
	bounds := EmptyBounds()
	for _, mesh := range n.Meshes() {
		for _, v := range mesh.WorldVertices() {
			bounds = bounds.Extend(v)
		}
	}
	return bounds
}
