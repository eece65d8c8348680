package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// maxHullFeaturePoints bounds the contact feature of a mesh used as a hull
const maxHullFeaturePoints = 16

// TriangleMesh is an indexed triangle soup in the collider's local frame.
// On a fixed body it collides triangle by triangle; on a dynamic body it
// collides through the convex hull of its vertices.
type TriangleMesh struct {
	Vertices []mgl64.Vec3
	Indices  []uint32
	bounds   AABB
}

// NewTriangleMesh copies nothing: the slices are owned by the mesh afterwards
func NewTriangleMesh(vertices []mgl64.Vec3, indices []uint32) *TriangleMesh {
	m := &TriangleMesh{Vertices: vertices, Indices: indices, bounds: EmptyAABB()}
	for _, v := range vertices {
		m.bounds = m.bounds.Extend(v)
	}
	return m
}

func (m *TriangleMesh) Type() ShapeType { return ShapeTypeTriangleMesh }

func (m *TriangleMesh) LocalAABB() AABB {
	if m.bounds.IsEmpty() {
		return AABB{}
	}
	return m.bounds
}

// TriangleCount returns the number of complete index triplets
func (m *TriangleMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the local corners of triangle i, or false if an index is out of range
func (m *TriangleMesh) Triangle(i int) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3, bool) {
	ia, ib, ic := int(m.Indices[3*i]), int(m.Indices[3*i+1]), int(m.Indices[3*i+2])
	if ia >= len(m.Vertices) || ib >= len(m.Vertices) || ic >= len(m.Vertices) {
		return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	return m.Vertices[ia], m.Vertices[ib], m.Vertices[ic], true
}

// ComputeMass approximates the volume by the local bounding box
func (m *TriangleMesh) ComputeMass(density float64) float64 {
	size := m.LocalAABB().HalfExtents().Mul(2)
	volume := math.Max(size.X(), 0.01) * math.Max(size.Y(), 0.01) * math.Max(size.Z(), 0.01)

	return density * volume
}

func (m *TriangleMesh) ComputeInertia(mass float64) mgl64.Mat3 {
	box := Box{HalfExtents: m.LocalAABB().HalfExtents()}
	return box.ComputeInertia(mass)
}

func (m *TriangleMesh) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := -math.MaxFloat64
	var support mgl64.Vec3
	for _, v := range m.Vertices {
		if d := v.Dot(direction); d > best {
			best = d
			support = v
		}
	}
	return support
}

// GetContactFeature returns the hull vertices lying on the support plane of direction
func (m *TriangleMesh) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	if len(m.Vertices) == 0 {
		return nil
	}
	dir := direction.Normalize()
	maxDot := m.Support(dir).Dot(dir)
	tolerance := 1e-3 * math.Max(1, m.LocalAABB().HalfExtents().Len())

	feature := make([]mgl64.Vec3, 0, 4)
	for _, v := range m.Vertices {
		if v.Dot(dir) >= maxDot-tolerance {
			feature = append(feature, v)
			if len(feature) == maxHullFeaturePoints {
				break
			}
		}
	}
	return feature
}

// Triangle is a world-space triangle taken from a fixed mesh collider
type Triangle struct {
	A, B, C mgl64.Vec3
	Bounds  AABB
}

func NewTriangle(a, b, c mgl64.Vec3) Triangle {
	return Triangle{A: a, B: b, C: c, Bounds: EmptyAABB().Extend(a).Extend(b).Extend(c)}
}

func (t *Triangle) Normal() mgl64.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	if n.LenSqr() < 1e-18 {
		return mgl64.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

func (t *Triangle) Center() mgl64.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

func (t *Triangle) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	da, db, dc := t.A.Dot(direction), t.B.Dot(direction), t.C.Dot(direction)
	if da >= db && da >= dc {
		return t.A
	}
	if db >= dc {
		return t.B
	}
	return t.C
}

// FeatureWorld returns the whole face when direction is close to the face
// normal, otherwise the vertices on the support plane
func (t *Triangle) FeatureWorld(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()
	if math.Abs(dir.Dot(t.Normal())) > 0.7 {
		return []mgl64.Vec3{t.A, t.B, t.C}
	}

	maxDot := t.SupportWorld(dir).Dot(dir)
	feature := make([]mgl64.Vec3, 0, 2)
	for _, v := range [3]mgl64.Vec3{t.A, t.B, t.C} {
		if v.Dot(dir) >= maxDot-1e-6 {
			feature = append(feature, v)
		}
	}
	return feature
}
