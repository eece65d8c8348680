package epa

import (
	"fmt"
	"sync"

	"github.com/akmonengine/farmtruck/physics/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// PolytopeBuilder keeps the faces of the expanding polytope and the scratch
// buffers used while adding a point. Builders are pooled and reused.
type PolytopeBuilder struct {
	faces   []Face
	edges   []edge
	visible []int
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces:   make([]Face, 0, polytopeInitialCapacity),
			edges:   make([]edge, 0, polytopeInitialCapacity),
			visible: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.edges = b.edges[:0]
	b.visible = b.visible[:0]
}

// BuildInitialFaces turns the GJK tetrahedron into four outward faces
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return fmt.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	p := simplex.Points
	candidates := [4]Face{
		newFace(p[0], p[1], p[2], p[3]),
		newFace(p[0], p[2], p[3], p[1]),
		newFace(p[0], p[3], p[1], p[2]),
		newFace(p[1], p[3], p[2], p[0]),
	}

	for _, face := range candidates {
		if face.Distance >= MinFaceDistance {
			b.faces = append(b.faces, face)
		}
	}
	if len(b.faces) < 3 {
		b.faces = append(b.faces[:0], candidates[:]...)
	}

	return nil
}

// FindClosestFaceIndex returns -1 when the polytope has no face
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	closest := -1
	for i := range b.faces {
		if closest < 0 || b.faces[i].Distance < b.faces[closest].Distance {
			closest = i
		}
	}
	return closest
}

func (b *PolytopeBuilder) removeFace(index int) {
	last := len(b.faces) - 1
	b.faces[index] = b.faces[last]
	b.faces = b.faces[:last]
}

// centroid averages the distinct vertices of the polytope
func (b *PolytopeBuilder) centroid() mgl64.Vec3 {
	seen := make(map[mgl64.Vec3]struct{}, len(b.faces)*3)
	var sum mgl64.Vec3
	for i := range b.faces {
		for _, point := range b.faces[i].Points {
			if _, ok := seen[point]; ok {
				continue
			}
			seen[point] = struct{}{}
			sum = sum.Add(point)
		}
	}
	if len(seen) == 0 {
		return mgl64.Vec3{}
	}
	return sum.Mul(1.0 / float64(len(seen)))
}

func (b *PolytopeBuilder) addEdge(p0, p1 mgl64.Vec3) {
	e := newEdge(p0, p1)
	for i := range b.edges {
		if b.edges[i].A == e.A && b.edges[i].B == e.B {
			b.edges[i].Count++
			return
		}
	}
	b.edges = append(b.edges, e)
}

// AddPointAndRebuildFaces removes every face that sees support and closes the
// hole with faces fanning from support to the horizon edges
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support mgl64.Vec3, closestIndex int) {
	centroid := b.centroid()

	b.visible = b.visible[:0]
	for i := range b.faces {
		if support.Sub(b.faces[i].Points[0]).Dot(b.faces[i].Normal) > 0 {
			b.visible = append(b.visible, i)
		}
	}
	if len(b.visible) >= len(b.faces) {
		b.visible = append(b.visible[:0], closestIndex)
	}

	b.edges = b.edges[:0]
	for _, index := range b.visible {
		points := b.faces[index].Points
		b.addEdge(points[0], points[1])
		b.addEdge(points[1], points[2])
		b.addEdge(points[2], points[0])
	}

	// visible is ascending: remove from the end so indices stay valid
	for i := len(b.visible) - 1; i >= 0; i-- {
		b.removeFace(b.visible[i])
	}

	for _, e := range b.edges {
		if e.Count == 1 {
			b.faces = append(b.faces, newFace(e.A, e.B, support, centroid))
		}
	}

	if len(b.faces) == 0 {
		b.faces = append(b.faces, Face{
			Points:   [3]mgl64.Vec3{support, support, support},
			Normal:   mgl64.Vec3{0, 1, 0},
			Distance: MinFaceDistance,
		})
	}
}
