package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the expanding polytope with its outward normal
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64 // distance from the origin to the face plane
}

// newFace builds a face whose normal points away from both the opposite
// point and the origin
func newFace(p0, p1, p2, opposite mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-8 {
		face.Normal = mgl64.Vec3{0, 1, 0}
		face.Distance = MinFaceDistance
		return face
	}
	normal = normal.Mul(1.0 / length)

	if normal.Dot(opposite.Sub(p0)) > 0 {
		normal = normal.Mul(-1)
	}

	distance := p0.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = math.Max(distance, MinFaceDistance)

	return face
}

// snapNormalToAxis zeroes components below NormalSnapThreshold so resting
// contacts on axis-aligned faces do not drift sideways
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1.0 / length)
}

// edge is an undirected polytope edge, stored with A < B
type edge struct {
	A, B  mgl64.Vec3
	Count int
}

func newEdge(a, b mgl64.Vec3) edge {
	if compareVec3(a, b) > 0 {
		a, b = b, a
	}
	return edge{A: a, B: b, Count: 1}
}

// compareVec3 orders vectors lexicographically on x, y then z
func compareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}
