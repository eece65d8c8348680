// Package epa implements the Expanding Polytope Algorithm.
//
// Once GJK reports an overlap, EPA grows a polytope inside the Minkowski
// difference until its face closest to the origin stops moving. That face
// gives the contact normal and the penetration depth; the contact points
// come from clipping the features of both shapes (see GenerateManifold).
package epa

import (
	"fmt"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/physics/constraint"
	"github.com/akmonengine/farmtruck/physics/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations bounds polytope expansion
	MaxIterations = 32

	// ConvergenceTolerance stops expansion once a new support point improves
	// the closest distance by less than this
	ConvergenceTolerance = 0.001

	// MinFaceDistance is the smallest distance a face may have; closer faces
	// are degenerate and discarded
	MinFaceDistance = 0.0001

	// NormalSnapThreshold zeroes tiny normal components
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is used when GJK ends without a tetrahedron
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 8
)

// Result describes the penetration of B into A. Normal points from A toward B.
type Result struct {
	Normal mgl64.Vec3
	Depth  float64
	Points []constraint.ContactPoint
}

// EPA computes the contact between two overlapping shapes from the final GJK simplex
func EPA(a, b actor.Convex, simplex *gjk.Simplex) (Result, error) {
	if simplex.Count < 4 {
		return degenerateContact(a, b, simplex), nil
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return Result{}, err
	}

	for i := 0; i < MaxIterations; i++ {
		index := builder.FindClosestFaceIndex()
		if index < 0 {
			break
		}
		closest := builder.faces[index]

		if closest.Distance < MinFaceDistance {
			builder.removeFace(index)
			continue
		}

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		if support.Dot(closest.Normal)-closest.Distance < ConvergenceTolerance {
			return newResult(a, b, closest.Normal, closest.Distance), nil
		}

		builder.AddPointAndRebuildFaces(support, index)
	}

	return Result{}, fmt.Errorf("EPA failed to converge after %d iterations", MaxIterations)
}

func newResult(a, b actor.Convex, normal mgl64.Vec3, depth float64) Result {
	return Result{
		Normal: normal,
		Depth:  depth,
		Points: GenerateManifold(a, b, normal, depth),
	}
}

// degenerateContact estimates a contact when shapes only touch and GJK could
// not build a tetrahedron
func degenerateContact(a, b actor.Convex, simplex *gjk.Simplex) Result {
	if simplex.Count >= 2 {
		p0, p1 := simplex.Points[0], simplex.Points[1]
		closest := p1
		if p0.Len() < p1.Len() {
			closest = p0
		}
		if depth := closest.Len(); depth > NormalSnapThreshold {
			return newResult(a, b, closest.Mul(1.0/depth), depth)
		}
	}

	normal := b.Center().Sub(a.Center())
	if length := normal.Len(); length < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Mul(1.0 / length)
	}

	return newResult(a, b, normal, DegeneratePenetrationEstimate)
}
