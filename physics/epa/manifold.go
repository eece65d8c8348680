package epa

import (
	"math"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/physics/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxManifoldPoints is the largest manifold handed to the solver
const MaxManifoldPoints = 4

// GenerateManifold builds 1 to 4 contact points with Sutherland-Hodgman
// clipping. The feature with fewer points is the incident one and is clipped
// against the side planes of the other (the reference), then only the points
// behind the reference face are kept.
func GenerateManifold(a, b actor.Convex, normal mgl64.Vec3, depth float64) []constraint.ContactPoint {
	featureA := a.FeatureWorld(normal)
	featureB := b.FeatureWorld(normal.Mul(-1))

	incident, reference := featureB, featureA
	// side is +1 when the reference belongs to A: penetrating points of B
	// lie below A's face along normal
	side := 1.0
	if len(featureA) < len(featureB) {
		incident, reference = featureA, featureB
		side = -1.0
	}

	if len(incident) == 0 || len(reference) == 0 {
		return []constraint.ContactPoint{{Position: b.SupportWorld(normal.Mul(-1)), Penetration: depth}}
	}
	if len(incident) == 1 {
		return []constraint.ContactPoint{{Position: incident[0], Penetration: depth}}
	}

	clipped := clipIncidentAgainstReference(incident, reference, normal)

	refNormal := normal
	if len(reference) >= 3 {
		n := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0]))
		if n.LenSqr() > 1e-12 {
			refNormal = n.Normalize()
			if refNormal.Dot(normal) < 0 {
				refNormal = refNormal.Mul(-1)
			}
		}
	}
	offset := reference[0].Dot(refNormal)

	const tolerance = 1e-6
	points := make([]constraint.ContactPoint, 0, len(clipped))
	for _, point := range clipped {
		if side*(point.Dot(refNormal)-offset) <= tolerance {
			points = append(points, constraint.ContactPoint{Position: point, Penetration: depth})
		}
	}

	if len(points) == 0 {
		points = append(points, constraint.ContactPoint{Position: b.SupportWorld(normal.Mul(-1)), Penetration: depth})
	}

	return ReducePoints(points, normal)
}

// clipIncidentAgainstReference clips the incident polygon against each side
// plane of the reference polygon
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 3 {
		return incident
	}

	center := computeCenter(reference)
	output := incident
	for i := 0; i < len(reference) && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-12 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipPolygonAgainstPlane keeps the part of polygon on the positive side of the plane
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	const tolerance = 1e-6

	output := make([]mgl64.Vec3, 0, len(polygon)+2)
	for i, current := range polygon {
		next := polygon[(i+1)%len(polygon)]
		currentIn := current.Sub(planePoint).Dot(planeNormal) >= -tolerance
		nextIn := next.Sub(planePoint).Dot(planeNormal) >= -tolerance

		if currentIn {
			output = append(output, current)
		}
		if currentIn != nextIn {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-10 {
		return p1
	}

	t := -p1.Sub(planePoint).Dot(planeNormal) / denom
	t = math.Max(0, math.Min(1, t))

	return p1.Add(dir.Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// ReducePoints keeps at most MaxManifoldPoints: the extremes along the two
// tangent axes of normal, in input order
func ReducePoints(points []constraint.ContactPoint, normal mgl64.Vec3) []constraint.ContactPoint {
	if len(points) <= MaxManifoldPoints {
		return points
	}

	tangent1, tangent2 := actor.GetTangentBasis(normal)

	var extremes [4]int
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)
		if x < minX {
			minX, extremes[0] = x, i
		}
		if x > maxX {
			maxX, extremes[1] = x, i
		}
		if y < minY {
			minY, extremes[2] = y, i
		}
		if y > maxY {
			maxY, extremes[3] = y, i
		}
	}

	result := make([]constraint.ContactPoint, 0, MaxManifoldPoints)
	for i, p := range points {
		for _, e := range extremes {
			if e == i {
				result = append(result, p)
				break
			}
		}
	}

	return result
}
