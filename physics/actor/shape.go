package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeCylinder
	ShapeTypeTriangleMesh
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "ball"
	case ShapeTypeBox:
		return "cuboid"
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeCylinder:
		return "cylinder"
	case ShapeTypeTriangleMesh:
		return "trimesh"
	}
	return "unknown"
}

// ShapeInterface is the interface that all collision shapes must implement.
// Every query is expressed in the shape's local frame.
type ShapeInterface interface {
	Type() ShapeType
	// LocalAABB returns the bounds of the shape in its own frame
	LocalAABB() AABB
	// ComputeMass calculates mass data for the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	Support(direction mgl64.Vec3) mgl64.Vec3
	GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) LocalAABB() AABB {
	return AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0

	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// boxFaces lists, for each face normal, its four corners as sign multipliers
// of the half extents (CCW seen from outside).
var boxFaces = [6]struct {
	normal  mgl64.Vec3
	corners [4]mgl64.Vec3
}{
	{mgl64.Vec3{1, 0, 0}, [4]mgl64.Vec3{{1, -1, -1}, {1, -1, 1}, {1, 1, 1}, {1, 1, -1}}},
	{mgl64.Vec3{-1, 0, 0}, [4]mgl64.Vec3{{-1, -1, 1}, {-1, -1, -1}, {-1, 1, -1}, {-1, 1, 1}}},
	{mgl64.Vec3{0, 1, 0}, [4]mgl64.Vec3{{-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}, {1, 1, -1}}},
	{mgl64.Vec3{0, -1, 0}, [4]mgl64.Vec3{{-1, -1, 1}, {1, -1, 1}, {1, -1, -1}, {-1, -1, -1}}},
	{mgl64.Vec3{0, 0, 1}, [4]mgl64.Vec3{{-1, -1, 1}, {-1, 1, 1}, {1, 1, 1}, {1, -1, 1}}},
	{mgl64.Vec3{0, 0, -1}, [4]mgl64.Vec3{{1, -1, -1}, {1, 1, -1}, {-1, 1, -1}, {-1, -1, -1}}},
}

// GetContactFeature returns the face whose normal is the most aligned with direction
func (b *Box) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	bestDot := -math.MaxFloat64
	best := 0
	for i, face := range boxFaces {
		if dot := direction.Dot(face.normal); dot > bestDot {
			bestDot = dot
			best = i
		}
	}

	feature := make([]mgl64.Vec3, 4)
	for i, sign := range boxFaces[best].corners {
		feature[i] = mgl64.Vec3{
			sign.X() * b.HalfExtents.X(),
			sign.Y() * b.HalfExtents.Y(),
			sign.Z() * b.HalfExtents.Z(),
		}
	}
	return feature
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

func (s *Sphere) LocalAABB() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: r.Mul(-1), Max: r}
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r², identical on every axis
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

// Cylinder is a Y-aligned cylinder centered on its local origin
type Cylinder struct {
	HalfHeight float64
	Radius     float64
}

// cylinderCapSegments is the number of points used to approximate a cap face
const cylinderCapSegments = 8

func (c *Cylinder) Type() ShapeType { return ShapeTypeCylinder }

func (c *Cylinder) LocalAABB() AABB {
	e := mgl64.Vec3{c.Radius, c.HalfHeight, c.Radius}
	return AABB{Min: e.Mul(-1), Max: e}
}

func (c *Cylinder) ComputeMass(density float64) float64 {
	return density * math.Pi * c.Radius * c.Radius * 2 * c.HalfHeight
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Mat3 {
	h := 2 * c.HalfHeight
	r2 := c.Radius * c.Radius
	side := mass * (3*r2 + h*h) / 12.0

	return mgl64.Diag3(mgl64.Vec3{side, mass * r2 / 2.0, side})
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	y := c.HalfHeight
	if direction.Y() < 0 {
		y = -y
	}

	radial := mgl64.Vec3{direction.X(), 0, direction.Z()}
	if l := radial.Len(); l > 1e-9 {
		radial = radial.Mul(c.Radius / l)
	} else {
		radial = mgl64.Vec3{}
	}

	return mgl64.Vec3{radial.X(), y, radial.Z()}
}

// GetContactFeature returns a cap polygon when direction is mostly axial,
// otherwise the side segment facing direction
func (c *Cylinder) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()

	if math.Abs(dir.Y()) > 0.7 {
		y := c.HalfHeight
		if dir.Y() < 0 {
			y = -y
		}
		feature := make([]mgl64.Vec3, cylinderCapSegments)
		for i := range feature {
			angle := 2 * math.Pi * float64(i) / cylinderCapSegments
			feature[i] = mgl64.Vec3{c.Radius * math.Cos(angle), y, c.Radius * math.Sin(angle)}
		}
		return feature
	}

	radial := mgl64.Vec3{dir.X(), 0, dir.Z()}
	if l := radial.Len(); l > 1e-9 {
		radial = radial.Mul(c.Radius / l)
	}

	return []mgl64.Vec3{
		{radial.X(), -c.HalfHeight, radial.Z()},
		{radial.X(), c.HalfHeight, radial.Z()},
	}
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
}

const planeExtent = 1e10

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

// LocalAABB is infinite on the axes perpendicular to the normal, and one
// unit thick below the surface
func (p *Plane) LocalAABB() AABB {
	const thickness = 1.0

	planePoint := p.Normal.Mul(-p.Distance)
	aabb := EmptyAABB().Extend(planePoint.Sub(p.Normal.Mul(thickness))).Extend(planePoint)
	for i := 0; i < 3; i++ {
		if math.Abs(p.Normal[i]) < 1.0 {
			aabb.Min[i] = -planeExtent
			aabb.Max[i] = planeExtent
		}
	}

	return aabb
}

// ComputeMass calculates mass data for the plane
// Planes are always static with infinite mass
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Support returns the point of the plane surface farthest along direction,
// clamped to a large square
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tangent1, tangent2 := GetTangentBasis(p.Normal)
	point := p.Normal.Mul(-p.Distance)
	point = point.Add(tangent1.Mul(math.Copysign(planeExtent, direction.Dot(tangent1))))
	point = point.Add(tangent2.Mul(math.Copysign(planeExtent, direction.Dot(tangent2))))

	return point
}

func (p *Plane) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	tangent1, tangent2 := GetTangentBasis(p.Normal)
	center := p.Normal.Mul(-p.Distance)
	const size = 1000.0

	return []mgl64.Vec3{
		center.Add(tangent1.Mul(-size)).Add(tangent2.Mul(-size)),
		center.Add(tangent1.Mul(-size)).Add(tangent2.Mul(size)),
		center.Add(tangent1.Mul(size)).Add(tangent2.Mul(size)),
		center.Add(tangent1.Mul(size)).Add(tangent2.Mul(-size)),
	}
}

// GetTangentBasis returns two unit vectors orthogonal to normal and to each other
func GetTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
