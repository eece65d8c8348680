package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ColliderHandle identifies a collider inside its world. Handles are never reused.
type ColliderHandle uint32

// Convex is anything the GJK/EPA pipeline can query: a support mapping and
// a contact feature, both in world space
type Convex interface {
	Center() mgl64.Vec3
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
	FeatureWorld(direction mgl64.Vec3) []mgl64.Vec3
}

// Collider attaches a shape to a rigid body at a local offset
type Collider struct {
	Handle ColliderHandle
	Body   *RigidBody
	Shape  ShapeInterface
	Offset Transform

	Friction     float64
	Restitution  float64
	Density      float64
	ActiveEvents bool

	world     Transform
	aabb      AABB
	triangles []Triangle
	trisValid bool
}

// NewCollider creates a collider with a cached identity placement
func NewCollider(handle ColliderHandle, shape ShapeInterface, offset Transform) *Collider {
	if offset.Rotation == (mgl64.Quat{}) {
		offset.Rotation = mgl64.QuatIdent()
	}
	offset = NewTransformFrom(offset.Position, offset.Rotation)

	return &Collider{
		Handle:  handle,
		Shape:   shape,
		Offset:  offset,
		Density: 1.0,
		world:   offset,
	}
}

// ComputeAABB refreshes the cached world placement and bounds from the owning body
func (c *Collider) ComputeAABB() {
	if c.Body != nil {
		c.world = c.Body.Transform.Compose(c.Offset)
	} else {
		c.world = c.Offset
	}

	if _, ok := c.Shape.(*Plane); ok {
		// keep the infinite axes infinite: no rotation of the bounds
		local := c.Shape.LocalAABB()
		c.aabb = AABB{Min: local.Min.Add(c.world.Position), Max: local.Max.Add(c.world.Position)}
	} else {
		c.aabb = transformAABB(c.Shape.LocalAABB(), c.world)
	}
	c.trisValid = false
}

func (c *Collider) GetAABB() AABB {
	return c.aabb
}

// WorldTransform returns the placement computed by the last ComputeAABB
func (c *Collider) WorldTransform() Transform {
	return c.world
}

func (c *Collider) Center() mgl64.Vec3 {
	return c.world.Position
}

func (c *Collider) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := c.world.InverseRotation.Rotate(direction)
	localSupport := c.Shape.Support(localDirection)
	return c.world.Apply(localSupport)
}

func (c *Collider) FeatureWorld(direction mgl64.Vec3) []mgl64.Vec3 {
	localDirection := c.world.InverseRotation.Rotate(direction)
	feature := c.Shape.GetContactFeature(localDirection)
	for i, point := range feature {
		feature[i] = c.world.Apply(point)
	}
	return feature
}

// IsFixedMesh reports whether the collider is a triangle mesh that must be
// split into triangles during the narrow phase
func (c *Collider) IsFixedMesh() bool {
	if _, ok := c.Shape.(*TriangleMesh); !ok {
		return false
	}
	return c.Body == nil || c.Body.BodyType == BodyTypeStatic
}

// Triangles returns the world-space triangles of a mesh collider, cached
// until the next ComputeAABB
func (c *Collider) Triangles() []Triangle {
	mesh, ok := c.Shape.(*TriangleMesh)
	if !ok {
		return nil
	}
	if c.trisValid {
		return c.triangles
	}

	c.triangles = c.triangles[:0]
	for i := 0; i < mesh.TriangleCount(); i++ {
		a, b, cc, ok := mesh.Triangle(i)
		if !ok {
			continue
		}
		c.triangles = append(c.triangles, NewTriangle(c.world.Apply(a), c.world.Apply(b), c.world.Apply(cc)))
	}
	c.trisValid = true

	return c.triangles
}

// WorldPlane returns the plane normal and a point on its surface in world space
func (c *Collider) WorldPlane() (mgl64.Vec3, mgl64.Vec3, bool) {
	plane, ok := c.Shape.(*Plane)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	normal := c.world.Rotation.Rotate(plane.Normal).Normalize()
	point := c.world.Apply(plane.Normal.Mul(-plane.Distance))
	return normal, point, true
}
