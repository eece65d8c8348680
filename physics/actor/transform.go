package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a rigid placement (translation + rotation) in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformFrom builds a transform and caches the inverse rotation
func NewTransformFrom(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	rotation = rotation.Normalize()
	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

// Apply maps a point from local space to the space of the transform's parent
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(point))
}

// ApplyInverse maps a point from parent space back to local space
func (t Transform) ApplyInverse(point mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(point.Sub(t.Position))
}

// Compose returns the world transform of a child placed at local inside t
func (t Transform) Compose(local Transform) Transform {
	return NewTransformFrom(t.Apply(local.Position), t.Rotation.Mul(local.Rotation))
}
