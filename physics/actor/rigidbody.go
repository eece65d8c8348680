package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyHandle identifies a rigid body inside its world. Handles are never reused.
type BodyHandle uint32

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

func (t BodyType) String() string {
	if t == BodyTypeStatic {
		return "fixed"
	}
	return "dynamic"
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	Handle BodyHandle

	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // Linear velocity (m/s)

	// Angular motion
	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s

	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3
	mass                float64

	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
	CCD            bool

	IsSleeping bool
	SleepTimer float64

	BodyType  BodyType // Dynamic or Static
	Colliders []*Collider
}

// NewRigidBody creates a body without colliders; mass is computed once
// colliders are attached
func NewRigidBody(handle BodyHandle, transform Transform, bodyType BodyType) *RigidBody {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	}
	transform = NewTransformFrom(transform.Position, transform.Rotation)

	rb := &RigidBody{
		Handle:            handle,
		PreviousTransform: transform,
		Transform:         transform,
		BodyType:          bodyType,
		GravityScale:      1.0,
	}
	rb.ComputeMass()

	return rb
}

// AttachCollider binds a collider to the body and refreshes mass data
func (rb *RigidBody) AttachCollider(collider *Collider) {
	collider.Body = rb
	rb.Colliders = append(rb.Colliders, collider)
	rb.ComputeMass()
	collider.ComputeAABB()
}

// DetachCollider removes a collider from the body
func (rb *RigidBody) DetachCollider(collider *Collider) {
	for i, c := range rb.Colliders {
		if c == collider {
			rb.Colliders = append(rb.Colliders[:i], rb.Colliders[i+1:]...)
			break
		}
	}
	collider.Body = nil
	rb.ComputeMass()
}

// ComputeMass sums collider masses and inertia tensors around the body origin
func (rb *RigidBody) ComputeMass() {
	if rb.BodyType == BodyTypeStatic {
		rb.mass = math.Inf(1)
		rb.InertiaLocal = mgl64.Mat3{}
		rb.InverseInertiaLocal = mgl64.Mat3{}
		return
	}

	var mass float64
	var inertia mgl64.Mat3
	for _, c := range rb.Colliders {
		if _, ok := c.Shape.(*Plane); ok {
			continue
		}
		m := c.Shape.ComputeMass(c.Density)
		if m <= 0 || math.IsInf(m, 0) {
			continue
		}
		R := c.Offset.Rotation.Mat4().Mat3()
		local := R.Mul3(c.Shape.ComputeInertia(m)).Mul3(R.Transpose())

		// Parallel axis: I += m * (|r|² E - r rᵀ)
		r := c.Offset.Position
		r2 := r.Dot(r)
		shift := mgl64.Mat3{
			r2 - r.X()*r.X(), -r.Y() * r.X(), -r.Z() * r.X(),
			-r.X() * r.Y(), r2 - r.Y()*r.Y(), -r.Z() * r.Y(),
			-r.X() * r.Z(), -r.Y() * r.Z(), r2 - r.Z()*r.Z(),
		}
		inertia = inertia.Add(local.Add(shift.Mul(m)))
		mass += m
	}

	if mass <= 0 {
		mass = 1.0
		inertia = mgl64.Ident3()
	}

	rb.mass = mass
	rb.InertiaLocal = inertia
	rb.InverseInertiaLocal = inertia.Inv()
}

func (rb *RigidBody) GetMass() float64 {
	return rb.mass
}

// InverseMass returns 0 for static bodies
func (rb *RigidBody) InverseMass() float64 {
	if rb.BodyType == BodyTypeStatic {
		return 0
	}
	return 1.0 / rb.mass
}

// SetType switches between fixed and dynamic, recomputing mass data
func (rb *RigidBody) SetType(bodyType BodyType) {
	if rb.BodyType == bodyType {
		return
	}
	rb.BodyType = bodyType
	rb.ComputeMass()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.PreviousTransform = rb.Transform
	rb.Awake()
	rb.ComputeAABB()
}

// SetTransform teleports the body and refreshes its colliders
func (rb *RigidBody) SetTransform(position mgl64.Vec3, rotation mgl64.Quat) {
	rb.Transform = NewTransformFrom(position, rotation)
	rb.PreviousTransform = rb.Transform
	rb.Awake()
	rb.ComputeAABB()
}

// SetTranslation moves the body, keeping its rotation
func (rb *RigidBody) SetTranslation(position mgl64.Vec3) {
	rb.SetTransform(position, rb.Transform.Rotation)
}

// SetRotation rotates the body in place
func (rb *RigidBody) SetRotation(rotation mgl64.Quat) {
	rb.SetTransform(rb.Transform.Position, rotation)
}

// SetLinearVelocity is ignored on static bodies
func (rb *RigidBody) SetLinearVelocity(velocity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.Velocity = velocity
	rb.Awake()
}

// SetAngularVelocity is ignored on static bodies
func (rb *RigidBody) SetAngularVelocity(velocity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.AngularVelocity = velocity
	rb.Awake()
}

// ComputeAABB refreshes every collider placement
func (rb *RigidBody) ComputeAABB() {
	for _, c := range rb.Colliders {
		c.ComputeAABB()
	}
}

// GetAABB returns the union of the collider bounds
func (rb *RigidBody) GetAABB() AABB {
	aabb := EmptyAABB()
	for _, c := range rb.Colliders {
		aabb = aabb.Union(c.GetAABB())
	}
	return aabb
}

// MinExtent returns the smallest half extent over the colliders, used by CCD
func (rb *RigidBody) MinExtent() float64 {
	extent := math.Inf(1)
	for _, c := range rb.Colliders {
		h := c.Shape.LocalAABB().HalfExtents()
		extent = math.Min(extent, math.Min(h.X(), math.Min(h.Y(), h.Z())))
	}
	return extent
}

func (rb *RigidBody) TrySleep(dt float64, timethreshold float64, velocityThreshold float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}
	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timethreshold {
			rb.Sleep()
		}
	} else {
		rb.SleepTimer = 0.0
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.ComputeAABB()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// ApplyImpulse changes the linear velocity by impulse / mass
func (rb *RigidBody) ApplyImpulse(impulse mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.Awake()
	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.InverseMass()))
}

func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	rb.PreviousTransform.Position = rb.Transform.Position
	rb.PreviousTransform.Rotation = rb.Transform.Rotation

	// ========== LINEAR ==========
	rb.Velocity = rb.Velocity.Add(gravity.Mul(rb.GravityScale * dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// ========== ANGULAR ==========
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.AngularDamping * dt))

	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.ComputeAABB()
}

// Update derives velocities from the positional change of the substep
func (rb *RigidBody) Update(dt float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate())
	qDelta = qDelta.Normalize()
	if qDelta.W >= 0.0 {
		rb.AngularVelocity = qDelta.V.Mul(2.0 / dt)
	} else {
		rb.AngularVelocity = qDelta.V.Mul(-2.0 / dt)
	}

	rb.ComputeAABB()
}

// GetInverseInertiaWorld returns R * I_local^(-1) * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{}
	}

	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}
