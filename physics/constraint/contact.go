package constraint

import (
	"math"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance is the XPBD softness of contacts; lower is stiffer
	DefaultCompliance = 1e-7

	// DynamicFrictionRatio scales the combined friction once a contact slides
	DynamicFrictionRatio = 0.8
)

type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// ContactConstraint pushes BodyB away from BodyA along Normal (A to B)
type ContactConstraint struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	Points []ContactPoint
	Normal mgl64.Vec3

	Friction    float64
	Restitution float64
}

// NewContactConstraint combines the material of the two colliders
func NewContactConstraint(a, b *actor.Collider, normal mgl64.Vec3, points []ContactPoint) *ContactConstraint {
	return &ContactConstraint{
		BodyA:       a.Body,
		BodyB:       b.Body,
		Points:      points,
		Normal:      normal,
		Friction:    CombineFriction(a.Friction, b.Friction),
		Restitution: CombineRestitution(a.Restitution, b.Restitution),
	}
}

func (c *ContactConstraint) skip() bool {
	if len(c.Points) == 0 || c.BodyA == nil || c.BodyB == nil {
		return true
	}
	return c.BodyA.IsSleeping && c.BodyB.IsSleeping
}

// pointWeight is the generalized inverse mass of one body at r along direction
func pointWeight(invMass float64, invInertia mgl64.Mat3, r, direction mgl64.Vec3) float64 {
	rn := r.Cross(direction)
	return invMass + invInertia.Mul3x1(rn).Dot(rn)
}

func rotate(rb *actor.RigidBody, delta mgl64.Vec3) {
	if rb.BodyType == actor.BodyTypeStatic || delta.Len() <= 1e-10 {
		return
	}
	// small angle: q_delta ≈ [1, δθ/2]
	qDelta := mgl64.Quat{W: 1.0, V: delta.Mul(0.5)}.Normalize()
	rb.Transform.Rotation = qDelta.Mul(rb.Transform.Rotation).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()
}

// SolvePosition resolves penetration with a single XPBD correction for the manifold
func (c *ContactConstraint) SolvePosition(dt float64) {
	if c.skip() {
		return
	}

	bodyA, bodyB := c.BodyA, c.BodyB
	invMassA, invMassB := bodyA.InverseMass(), bodyB.InverseMass()
	invInertiaA, invInertiaB := bodyA.GetInverseInertiaWorld(), bodyB.GetInverseInertiaWorld()

	var totalWeight, totalPenetration float64
	for _, point := range c.Points {
		if point.Penetration <= 1e-8 {
			continue
		}
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		totalWeight += pointWeight(invMassA, invInertiaA, rA, c.Normal) + pointWeight(invMassB, invInertiaB, rB, c.Normal)
		totalPenetration += point.Penetration
	}
	if totalWeight <= 1e-8 {
		return
	}

	alphaTilde := DefaultCompliance / (dt * dt)
	deltaLambda := -totalPenetration / (totalWeight + alphaTilde)
	impulse := c.Normal.Mul(deltaLambda)

	if bodyA.BodyType != actor.BodyTypeStatic {
		bodyA.Transform.Position = bodyA.Transform.Position.Add(impulse.Mul(invMassA))
	}
	if bodyB.BodyType != actor.BodyTypeStatic {
		bodyB.Transform.Position = bodyB.Transform.Position.Sub(impulse.Mul(invMassB))
	}

	var torqueA, torqueB mgl64.Vec3
	for _, point := range c.Points {
		if point.Penetration <= 1e-8 {
			continue
		}
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)
		torqueA = torqueA.Add(rA.Cross(impulse))
		torqueB = torqueB.Add(rB.Cross(impulse.Mul(-1)))
	}

	rotate(bodyA, invInertiaA.Mul3x1(torqueA))
	rotate(bodyB, invInertiaB.Mul3x1(torqueB))
}

// SolveVelocity applies restitution and Coulomb friction
func (c *ContactConstraint) SolveVelocity(dt float64) {
	if c.skip() {
		return
	}

	bodyA, bodyB := c.BodyA, c.BodyB
	invMassA, invMassB := bodyA.InverseMass(), bodyB.InverseMass()
	invInertiaA, invInertiaB := bodyA.GetInverseInertiaWorld(), bodyB.GetInverseInertiaWorld()
	dynamicFriction := c.Friction * DynamicFrictionRatio

	var linearA, linearB, angularA, angularB mgl64.Vec3

	apply := func(rA, rB, impulse mgl64.Vec3) {
		linearA = linearA.Sub(impulse.Mul(invMassA))
		linearB = linearB.Add(impulse.Mul(invMassB))
		angularA = angularA.Add(invInertiaA.Mul3x1(rA.Cross(impulse.Mul(-1))))
		angularB = angularB.Add(invInertiaB.Mul3x1(rB.Cross(impulse)))
	}

	for _, point := range c.Points {
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		relativeVel := bodyB.Velocity.Add(bodyB.AngularVelocity.Cross(rB)).
			Sub(bodyA.Velocity.Add(bodyA.AngularVelocity.Cross(rA)))
		normalVel := relativeVel.Dot(c.Normal)

		relativeVelPrev := bodyB.PresolveVelocity.Add(bodyB.PresolveAngularVelocity.Cross(rB)).
			Sub(bodyA.PresolveVelocity.Add(bodyA.PresolveAngularVelocity.Cross(rA)))
		normalVelPrev := relativeVelPrev.Dot(c.Normal)

		weightNormal := pointWeight(invMassA, invInertiaA, rA, c.Normal) + pointWeight(invMassB, invInertiaB, rB, c.Normal)
		if weightNormal < 1e-10 {
			continue
		}

		// approaching points also lose the separating speed the position pass
		// injected; points already separating are only ever pushed
		targetVel := 0.0
		if normalVelPrev < 0 {
			targetVel = -c.Restitution * normalVelPrev
		}
		lambdaNormal := (targetVel - normalVel) / weightNormal
		if normalVelPrev >= 0 && lambdaNormal <= 0 {
			continue
		}
		apply(rA, rB, c.Normal.Mul(lambdaNormal))

		tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

		weightTangent := pointWeight(invMassA, invInertiaA, rA, tangentDir) + pointWeight(invMassB, invInertiaB, rB, tangentDir)
		if weightTangent < 1e-10 {
			continue
		}

		lambdaTangent := -tangentSpeed / weightTangent
		if limit := math.Abs(lambdaNormal); math.Abs(lambdaTangent) > c.Friction*limit {
			lambdaTangent = -dynamicFriction * limit
		}
		apply(rA, rB, tangentDir.Mul(lambdaTangent))
	}

	bodyA.Velocity = bodyA.Velocity.Add(linearA)
	bodyB.Velocity = bodyB.Velocity.Add(linearB)
	bodyA.AngularVelocity = bodyA.AngularVelocity.Add(angularA)
	bodyB.AngularVelocity = bodyB.AngularVelocity.Add(angularB)

	clampSmallVelocities(bodyA)
	clampSmallVelocities(bodyB)
}
