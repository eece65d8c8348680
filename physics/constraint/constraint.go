package constraint

import (
	"math"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
)

type Constraint interface {
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

// CombineRestitution averages the two coefficients
func CombineRestitution(a, b float64) float64 {
	return (a + b) / 2.0
}

// CombineFriction uses the geometric mean, so a frictionless side cancels friction
func CombineFriction(a, b float64) float64 {
	return math.Sqrt(math.Max(a, 0) * math.Max(b, 0))
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{}
	}
}
