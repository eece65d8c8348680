package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func createBoxBody(position mgl64.Vec3, halfExtents mgl64.Vec3, bodyType BodyType) *RigidBody {
	body := NewRigidBody(1, NewTransformFrom(position, mgl64.QuatIdent()), bodyType)
	body.AttachCollider(NewCollider(1, &Box{HalfExtents: halfExtents}, NewTransform()))
	return body
}

func TestRigidBody_ComputeMass(t *testing.T) {
	t.Run("dynamic box", func(t *testing.T) {
		body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)
		if body.GetMass() != 8.0 {
			t.Errorf("expected mass 8, got %v", body.GetMass())
		}
		if math.Abs(body.InverseMass()-0.125) > epsilon {
			t.Errorf("expected inverse mass 0.125, got %v", body.InverseMass())
		}
	})

	t.Run("static body", func(t *testing.T) {
		body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeStatic)
		if body.InverseMass() != 0 {
			t.Errorf("static bodies must have zero inverse mass, got %v", body.InverseMass())
		}
		if body.GetInverseInertiaWorld() != (mgl64.Mat3{}) {
			t.Error("static bodies must have zero inverse inertia")
		}
	})

	t.Run("dynamic without colliders", func(t *testing.T) {
		body := NewRigidBody(1, NewTransform(), BodyTypeDynamic)
		if body.GetMass() != 1.0 {
			t.Errorf("expected unit mass fallback, got %v", body.GetMass())
		}
	})

	t.Run("offset collider", func(t *testing.T) {
		body := NewRigidBody(1, NewTransform(), BodyTypeDynamic)
		offset := NewTransformFrom(mgl64.Vec3{2, 0, 0}, mgl64.QuatIdent())
		body.AttachCollider(NewCollider(1, &Sphere{Radius: 1}, offset))

		mass := body.GetMass()
		// parallel axis: y and z gain m*d², x does not
		wantX := 0.4 * mass
		wantY := 0.4*mass + mass*4
		if math.Abs(body.InertiaLocal.At(0, 0)-wantX) > 1e-9 {
			t.Errorf("Ixx = %v, want %v", body.InertiaLocal.At(0, 0), wantX)
		}
		if math.Abs(body.InertiaLocal.At(1, 1)-wantY) > 1e-9 {
			t.Errorf("Iyy = %v, want %v", body.InertiaLocal.At(1, 1), wantY)
		}
	})
}

func TestRigidBody_SetType(t *testing.T) {
	body := createBoxBody(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{1, 1, 1}, BodyTypeStatic)
	body.IsSleeping = true

	body.SetType(BodyTypeDynamic)

	if body.BodyType != BodyTypeDynamic {
		t.Fatal("body type was not changed")
	}
	if body.InverseMass() <= 0 {
		t.Error("a dynamic body must have a finite mass")
	}
	if body.IsSleeping {
		t.Error("changing the type must wake the body")
	}
	if body.Transform.Position != (mgl64.Vec3{0, 5, 0}) {
		t.Error("changing the type must not move the body")
	}
}

func TestRigidBody_Integrate(t *testing.T) {
	gravity := mgl64.Vec3{0, -9.82, 0}
	dt := 1.0 / 60.0

	t.Run("gravity scale", func(t *testing.T) {
		body := createBoxBody(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)
		body.GravityScale = 3

		body.Integrate(dt, gravity)

		want := -9.82 * 3 * dt
		if math.Abs(body.Velocity.Y()-want) > 1e-12 {
			t.Errorf("velocity = %v, want %v", body.Velocity.Y(), want)
		}
		if body.Transform.Position.Y() >= 10 {
			t.Error("body should have moved down")
		}
	})

	t.Run("linear damping", func(t *testing.T) {
		body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)
		body.GravityScale = 0
		body.LinearDamping = 0.5
		body.Velocity = mgl64.Vec3{10, 0, 0}

		body.Integrate(dt, gravity)

		want := 10 * math.Exp(-0.5*dt)
		if math.Abs(body.Velocity.X()-want) > 1e-12 {
			t.Errorf("velocity = %v, want %v", body.Velocity.X(), want)
		}
	})

	t.Run("static and sleeping bodies do not move", func(t *testing.T) {
		static := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeStatic)
		sleeping := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)
		sleeping.IsSleeping = true

		static.Integrate(dt, gravity)
		sleeping.Integrate(dt, gravity)

		if static.Transform.Position != (mgl64.Vec3{}) || sleeping.Transform.Position != (mgl64.Vec3{}) {
			t.Error("body moved")
		}
	})
}

func TestRigidBody_Update(t *testing.T) {
	body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)
	body.PreviousTransform = body.Transform
	body.Transform.Position = mgl64.Vec3{0.5, 0, 0}

	body.Update(0.5)

	if !vecNear(body.Velocity, mgl64.Vec3{1, 0, 0}, epsilon) {
		t.Errorf("velocity should be derived from the displacement, got %v", body.Velocity)
	}
	if !vecNear(body.GetAABB().Center(), mgl64.Vec3{0.5, 0, 0}, epsilon) {
		t.Errorf("collider bounds should follow the body, got %v", body.GetAABB())
	}
}

func TestRigidBody_Setters(t *testing.T) {
	t.Run("velocities wake the body", func(t *testing.T) {
		body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)
		body.Sleep()

		body.SetLinearVelocity(mgl64.Vec3{1, 2, 3})
		if body.IsSleeping || body.Velocity != (mgl64.Vec3{1, 2, 3}) {
			t.Errorf("SetLinearVelocity: sleeping=%v velocity=%v", body.IsSleeping, body.Velocity)
		}

		body.Sleep()
		body.SetAngularVelocity(mgl64.Vec3{0, 1, 0})
		if body.IsSleeping || body.AngularVelocity != (mgl64.Vec3{0, 1, 0}) {
			t.Errorf("SetAngularVelocity: sleeping=%v velocity=%v", body.IsSleeping, body.AngularVelocity)
		}
	})

	t.Run("static bodies ignore velocities", func(t *testing.T) {
		body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeStatic)
		body.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
		if body.Velocity != (mgl64.Vec3{}) {
			t.Error("static body accepted a velocity")
		}
	})

	t.Run("translation moves the colliders", func(t *testing.T) {
		body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeStatic)
		body.SetTranslation(mgl64.Vec3{0, 3, 0})

		aabb := body.GetAABB()
		if !vecNear(aabb.Min, mgl64.Vec3{-1, 2, -1}, epsilon) {
			t.Errorf("unexpected bounds after translation: %v", aabb)
		}
	})
}

func TestRigidBody_ApplyImpulse(t *testing.T) {
	body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)

	body.ApplyImpulse(mgl64.Vec3{8, 0, 0})

	if !vecNear(body.Velocity, mgl64.Vec3{1, 0, 0}, epsilon) {
		t.Errorf("impulse / mass expected, got %v", body.Velocity)
	}

	static := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeStatic)
	static.ApplyImpulse(mgl64.Vec3{8, 0, 0})
	if static.Velocity != (mgl64.Vec3{}) {
		t.Error("static body accepted an impulse")
	}
}

func TestRigidBody_TrySleep(t *testing.T) {
	body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, BodyTypeDynamic)
	body.Velocity = mgl64.Vec3{0.01, 0, 0}

	for i := 0; i < 5; i++ {
		body.TrySleep(0.01, 0.1, 0.05)
	}
	if body.IsSleeping {
		t.Fatal("body fell asleep too early")
	}

	for i := 0; i < 10; i++ {
		body.TrySleep(0.01, 0.1, 0.05)
	}
	if !body.IsSleeping {
		t.Fatal("slow body should be asleep")
	}
	if body.Velocity != (mgl64.Vec3{}) {
		t.Error("sleeping bodies have no velocity")
	}
}

func TestRigidBody_MinExtent(t *testing.T) {
	body := createBoxBody(mgl64.Vec3{}, mgl64.Vec3{1.2, 0.8, 2.5}, BodyTypeDynamic)
	if body.MinExtent() != 0.8 {
		t.Errorf("MinExtent() = %v, want 0.8", body.MinExtent())
	}
}
