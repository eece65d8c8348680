package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func addGround(t *testing.T, world *World, events bool) actor.ColliderHandle {
	t.Helper()

	desc := NewColliderDesc(&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}})
	desc.ActiveEvents = events
	handle, err := world.CreateCollider(desc, WorldAnchor)
	if err != nil {
		t.Fatalf("creating ground: %v", err)
	}
	return handle
}

func addBox(t *testing.T, world *World, position mgl64.Vec3, halfExtents mgl64.Vec3, events bool) (actor.BodyHandle, actor.ColliderHandle) {
	t.Helper()

	bodyDesc := NewBodyDesc(actor.BodyTypeDynamic)
	bodyDesc.Position = position
	body, err := world.CreateBody(bodyDesc)
	if err != nil {
		t.Fatalf("creating body: %v", err)
	}

	desc := NewColliderDesc(&actor.Box{HalfExtents: halfExtents})
	desc.ActiveEvents = events
	collider, err := world.CreateCollider(desc, body)
	if err != nil {
		t.Fatalf("creating collider: %v", err)
	}
	return body, collider
}

func stepFor(world *World, steps int) {
	for range steps {
		world.Step()
	}
}

func TestNewWorld_Defaults(t *testing.T) {
	world := NewWorld(Config{Gravity: mgl64.Vec3{0, -1, 0}})

	if world.Timestep != 1.0/60.0 || world.Substeps != 4 || world.Workers != DEFAULT_WORKERS {
		t.Errorf("zero values should fall back to defaults: %v %v %v", world.Timestep, world.Substeps, world.Workers)
	}
	if world.Gravity != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("gravity should be kept, got %v", world.Gravity)
	}
}

func TestWorld_Handles(t *testing.T) {
	world := NewWorld(DefaultConfig())

	first, _ := addBox(t, world, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, false)
	second, _ := addBox(t, world, mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 1, 1}, false)
	if first == WorldAnchor || second <= first {
		t.Fatalf("handles must be increasing and never the anchor: %v %v", first, second)
	}

	if err := world.RemoveBody(first); err != nil {
		t.Fatalf("RemoveBody() error = %v", err)
	}
	if _, ok := world.Body(first); ok {
		t.Error("removed body still resolves")
	}
	if world.NumBodies() != 1 || world.NumColliders() != 1 {
		t.Errorf("expected 1 body and 1 collider left, got %d and %d", world.NumBodies(), world.NumColliders())
	}

	third, _ := addBox(t, world, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, false)
	if third == first || third <= second {
		t.Errorf("handles must not be reused, got %v", third)
	}

	if err := world.RemoveBody(first); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("removing twice should fail with ErrUnknownBody, got %v", err)
	}
	if _, ok := world.Body(WorldAnchor); ok {
		t.Error("the world anchor is not a body")
	}
}

func TestWorld_CreateColliderErrors(t *testing.T) {
	world := NewWorld(DefaultConfig())

	if _, err := world.CreateCollider(NewColliderDesc(&actor.Sphere{Radius: 1}), 42); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected ErrUnknownBody, got %v", err)
	}
	if _, err := world.CreateCollider(ColliderDesc{}, WorldAnchor); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape, got %v", err)
	}

	handle := addGround(t, world, false)
	collider, ok := world.Collider(handle)
	if !ok {
		t.Fatal("collider not found")
	}
	if collider.Body.Handle != WorldAnchor || collider.Body.BodyType != actor.BodyTypeStatic {
		t.Error("anchored colliders belong to the static world anchor")
	}
}

func TestWorld_Free(t *testing.T) {
	world := NewWorld(DefaultConfig())
	body, _ := addBox(t, world, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{1, 1, 1}, false)

	world.Free()
	world.Free()

	if !world.Freed() {
		t.Fatal("world should be freed")
	}
	if _, err := world.CreateBody(NewBodyDesc(actor.BodyTypeDynamic)); !errors.Is(err, ErrWorldFreed) {
		t.Errorf("CreateBody() error = %v, want ErrWorldFreed", err)
	}
	if _, err := world.CreateCollider(NewColliderDesc(&actor.Sphere{Radius: 1}), WorldAnchor); !errors.Is(err, ErrWorldFreed) {
		t.Errorf("CreateCollider() error = %v, want ErrWorldFreed", err)
	}
	if err := world.RemoveBody(body); !errors.Is(err, ErrWorldFreed) {
		t.Errorf("RemoveBody() error = %v, want ErrWorldFreed", err)
	}

	world.Step()
	world.DrainEvents(func(Event) {
		t.Error("freed worlds have no events")
	})
	if world.NumBodies() != 0 {
		t.Error("bodies should be released")
	}
}

func TestWorld_BoxFallsOnPlane(t *testing.T) {
	world := NewWorld(DefaultConfig())
	addGround(t, world, false)
	handle, _ := addBox(t, world, mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, false)

	stepFor(world, 180)

	body, _ := world.Body(handle)
	if y := body.Transform.Position.Y(); math.Abs(y-0.5) > 0.05 {
		t.Errorf("box should rest on the plane at y=0.5, got %v", y)
	}
	if body.Velocity.Len() > 0.1 {
		t.Errorf("box should be at rest, got velocity %v", body.Velocity)
	}
}

func TestWorld_BoxFallsOnFixedMesh(t *testing.T) {
	world := NewWorld(DefaultConfig())

	ground, err := world.CreateBody(NewBodyDesc(actor.BodyTypeStatic))
	if err != nil {
		t.Fatal(err)
	}
	mesh := actor.NewTriangleMesh(
		[]mgl64.Vec3{{-10, 0, -10}, {10, 0, -10}, {10, 0, 10}, {-10, 0, 10}},
		[]uint32{0, 2, 1, 0, 3, 2},
	)
	if _, err := world.CreateCollider(NewColliderDesc(mesh), ground); err != nil {
		t.Fatal(err)
	}

	handle, _ := addBox(t, world, mgl64.Vec3{4, 2, -4}, mgl64.Vec3{0.5, 0.5, 0.5}, false)

	stepFor(world, 180)

	body, _ := world.Body(handle)
	if y := body.Transform.Position.Y(); y < 0.3 || y > 0.7 {
		t.Errorf("box should rest on the mesh, got y=%v", y)
	}

	groundBody, _ := world.Body(ground)
	if groundBody.Transform.Position != (mgl64.Vec3{}) {
		t.Error("fixed bodies never move")
	}
}

func TestWorld_GravityScale(t *testing.T) {
	world := NewWorld(DefaultConfig())

	desc := NewBodyDesc(actor.BodyTypeDynamic)
	desc.Position = mgl64.Vec3{0, 10, 0}
	desc.GravityScale = 0
	handle, _ := world.CreateBody(desc)
	_, _ = world.CreateCollider(NewColliderDesc(&actor.Sphere{Radius: 0.5}), handle)

	stepFor(world, 30)

	body, _ := world.Body(handle)
	if body.Transform.Position != (mgl64.Vec3{0, 10, 0}) {
		t.Errorf("weightless body moved to %v", body.Transform.Position)
	}
}

func TestWorld_SubstepCount(t *testing.T) {
	world := NewWorld(DefaultConfig())

	desc := NewBodyDesc(actor.BodyTypeDynamic)
	desc.CCD = true
	handle, _ := world.CreateBody(desc)
	_, _ = world.CreateCollider(NewColliderDesc(&actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}), handle)
	body, _ := world.Body(handle)

	if got := world.substepCount(world.Timestep); got != world.Substeps {
		t.Errorf("a resting CCD body keeps the base substeps, got %d", got)
	}

	// half of the 0.5 smallest extent per substep: 1.4 m in one step needs 6 substeps
	body.Velocity = mgl64.Vec3{0, 0, 84}
	if got := world.substepCount(world.Timestep); got != 6 {
		t.Errorf("substepCount() = %d, want 6", got)
	}

	body.Velocity = mgl64.Vec3{0, 0, 1e6}
	if got := world.substepCount(world.Timestep); got != world.Substeps*ccdMaxSubstepFactor {
		t.Errorf("substeps should be capped, got %d", got)
	}

	body.CCD = false
	if got := world.substepCount(world.Timestep); got != world.Substeps {
		t.Errorf("bodies without CCD never add substeps, got %d", got)
	}
}

func TestWorld_CCDStopsFastBody(t *testing.T) {
	world := NewWorld(DefaultConfig())

	wall, _ := world.CreateBody(NewBodyDesc(actor.BodyTypeStatic))
	_, _ = world.CreateCollider(NewColliderDesc(&actor.Box{HalfExtents: mgl64.Vec3{5, 5, 0.25}}), wall)

	desc := NewBodyDesc(actor.BodyTypeDynamic)
	desc.Position = mgl64.Vec3{0, 0, -3}
	desc.GravityScale = 0
	desc.CCD = true
	handle, _ := world.CreateBody(desc)
	_, _ = world.CreateCollider(NewColliderDesc(&actor.Box{HalfExtents: mgl64.Vec3{0.25, 0.25, 0.25}}), handle)
	body, _ := world.Body(handle)
	body.SetLinearVelocity(mgl64.Vec3{0, 0, 120})

	stepFor(world, 10)

	if z := body.Transform.Position.Z(); z > 0 {
		t.Errorf("fast body tunneled through the wall, z=%v", z)
	}
}
