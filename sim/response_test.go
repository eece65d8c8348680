package sim

import (
	"math"
	"testing"

	"github.com/akmonengine/farmtruck/physics"
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestResponder_FallableToppling(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
	fallable := createStaticBox(t, s, "mailbox", ClassFallable, mgl64.Vec3{0, 0, 0})
	vehicleBody.SetLinearVelocity(mgl64.Vec3{-10, 0, 0})

	outcome, ok := s.responder.Handle(hit(vehicle, fallable))
	if !ok {
		t.Fatal("expected a response to a fast hit")
	}
	if outcome.Action != ActionToppled {
		t.Errorf("expected action %s, got %s", ActionToppled, outcome.Action)
	}
	if got := bodyOf(t, s, fallable.Body).BodyType; got != actor.BodyTypeDynamic {
		t.Errorf("expected the fallable to be dynamic, got %s", got)
	}
	if fallable.Debug.Color != ColorToppled {
		t.Errorf("expected debug color %#x, got %#x", ColorToppled, fallable.Debug.Color)
	}
	if got := effects.count("collision"); got != 1 {
		t.Errorf("expected 1 collision sound, got %d", got)
	}
	if fallable.Collider != fallable.Colliders[0] {
		t.Error("collider handle changed with the body type")
	}
}

func TestResponder_ToppleOnce(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
	fallable := createStaticBox(t, s, "mailbox", ClassFallable, mgl64.Vec3{0, 0, 0})

	for i := 0; i < 3; i++ {
		vehicleBody.SetLinearVelocity(mgl64.Vec3{-10, 0, 0})
		_, ok := s.responder.Handle(hit(vehicle, fallable))
		if ok != (i == 0) {
			t.Errorf("hit %d: expected response %v, got %v", i, i == 0, ok)
		}
	}

	if got := bodyOf(t, s, fallable.Body).BodyType; got != actor.BodyTypeDynamic {
		t.Errorf("expected the fallable to stay dynamic, got %s", got)
	}
	if got := effects.count("collision"); got != 1 {
		t.Errorf("expected exactly 1 collision sound, got %d", got)
	}
}

func TestResponder_Bounce(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
	obstacle := createStaticBox(t, s, "shed", ClassStaticCuboid, mgl64.Vec3{0, 0, 0})
	vehicleBody.SetLinearVelocity(mgl64.Vec3{-10, -2, 0})

	outcome, ok := s.responder.Handle(hit(vehicle, obstacle))
	if !ok {
		t.Fatal("expected a response to a fast hit")
	}
	if outcome.Action != ActionBounced {
		t.Errorf("expected action %s, got %s", ActionBounced, outcome.Action)
	}
	if outcome.Impulse.X() <= 0 {
		t.Errorf("expected an impulse away from the obstacle, got %v", outcome.Impulse)
	}
	if outcome.Impulse.Y() != 0 {
		t.Errorf("expected a horizontal impulse, got %v", outcome.Impulse)
	}
	if math.Abs(outcome.Impulse.Len()-DefaultResponseSettings().BounceStrength) > epsilon {
		t.Errorf("expected impulse length %v, got %v", DefaultResponseSettings().BounceStrength, outcome.Impulse.Len())
	}

	want := mgl64.Vec3{-10, -2, 0}.Add(outcome.Impulse.Mul(vehicleBody.InverseMass()))
	if !vecNear(vehicleBody.Velocity, want, epsilon) {
		t.Errorf("expected vehicle velocity %v, got %v", want, vehicleBody.Velocity)
	}
	if got := bodyOf(t, s, obstacle.Body).BodyType; got != actor.BodyTypeStatic {
		t.Errorf("expected the obstacle to stay fixed, got %s", got)
	}
	if got := effects.count("collision"); got != 1 {
		t.Errorf("expected 1 collision sound, got %d", got)
	}
}

func TestResponder_BounceOffGroundIsSilent(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{0, 1, 5})
	ground := createStaticBox(t, s, "plane", ClassStaticTrimesh, mgl64.Vec3{0, 0, 0})
	vehicleBody.SetLinearVelocity(mgl64.Vec3{0, 0, 10})

	outcome, ok := s.responder.Handle(hit(vehicle, ground))
	if !ok || outcome.Action != ActionBounced {
		t.Fatalf("expected a bounce, got %v %v", outcome.Action, ok)
	}
	if outcome.Impulse.Z() <= 0 {
		t.Errorf("expected an impulse along +z, got %v", outcome.Impulse)
	}
	if got := effects.count("collision"); got != 0 {
		t.Errorf("expected no collision sound for the ground, got %d", got)
	}
}

func TestResponder_SpeedGate(t *testing.T) {
	classes := []Classification{ClassFallable, ClassStaticTrimesh, ClassStaticCuboid, ClassUnknownTrimeshStatic, ClassNone}

	for _, class := range classes {
		t.Run(class.String(), func(t *testing.T) {
			s, effects := newTestSimulation(t)
			vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
			other := createStaticBox(t, s, "other", class, mgl64.Vec3{0, 0, 0})
			vehicleBody.SetLinearVelocity(mgl64.Vec3{-0.05, 0, 0})

			if _, ok := s.responder.Handle(hit(vehicle, other)); ok {
				t.Error("expected a gentle touch to be ignored")
			}
			if got := bodyOf(t, s, other.Body).BodyType; got != actor.BodyTypeStatic {
				t.Errorf("expected the body to stay fixed, got %s", got)
			}
			if !vecNear(vehicleBody.Velocity, mgl64.Vec3{-0.05, 0, 0}, epsilon) {
				t.Errorf("expected the vehicle velocity untouched, got %v", vehicleBody.Velocity)
			}
			if other.Debug.Color != ColorCuboid {
				t.Errorf("expected the debug color untouched, got %#x", other.Debug.Color)
			}
			if got := effects.total(); got != 0 {
				t.Errorf("expected no effects, got %d", got)
			}
		})
	}
}

func TestResponder_Nudge(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
	ball := createBall(t, s, mgl64.Vec3{0, 0, 0})
	vehicleBody.SetLinearVelocity(mgl64.Vec3{-10, -3, 4})

	outcome, ok := s.responder.Handle(hit(vehicle, ball))
	if !ok {
		t.Fatal("expected a response to a fast hit")
	}
	if outcome.Action != ActionNudged {
		t.Errorf("expected action %s, got %s", ActionNudged, outcome.Action)
	}
	want := mgl64.Vec3{-1, 0, 0.4}
	if !vecNear(outcome.Impulse, want, epsilon) {
		t.Errorf("expected impulse %v, got %v", want, outcome.Impulse)
	}
	ballBody := bodyOf(t, s, ball.Body)
	if !vecNear(ballBody.Velocity, want.Mul(ballBody.InverseMass()), epsilon) {
		t.Errorf("expected ball velocity %v, got %v", want.Mul(ballBody.InverseMass()), ballBody.Velocity)
	}
	if got := effects.count("collision"); got != 1 {
		t.Errorf("expected 1 collision sound, got %d", got)
	}
}

func TestResponder_Touch(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
	crate := createStaticBox(t, s, "wall_0_0", ClassNone, mgl64.Vec3{0, 0, 0})
	vehicleBody.SetLinearVelocity(mgl64.Vec3{-10, 0, 0})

	outcome, ok := s.responder.Handle(hit(vehicle, crate))
	if !ok || outcome.Action != ActionTouched {
		t.Fatalf("expected a touch, got %v %v", outcome.Action, ok)
	}
	if outcome.Impulse != (mgl64.Vec3{}) {
		t.Errorf("expected no impulse, got %v", outcome.Impulse)
	}
	if got := effects.count("collision"); got != 1 {
		t.Errorf("expected 1 collision sound, got %d", got)
	}
}

func TestResponder_UnclassifiedMeshIgnored(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
	tree := createStaticBox(t, s, "tree_1", ClassUnknownTrimeshStatic, mgl64.Vec3{0, 0, 0})
	vehicleBody.SetLinearVelocity(mgl64.Vec3{-10, 0, 0})

	if _, ok := s.responder.Handle(hit(vehicle, tree)); ok {
		t.Error("expected no response")
	}
	if got := effects.total(); got != 0 {
		t.Errorf("expected no effects, got %d", got)
	}
	if vehicleBody.Velocity != (mgl64.Vec3{-10, 0, 0}) {
		t.Errorf("expected the vehicle velocity untouched, got %v", vehicleBody.Velocity)
	}
	if got := bodyOf(t, s, tree.Body).BodyType; got != actor.BodyTypeStatic {
		t.Errorf("expected the tree to stay fixed, got %s", got)
	}
}

func TestResponder_Ignored(t *testing.T) {
	s, effects := newTestSimulation(t)
	vehicle, vehicleBody := spawnTestVehicle(t, s, mgl64.Vec3{10, 0, 0})
	a := createStaticBox(t, s, "a", ClassFallable, mgl64.Vec3{0, 0, 0})
	b := createStaticBox(t, s, "b", ClassFallable, mgl64.Vec3{5, 0, 0})
	vehicleBody.SetLinearVelocity(mgl64.Vec3{-10, 0, 0})

	groundDesc := physics.NewColliderDesc(&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}})
	ground, err := s.World.CreateCollider(groundDesc, physics.WorldAnchor)
	if err != nil {
		t.Fatalf("creating ground: %v", err)
	}

	tests := []struct {
		name  string
		event physics.CollisionEvent
	}{
		{"ended", physics.CollisionEvent{ColliderA: vehicle.Collider, ColliderB: a.Collider, Started: false}},
		{"without vehicle", physics.CollisionEvent{ColliderA: a.Collider, ColliderB: b.Collider, Started: true}},
		{"without record", physics.CollisionEvent{ColliderA: ground, ColliderB: vehicle.Collider, Started: true}},
		{"unknown collider", physics.CollisionEvent{ColliderA: vehicle.Collider, ColliderB: 9999, Started: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := s.responder.Handle(tt.event); ok {
				t.Error("expected no response")
			}
		})
	}

	for _, r := range []*BodyRecord{a, b} {
		if got := bodyOf(t, s, r.Body).BodyType; got != actor.BodyTypeStatic {
			t.Errorf("%s: expected fixed, got %s", r.Name, got)
		}
	}
	if got := effects.total(); got != 0 {
		t.Errorf("expected no effects, got %d", got)
	}
}

func TestStep_WithoutVehicle(t *testing.T) {
	s, _ := newTestSimulation(t)
	createBall(t, s, mgl64.Vec3{0, 0.5, 0})
	createStaticBox(t, s, "floor", ClassStaticCuboid, mgl64.Vec3{0, -1, 0})

	for i := 0; i < 10; i++ {
		if outcomes := s.Step(); len(outcomes) != 0 {
			t.Fatalf("expected no outcomes without a vehicle, got %v", outcomes)
		}
	}
}
