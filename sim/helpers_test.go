package sim

import (
	"math"
	"sync"
	"testing"

	"github.com/akmonengine/farmtruck/physics"
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

const epsilon = 1e-6

type recordingEffects struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingEffects() *recordingEffects {
	return &recordingEffects{calls: make(map[string]int)}
}

func (r *recordingEffects) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
}

func (r *recordingEffects) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *recordingEffects) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *recordingEffects) PlayCollisionSound() { r.record("collision") }
func (r *recordingEffects) PlayHornClick()      { r.record("hornClick") }
func (r *recordingEffects) PlayHornPress()      { r.record("hornPress") }
func (r *recordingEffects) StopHornPress()      { r.record("hornStop") }
func (r *recordingEffects) PlayBrakeSound()     { r.record("brake") }
func (r *recordingEffects) PlayEngineSound()    { r.record("engine") }
func (r *recordingEffects) UpdateEngineVolumeAndPitch(float64, float64, bool) {
	r.record("engineUpdate")
}
func (r *recordingEffects) StopEngineSound() { r.record("engineStop") }

type memoryJournal struct {
	entries []any
	closed  bool
}

func (j *memoryJournal) Write(v any) error {
	j.entries = append(j.entries, v)
	return nil
}

func (j *memoryJournal) Close() error {
	j.closed = true
	return nil
}

func newTestSimulation(t *testing.T) (*Simulation, *recordingEffects) {
	t.Helper()

	effects := newRecordingEffects()
	world := physics.NewWorld(physics.DefaultConfig())
	s := NewSimulation(world, scene.NewNode("root"), effects, DefaultResponseSettings(), zerolog.Nop())
	t.Cleanup(func() {
		if !world.Freed() {
			s.Free()
		}
	})
	return s, effects
}

// testTruck is a vehicle model with the wheel and skin nodes
func testTruck() *scene.Node {
	truck := scene.NewNode("Truck")
	truck.Add(scene.NewMeshNode("Skin", scene.BoxMesh(mgl64.Vec3{2.4, 1.6, 5})))

	for _, side := range []string{"L", "R"} {
		group := scene.NewNode("FrontWheel_" + side)
		group.Position = mgl64.Vec3{1.2, -0.5, -1.8}
		group.Add(scene.NewMeshNode("Wheel_"+side, scene.CylinderMesh(0.5, 0.4, 8)))
		truck.Add(group)
	}
	back := scene.NewMeshNode("BackWheels", scene.CylinderMesh(0.5, 2.4, 8))
	back.Position = mgl64.Vec3{0, -0.5, 1.8}
	truck.Add(back)
	return truck
}

// testFarm holds one node per classification path, far from the spawn point
func testFarm() *scene.Node {
	farm := scene.NewNode("farm")

	mailbox := scene.NewMeshNode("mailbox", scene.BoxMesh(mgl64.Vec3{0.5, 1.2, 0.5}))
	mailbox.Position = mgl64.Vec3{40, 0.6, 0}
	farm.Add(mailbox)

	// static feature made of two meshes below a rotated group
	rock := scene.NewNode("rock")
	rock.Position = mgl64.Vec3{-40, 0, 40}
	rock.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	left := scene.NewMeshNode("rock_left", scene.BoxMesh(mgl64.Vec3{2, 2, 2}))
	left.Position = mgl64.Vec3{-2, 1, 0}
	right := scene.NewMeshNode("rock_right", scene.BoxMesh(mgl64.Vec3{2, 3, 2}))
	right.Position = mgl64.Vec3{2, 1.5, 0}
	rock.Add(left)
	rock.Add(right)
	farm.Add(rock)

	tree := scene.NewMeshNode("tree", scene.CylinderMesh(0.5, 4, 8))
	tree.Position = mgl64.Vec3{60, 2, 60}
	farm.Add(tree)

	// bounding box path, rotated on purpose
	shed := scene.NewMeshNode("shed", scene.BoxMesh(mgl64.Vec3{4, 3, 6}))
	shed.Position = mgl64.Vec3{-60, 1.5, -60}
	shed.Rotation = mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	farm.Add(shed)

	farm.Add(scene.NewMeshNode("street", scene.BoxMesh(mgl64.Vec3{10, 0.1, 100})))
	farm.Add(scene.NewNode("haystack"))
	return farm
}

func testNameTable() NameTable {
	return NameTable{
		Trimesh:       []string{"mailbox", "rock", "tree", "haystack"},
		Fallable:      []string{"mailbox"},
		StaticFeature: []string{"rock"},
		Skip:          []string{"street"},
	}
}

// spawnTestVehicle puts the test truck at position, ready for collisions
func spawnTestVehicle(t *testing.T, s *Simulation, position mgl64.Vec3) (*VehicleRecord, *actor.RigidBody) {
	t.Helper()

	spec := DefaultVehicleSpec()
	spec.Position = position
	record, err := s.SpawnVehicle(testTruck(), spec)
	if err != nil {
		t.Fatalf("spawning vehicle: %v", err)
	}
	body, ok := s.World.Body(record.Body)
	if !ok {
		t.Fatalf("vehicle body %d not found", record.Body)
	}
	return record, body
}

func createStaticBox(t *testing.T, s *Simulation, name string, class Classification, position mgl64.Vec3) *BodyRecord {
	t.Helper()

	opts := NewBodyOptions(name, position)
	opts.Class = class
	record, err := s.Registry.CreateBox(mgl64.Vec3{1, 1, 1}, opts)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	return record
}

func createBall(t *testing.T, s *Simulation, position mgl64.Vec3) *BodyRecord {
	t.Helper()

	opts := NewBodyOptions("ball", position)
	opts.Dynamic = true
	record, err := s.Registry.CreateSphere(1, opts)
	if err != nil {
		t.Fatalf("creating ball: %v", err)
	}
	return record
}

func bodyOf(t *testing.T, s *Simulation, handle actor.BodyHandle) *actor.RigidBody {
	t.Helper()

	b, ok := s.World.Body(handle)
	if !ok {
		t.Fatalf("body %d not found", handle)
	}
	return b
}

func hit(vehicle *VehicleRecord, other *BodyRecord) physics.CollisionEvent {
	return physics.CollisionEvent{ColliderA: vehicle.Collider, ColliderB: other.Collider, Started: true}
}

func vecNear(a, b mgl64.Vec3, tolerance float64) bool {
	return a.Sub(b).Len() <= tolerance
}

// quatNear treats q and -q as equal
func quatNear(a, b mgl64.Quat, tolerance float64) bool {
	return math.Abs(a.Dot(b)) >= 1-tolerance
}
