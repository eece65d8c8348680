// Package physics is a small XPBD rigid body engine: bodies carry colliders,
// the world steps them with substeps and reports contact start/stop events
// per collider pair.
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/physics/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS = 1

	// ccdMaxSubstepFactor caps the substeps CCD may add, as a multiple of Config.Substeps
	ccdMaxSubstepFactor = 8

	sleepTimeThreshold     = 0.1
	sleepVelocityThreshold = 0.05
)

var (
	ErrWorldFreed   = errors.New("physics: world has been freed")
	ErrUnknownBody  = errors.New("physics: unknown body")
	ErrInvalidShape = errors.New("physics: invalid shape")
)

// WorldAnchor is the parent handle of colliders that are not attached to a body
const WorldAnchor actor.BodyHandle = 0

// Config holds the world parameters; zero values fall back to DefaultConfig
type Config struct {
	Gravity   mgl64.Vec3
	Timestep  float64
	Substeps  int
	Workers   int
	CellSize  float64
	GridCells int
}

func DefaultConfig() Config {
	return Config{
		Gravity:   mgl64.Vec3{0, -9.82, 0},
		Timestep:  1.0 / 60.0,
		Substeps:  4,
		Workers:   DEFAULT_WORKERS,
		CellSize:  4.0,
		GridCells: 4096,
	}
}

// BodyDesc describes a body to create
type BodyDesc struct {
	Type           actor.BodyType
	Position       mgl64.Vec3
	Rotation       mgl64.Quat
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
	CCD            bool
}

// NewBodyDesc returns a body at the origin with a gravity scale of 1
func NewBodyDesc(bodyType actor.BodyType) BodyDesc {
	return BodyDesc{Type: bodyType, Rotation: mgl64.QuatIdent(), GravityScale: 1.0}
}

// ColliderDesc describes a collider to attach to a body
type ColliderDesc struct {
	Shape        actor.ShapeInterface
	Offset       actor.Transform
	Friction     float64
	Restitution  float64
	Density      float64
	ActiveEvents bool
}

// NewColliderDesc returns a collider centered on its body with unit density
func NewColliderDesc(shape actor.ShapeInterface) ColliderDesc {
	return ColliderDesc{Shape: shape, Offset: actor.NewTransform(), Friction: 0.5, Density: 1.0}
}

type World struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl64.Vec3
	Timestep    float64
	Substeps    int
	Workers     int
	SpatialGrid *SpatialGrid

	Events Events

	anchor    *actor.RigidBody
	bodies    []*actor.RigidBody
	colliders []*actor.Collider

	bodyIndex     map[actor.BodyHandle]*actor.RigidBody
	colliderIndex map[actor.ColliderHandle]*actor.Collider

	nextBody     actor.BodyHandle
	nextCollider actor.ColliderHandle
	freed        bool
}

func NewWorld(cfg Config) *World {
	defaults := DefaultConfig()
	if cfg.Timestep <= 0 {
		cfg.Timestep = defaults.Timestep
	}
	if cfg.Substeps < 1 {
		cfg.Substeps = defaults.Substeps
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = defaults.CellSize
	}
	if cfg.GridCells <= 0 {
		cfg.GridCells = defaults.GridCells
	}

	return &World{
		Gravity:       cfg.Gravity,
		Timestep:      cfg.Timestep,
		Substeps:      cfg.Substeps,
		Workers:       max(DEFAULT_WORKERS, cfg.Workers),
		SpatialGrid:   NewSpatialGrid(cfg.CellSize, cfg.GridCells),
		Events:        NewEvents(),
		anchor:        actor.NewRigidBody(WorldAnchor, actor.NewTransform(), actor.BodyTypeStatic),
		bodyIndex:     make(map[actor.BodyHandle]*actor.RigidBody),
		colliderIndex: make(map[actor.ColliderHandle]*actor.Collider),
		nextBody:      1,
		nextCollider:  1,
	}
}

// CreateBody adds a body without colliders and returns its handle
func (w *World) CreateBody(desc BodyDesc) (actor.BodyHandle, error) {
	if w.freed {
		return 0, ErrWorldFreed
	}

	handle := w.nextBody
	w.nextBody++

	body := actor.NewRigidBody(handle, actor.NewTransformFrom(desc.Position, desc.Rotation), desc.Type)
	body.LinearDamping = desc.LinearDamping
	body.AngularDamping = desc.AngularDamping
	body.GravityScale = desc.GravityScale
	body.CCD = desc.CCD

	w.bodies = append(w.bodies, body)
	w.bodyIndex[handle] = body

	return handle, nil
}

// CreateCollider attaches a collider to parent, or to the world itself when
// parent is WorldAnchor
func (w *World) CreateCollider(desc ColliderDesc, parent actor.BodyHandle) (actor.ColliderHandle, error) {
	if w.freed {
		return 0, ErrWorldFreed
	}
	if desc.Shape == nil {
		return 0, ErrInvalidShape
	}

	body := w.anchor
	if parent != WorldAnchor {
		var ok bool
		if body, ok = w.bodyIndex[parent]; !ok {
			return 0, fmt.Errorf("attaching collider to body %d: %w", parent, ErrUnknownBody)
		}
	}

	handle := w.nextCollider
	w.nextCollider++

	collider := actor.NewCollider(handle, desc.Shape, desc.Offset)
	collider.Friction = desc.Friction
	collider.Restitution = desc.Restitution
	if desc.Density > 0 {
		collider.Density = desc.Density
	}
	collider.ActiveEvents = desc.ActiveEvents
	body.AttachCollider(collider)

	w.colliders = append(w.colliders, collider)
	w.colliderIndex[handle] = collider

	return handle, nil
}

// Body returns the body behind handle; removed and anchor handles miss
func (w *World) Body(handle actor.BodyHandle) (*actor.RigidBody, bool) {
	body, ok := w.bodyIndex[handle]
	return body, ok
}

func (w *World) Collider(handle actor.ColliderHandle) (*actor.Collider, bool) {
	collider, ok := w.colliderIndex[handle]
	return collider, ok
}

func (w *World) NumBodies() int {
	return len(w.bodies)
}

func (w *World) NumColliders() int {
	return len(w.colliders)
}

// RemoveBody removes a body and its colliders. Pairs it was part of are
// dropped without a stop event.
func (w *World) RemoveBody(handle actor.BodyHandle) error {
	if w.freed {
		return ErrWorldFreed
	}
	body, ok := w.bodyIndex[handle]
	if !ok {
		return fmt.Errorf("removing body %d: %w", handle, ErrUnknownBody)
	}

	w.Events.forgetBody(body)

	for _, collider := range body.Colliders {
		delete(w.colliderIndex, collider.Handle)
	}
	n := 0
	for _, collider := range w.colliders {
		if collider.Body != body {
			w.colliders[n] = collider
			n++
		}
	}
	clear(w.colliders[n:])
	w.colliders = w.colliders[:n]

	for i, b := range w.bodies {
		if b == body {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	delete(w.bodyIndex, handle)

	return nil
}

// Subscribe registers a listener called at the end of every step
func (w *World) Subscribe(eventType EventType, listener EventListener) {
	w.Events.Subscribe(eventType, listener)
}

// DrainEvents passes the events queued by previous steps to fn and clears the queue
func (w *World) DrainEvents(fn func(Event)) {
	if w.freed {
		return
	}
	w.Events.drain(fn)
}

// Free releases every body and collider. Later calls on the world are no-ops
// or return ErrWorldFreed.
func (w *World) Free() {
	if w.freed {
		return
	}
	w.freed = true
	w.bodies = nil
	w.colliders = nil
	w.anchor.Colliders = nil
	clear(w.bodyIndex)
	clear(w.colliderIndex)
	w.Events = NewEvents()
	w.SpatialGrid.Clear()
}

func (w *World) Freed() bool {
	return w.freed
}

// Step advances the world by one fixed timestep
func (w *World) Step() {
	if w.freed {
		return
	}

	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	dt := w.Timestep
	substeps := w.substepCount(dt)
	h := dt / float64(substeps)

	w.prepareMeshes()

	for range substeps {
		w.integrate(h)

		// broad phase then narrow phase
		manifolds := w.detectCollision(h)

		constraints := w.recordCollisions(manifolds)

		// one solver iteration is enough thanks to substeps
		w.solvePosition(h, constraints)

		w.update(h)

		w.solveVelocity(h, constraints)

		w.trySleep(h)
	}

	w.Events.processSleepEvents(w.bodies)
	w.Events.flush()
}

// substepCount raises the substeps so no CCD body travels more than half
// of its smallest extent in one substep
func (w *World) substepCount(dt float64) int {
	substeps := w.Substeps
	for _, body := range w.bodies {
		if !body.CCD || !isAwakeDynamic(body) {
			continue
		}
		extent := body.MinExtent()
		speed := body.Velocity.Len()
		if extent <= 0 || math.IsInf(extent, 0) || math.IsNaN(speed) {
			continue
		}
		needed := int(math.Ceil(speed * dt / (0.5 * extent)))
		substeps = max(substeps, needed)
	}
	return min(substeps, w.Substeps*ccdMaxSubstepFactor)
}

// prepareMeshes builds the triangle caches of fixed meshes before workers read them
func (w *World) prepareMeshes() {
	for _, collider := range w.colliders {
		if collider.IsFixedMesh() {
			collider.Triangles()
		}
	}
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.Gravity)
	})
}

func (w *World) detectCollision(h float64) []Manifold {
	return NarrowPhase(BroadPhase(w.SpatialGrid, w.colliders, h, w.Workers), w.Workers)
}

// recordCollisions feeds the events, wakes sleeping bodies hit by awake
// ones, and keeps the manifolds that carry a constraint
func (w *World) recordCollisions(manifolds []Manifold) []*constraint.ContactConstraint {
	constraints := make([]*constraint.ContactConstraint, 0, len(manifolds))
	for _, m := range manifolds {
		w.Events.recordContact(m.ColliderA, m.ColliderB)

		bodyA, bodyB := m.ColliderA.Body, m.ColliderB.Body
		if bodyA.IsSleeping && isAwakeDynamic(bodyB) {
			bodyA.Awake()
		}
		if bodyB.IsSleeping && isAwakeDynamic(bodyA) {
			bodyB.Awake()
		}

		if m.Constraint != nil {
			constraints = append(constraints, m.Constraint)
		}
	}
	return constraints
}

// solvePosition runs sequentially: constraints share bodies
func (w *World) solvePosition(h float64, constraints []*constraint.ContactConstraint) {
	for _, c := range constraints {
		c.SolvePosition(h)
	}
}

func (w *World) update(h float64) {
	task(w.Workers, w.bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

func (w *World) solveVelocity(h float64, constraints []*constraint.ContactConstraint) {
	for _, c := range constraints {
		c.SolveVelocity(h)
	}
}

// trySleep is too cheap per body to be worth a task
func (w *World) trySleep(h float64) {
	for _, body := range w.bodies {
		body.TrySleep(h, sleepTimeThreshold, sleepVelocityThreshold)
	}
}
