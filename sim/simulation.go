// Package sim keeps a physics world and a scene graph in step: it builds
// colliders for the farm scene, reacts to vehicle collisions and copies body
// poses back onto their renderables.
package sim

import (
	"errors"

	"github.com/akmonengine/farmtruck/physics"
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/scene"
	"github.com/rs/zerolog"
)

var (
	ErrNoVehicle     = errors.New("sim: no vehicle spawned")
	ErrSessionClosed = errors.New("sim: session closed")
)

// VehicleRecord is the player vehicle. It is also registered as a regular
// BodyRecord with ClassVehicle.
type VehicleRecord struct {
	Body     actor.BodyHandle
	Collider actor.ColliderHandle
	Node     *scene.Node
	Debug    *scene.Node
}

// Simulation owns a world, its registry and the scene the bodies render into.
// It is not safe for concurrent use.
type Simulation struct {
	World    *physics.World
	Registry *Registry
	Scene    *scene.Node
	Vehicle  *VehicleRecord

	effects   Effects
	settings  ResponseSettings
	responder *Responder
	logger    zerolog.Logger
}

func NewSimulation(world *physics.World, root *scene.Node, effects Effects, settings ResponseSettings, logger zerolog.Logger) *Simulation {
	if effects == nil {
		effects = NopEffects{}
	}
	return &Simulation{
		World:    world,
		Registry: NewRegistry(world),
		Scene:    root,
		effects:  effects,
		settings: settings,
		logger:   logger,
	}
}

// track adds the debug visual of record to the scene
func (s *Simulation) track(record *BodyRecord) {
	if s.Scene != nil && record.Debug != nil {
		s.Scene.Add(record.Debug)
	}
}

// Step advances the world by one tick, then hands every collision queued
// during the tick to the responder. Responses are applied before Step
// returns, so the next Sync sees them.
func (s *Simulation) Step() []Outcome {
	s.World.Step()

	var outcomes []Outcome
	s.World.DrainEvents(func(event physics.Event) {
		switch e := event.(type) {
		case physics.CollisionEvent:
			if s.responder == nil {
				return
			}
			if outcome, ok := s.responder.Handle(e); ok {
				outcomes = append(outcomes, outcome)
			}
		case physics.SleepEvent:
			s.logger.Debug().Uint32("body", uint32(e.Body)).Msg("body asleep")
		case physics.WakeEvent:
			s.logger.Debug().Uint32("body", uint32(e.Body)).Msg("body awake")
		}
	})
	return outcomes
}

// Sync copies body poses onto the renderables. The vehicle lives at the
// scene root and takes its pose as is. Other bodies are only synced while
// dynamic, through the inverse of their renderable's parent transform.
func (s *Simulation) Sync() {
	if v := s.Vehicle; v != nil {
		if body, ok := s.World.Body(v.Body); ok {
			position, rotation := body.Transform.Position, body.Transform.Rotation
			if v.Node != nil {
				v.Node.Position, v.Node.Rotation = position, rotation
			}
			if v.Debug != nil {
				v.Debug.Position, v.Debug.Rotation = position, rotation
			}
		}
	}

	s.Registry.Each(func(record *BodyRecord) {
		if record.Class == ClassVehicle {
			return
		}
		body, ok := s.World.Body(record.Body)
		if !ok || body.BodyType == actor.BodyTypeStatic {
			return
		}
		position, rotation := body.Transform.Position, body.Transform.Rotation
		if record.Node != nil {
			record.Node.SetWorldTransform(position, rotation)
		}
		if record.Debug != nil {
			record.Debug.Position, record.Debug.Rotation = position, rotation
		}
	})
}

// SetDebugVisible shows or hides every debug visual
func (s *Simulation) SetDebugVisible(visible bool) {
	s.Registry.Each(func(record *BodyRecord) {
		if record.Debug != nil {
			record.Debug.Visible = visible
		}
	})
}

// VehicleBody returns the live body of the vehicle
func (s *Simulation) VehicleBody() (*actor.RigidBody, error) {
	if s.Vehicle == nil {
		return nil, ErrNoVehicle
	}
	body, ok := s.World.Body(s.Vehicle.Body)
	if !ok {
		return nil, ErrNoVehicle
	}
	return body, nil
}

// Free releases the world and forgets every record
func (s *Simulation) Free() {
	s.World.Free()
	s.Registry.Clear()
	s.Vehicle = nil
	s.responder = nil
}
