package sim

import (
	"github.com/akmonengine/farmtruck/physics"
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// ResponseSettings tunes the reaction to vehicle collisions
type ResponseSettings struct {
	// ImpactThreshold is the vehicle speed under which contacts are ignored
	ImpactThreshold float64
	BounceStrength  float64
	// NudgeFactor scales the vehicle velocity into the impulse given to balls
	NudgeFactor float64
	// GroundName is the static feature that hits silently
	GroundName string
}

func DefaultResponseSettings() ResponseSettings {
	return ResponseSettings{
		ImpactThreshold: 5,
		BounceStrength:  10,
		NudgeFactor:     0.1,
		GroundName:      "plane",
	}
}

type Action string

const (
	// ActionToppled: a fallable body turned dynamic
	ActionToppled Action = "toppled"
	// ActionBounced: the vehicle was pushed away from a static obstacle
	ActionBounced Action = "bounced"
	// ActionNudged: a ball was pushed along the vehicle velocity
	ActionNudged Action = "nudged"
	// ActionTouched: only a sound was played
	ActionTouched Action = "touched"
)

// Outcome describes a handled vehicle collision
type Outcome struct {
	Action  Action           `json:"action"`
	Body    actor.BodyHandle `json:"body"`
	Name    string           `json:"name"`
	Class   string           `json:"class"`
	Speed   float64          `json:"speed"`
	Impulse mgl64.Vec3       `json:"impulse"`
}

// Responder reacts to collisions between the vehicle and registered bodies
type Responder struct {
	registry *Registry
	vehicle  *VehicleRecord
	effects  Effects
	settings ResponseSettings
	logger   zerolog.Logger
}

func NewResponder(registry *Registry, vehicle *VehicleRecord, effects Effects, settings ResponseSettings, logger zerolog.Logger) *Responder {
	if effects == nil {
		effects = NopEffects{}
	}
	return &Responder{
		registry: registry,
		vehicle:  vehicle,
		effects:  effects,
		settings: settings,
		logger:   logger,
	}
}

// Handle applies the response to a started collision. It reports false when
// the event called for no response.
func (r *Responder) Handle(event physics.CollisionEvent) (Outcome, bool) {
	if !event.Started || r.vehicle == nil {
		return Outcome{}, false
	}
	otherCollider, ok := event.Involves(r.vehicle.Collider)
	if !ok {
		r.logger.Debug().
			Uint32("colliderA", uint32(event.ColliderA)).
			Uint32("colliderB", uint32(event.ColliderB)).
			Msg("ignoring collision without the vehicle")
		return Outcome{}, false
	}

	world := r.registry.World()
	vehicleBody, ok := world.Body(r.vehicle.Body)
	if !ok {
		return Outcome{}, false
	}

	speed := vehicleBody.Velocity.Len()
	if speed < r.settings.ImpactThreshold {
		r.logger.Debug().Float64("speed", speed).Msg("ignoring slow impact")
		return Outcome{}, false
	}

	collider, ok := world.Collider(otherCollider)
	if !ok {
		r.logger.Warn().Uint32("collider", uint32(otherCollider)).Msg("collision with an unknown collider")
		return Outcome{}, false
	}
	record, ok := r.registry.Get(collider.Body.Handle)
	if !ok {
		// the ground and anything else left out of the registry
		return Outcome{}, false
	}
	other, ok := world.Body(record.Body)
	if !ok {
		return Outcome{}, false
	}

	outcome := Outcome{Body: record.Body, Name: record.Name, Class: record.Class.String(), Speed: speed}

	switch record.Class {
	case ClassFallable:
		if other.BodyType != actor.BodyTypeStatic {
			return Outcome{}, false
		}
		other.SetType(actor.BodyTypeDynamic)
		if record.Debug != nil {
			record.Debug.Color = ColorToppled
		}
		r.effects.PlayCollisionSound()
		outcome.Action = ActionToppled
		r.logger.Info().Str("name", record.Name).Float64("speed", speed).Msg("fallable toppled")

	case ClassStaticTrimesh, ClassStaticCuboid:
		if record.Name != r.settings.GroundName {
			r.effects.PlayCollisionSound()
		}
		direction := vehicleBody.Transform.Position.Sub(other.Transform.Position)
		direction[1] = 0
		if direction.Len() > 1e-9 {
			outcome.Impulse = direction.Normalize().Mul(r.settings.BounceStrength)
			vehicleBody.ApplyImpulse(outcome.Impulse)
		}
		outcome.Action = ActionBounced
		r.logger.Info().Str("name", record.Name).Float64("speed", speed).Msg("vehicle bounced")

	case ClassUnknownTrimeshStatic:
		r.logger.Debug().Str("name", record.Name).Msg("ignoring unclassified mesh")
		return Outcome{}, false

	default:
		if isBall(other) {
			v := vehicleBody.Velocity
			outcome.Impulse = mgl64.Vec3{v.X() * r.settings.NudgeFactor, 0, v.Z() * r.settings.NudgeFactor}
			other.ApplyImpulse(outcome.Impulse)
			outcome.Action = ActionNudged
		} else {
			outcome.Action = ActionTouched
		}
		r.effects.PlayCollisionSound()
	}

	return outcome, true
}

func isBall(body *actor.RigidBody) bool {
	for _, c := range body.Colliders {
		if _, ok := c.Shape.(*actor.Sphere); ok {
			return true
		}
	}
	return false
}
