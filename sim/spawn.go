package sim

import (
	"errors"
	"fmt"

	"github.com/akmonengine/farmtruck/scene"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrVehicleExists = errors.New("sim: vehicle already spawned")

// skinNode is the part of a vehicle model that takes the chosen color or texture
const skinNode = "Skin"

// VehicleSpec describes the body of the player vehicle and its paint
type VehicleSpec struct {
	Position       mgl64.Vec3
	HalfExtents    mgl64.Vec3
	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
	CCD            bool

	// Color is a "#rrggbb" tint, ignored when Texture is set
	Color   string
	Texture string
}

func DefaultVehicleSpec() VehicleSpec {
	return VehicleSpec{
		Position:       mgl64.Vec3{0, 5, 0},
		HalfExtents:    mgl64.Vec3{1.2, 0.8, 2.5},
		Friction:       1.0,
		Restitution:    0.05,
		LinearDamping:  0.5,
		AngularDamping: 1.5,
		GravityScale:   3,
		CCD:            true,
	}
}

// SpawnVehicle creates the vehicle body under model, paints the model and
// puts it at the scene root. Collision responses start once the vehicle
// exists.
func (s *Simulation) SpawnVehicle(model *scene.Node, spec VehicleSpec) (*VehicleRecord, error) {
	if s.Vehicle != nil {
		return nil, ErrVehicleExists
	}
	if err := paint(model, spec); err != nil {
		return nil, fmt.Errorf("painting vehicle %q: %w", model.Name, err)
	}

	opts := NewBodyOptions(model.Name, spec.Position)
	opts.Class = ClassVehicle
	opts.Node = model
	opts.Dynamic = true
	opts.Friction = spec.Friction
	opts.Restitution = spec.Restitution
	opts.LinearDamping = spec.LinearDamping
	opts.AngularDamping = spec.AngularDamping
	opts.GravityScale = spec.GravityScale
	opts.CCD = spec.CCD
	opts.DebugColor = ColorVehicle

	record, err := s.Registry.CreateBox(spec.HalfExtents, opts)
	if err != nil {
		return nil, fmt.Errorf("spawning vehicle: %w", err)
	}

	if parent := model.Parent(); parent != nil {
		parent.Remove(model)
	}
	model.Position = spec.Position
	model.Rotation = mgl64.QuatIdent()
	if s.Scene != nil {
		s.Scene.Add(model)
	}
	s.track(record)

	s.Vehicle = &VehicleRecord{
		Body:     record.Body,
		Collider: record.Collider,
		Node:     model,
		Debug:    record.Debug,
	}
	s.responder = NewResponder(s.Registry, s.Vehicle, s.effects, s.settings, s.logger)

	s.logger.Info().Str("model", model.Name).Uint32("body", uint32(record.Body)).Msg("vehicle spawned")
	return s.Vehicle, nil
}

func paint(model *scene.Node, spec VehicleSpec) error {
	skin := model.Find(skinNode)
	if skin == nil {
		return nil
	}
	if spec.Texture != "" {
		skin.Texture = spec.Texture
		return nil
	}
	if spec.Color == "" {
		return nil
	}
	color, err := scene.ParseColor(spec.Color)
	if err != nil {
		return err
	}
	skin.Color = color
	return nil
}
