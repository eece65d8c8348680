package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/akmonengine/farmtruck/input"
	"github.com/akmonengine/farmtruck/internal/config"
	"github.com/akmonengine/farmtruck/internal/telemetry"
	"github.com/akmonengine/farmtruck/physics"
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/scene"
	"github.com/akmonengine/farmtruck/vehicle"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	groundFriction = 0.9
	// horizontal speed under which the vehicle counts as stopped
	movingSpeed = 0.1
)

// Request is something the session asks its owner to do
type Request int

const (
	RequestReload Request = iota + 1
	RequestExit
)

func (r Request) String() string {
	switch r {
	case RequestReload:
		return "reload"
	case RequestExit:
		return "exit"
	}
	return "none"
}

// Journal records handled collisions
type Journal interface {
	Write(v any) error
	Close() error
}

// JournalEntry is one journal line
type JournalEntry struct {
	Session string    `json:"session"`
	Tick    uint64    `json:"tick"`
	Time    time.Time `json:"time"`
	Outcome
}

// Options configure NewSession. Farm and Vehicle are loaded from the scene
// paths of Config when nil.
type Options struct {
	Config   config.Config
	Logger   zerolog.Logger
	Effects  Effects
	Keyboard *input.Keyboard
	Journal  Journal
	Metrics  *telemetry.Metrics

	Farm    *scene.Node
	Vehicle *scene.Node
}

// Session is one drive: a world, its farm, the vehicle and the key bindings.
// Tick, Snapshot and Close may be called from any goroutine.
type Session struct {
	ID string

	mu         sync.Mutex
	sim        *Simulation
	controller *vehicle.Controller
	settings   vehicle.Settings
	keyboard   *input.Keyboard
	listener   input.ListenerID
	effects    Effects
	journal    Journal
	metrics    *telemetry.Metrics
	logger     zerolog.Logger

	camera   Camera
	tick     uint64
	orbit    bool
	debug    bool
	engineOn bool
	closed   bool

	requests chan Request
}

// NewSession builds the world and everything in it. Any asset failure aborts
// the session.
func NewSession(opts Options) (*Session, error) {
	cfg := opts.Config
	id := uuid.NewString()
	logger := opts.Logger.With().Str("session", id).Logger()

	effects := opts.Effects
	if effects == nil {
		effects = NopEffects{}
	}
	keyboard := opts.Keyboard
	if keyboard == nil {
		keyboard = input.NewKeyboard()
	}

	farm, model, err := loadAssets(cfg, opts.Farm, opts.Vehicle)
	if err != nil {
		return nil, err
	}

	world := physics.NewWorld(physicsConfig(cfg.Physics))
	simulation := NewSimulation(world, scene.NewNode("root"), effects, responseSettings(cfg.Response), logger)

	s := &Session{
		ID:       id,
		sim:      simulation,
		settings: vehicleSettings(cfg.Vehicle),
		keyboard: keyboard,
		effects:  effects,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		logger:   logger,
		camera:   NewCamera(),
		requests: make(chan Request, 1),
	}

	if err := s.build(cfg, farm, model); err != nil {
		simulation.Free()
		return nil, err
	}

	s.listener = keyboard.On(s.onKey)
	s.logger.Info().
		Int("bodies", world.NumBodies()).
		Int("colliders", world.NumColliders()).
		Msg("session started")
	return s, nil
}

func (s *Session) build(cfg config.Config, farm, model *scene.Node) error {
	ground := physics.NewColliderDesc(&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}})
	ground.Friction = groundFriction
	ground.ActiveEvents = true
	if _, err := s.sim.World.CreateCollider(ground, physics.WorldAnchor); err != nil {
		return fmt.Errorf("creating ground: %w", err)
	}

	farm.Position = vec3(cfg.Scene.Offset, mgl64.Vec3{})
	classifier := NewClassifier(NameTable{
		Trimesh:       cfg.Classification.Trimesh,
		Fallable:      cfg.Classification.Fallable,
		StaticFeature: cfg.Classification.StaticFeature,
		Skip:          cfg.Classification.Skip,
	})
	summary, err := s.sim.LoadFarm(farm, classifier)
	if err != nil {
		return err
	}
	s.logger.Info().
		Int("fallable", summary.Classes[ClassFallable]).
		Int("static_trimesh", summary.Classes[ClassStaticTrimesh]).
		Int("static_cuboid", summary.Classes[ClassStaticCuboid]).
		Int("unknown", summary.Classes[ClassUnknownTrimeshStatic]).
		Int("skipped", len(summary.Skipped)).
		Msg("farm loaded")

	record, err := s.sim.SpawnVehicle(model, vehicleSpec(cfg.Vehicle))
	if err != nil {
		return err
	}
	body, ok := s.sim.World.Body(record.Body)
	if !ok {
		return ErrNoVehicle
	}
	s.controller = vehicle.NewController(body, s.settings, vehicle.FindWheels(model))

	if cfg.Scene.TestProps {
		if _, err := s.sim.SpawnTestProps(); err != nil {
			return err
		}
	}
	return nil
}

func loadAssets(cfg config.Config, farm, model *scene.Node) (*scene.Node, *scene.Node, error) {
	var err error
	if farm == nil {
		farm, err = scene.LoadFile(cfg.Scene.Farm)
		if err != nil {
			return nil, nil, err
		}
	}
	if model == nil {
		path, ok := cfg.Scene.ModelPath(cfg.Vehicle.Model)
		if !ok {
			return nil, nil, fmt.Errorf("unknown vehicle model %q", cfg.Vehicle.Model)
		}
		model, err = scene.LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
	}
	return farm, model, nil
}

// Simulation exposes the world and registry. Callers must not use it
// concurrently with Tick.
func (s *Session) Simulation() *Simulation {
	return s.sim
}

func (s *Session) Controller() *vehicle.Controller {
	return s.controller
}

// Requests delivers reload and exit requests. A request is dropped while
// another one is pending.
func (s *Session) Requests() <-chan Request {
	return s.requests
}

func (s *Session) request(r Request) {
	select {
	case s.requests <- r:
	default:
	}
}

// Tick runs one frame: drive the vehicle, step the world and respond to its
// collisions, sync the scene, then update the engine sound and the camera
func (s *Session) Tick(ctx context.Context) ([]Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	in := vehicle.ReadInput(s.keyboard)
	if s.orbit {
		s.controller.ResetMovement()
	} else {
		s.controller.Update(in)
	}

	outcomes := s.sim.Step()
	for _, outcome := range outcomes {
		s.metrics.Collision(ctx, string(outcome.Action))
		if s.journal != nil {
			entry := JournalEntry{Session: s.ID, Tick: s.tick, Time: time.Now().UTC(), Outcome: outcome}
			if err := s.journal.Write(entry); err != nil {
				s.logger.Error().Err(err).Msg("journal write failed")
			}
		}
	}

	s.sim.Sync()

	if body, err := s.sim.VehicleBody(); err == nil {
		s.driveEngine(body, in)
		s.camera.Follow(body.Transform.Position, body.Transform.Rotation)
	}

	s.tick++
	s.metrics.Tick(ctx)
	return outcomes, nil
}

func (s *Session) driveEngine(body *actor.RigidBody, in vehicle.Input) {
	if s.orbit {
		s.stopEngine()
		return
	}
	speed := horizontalSpeed(body)
	if speed > movingSpeed || in.Throttle() {
		if !s.engineOn {
			s.effects.PlayEngineSound()
			s.engineOn = true
		}
		maxSpeed := s.settings.Speed
		if in.Boost {
			maxSpeed *= s.settings.Boost
		}
		s.effects.UpdateEngineVolumeAndPitch(speed, maxSpeed, in.Boost)
		return
	}
	s.stopEngine()
}

func (s *Session) stopEngine() {
	if s.engineOn {
		s.effects.StopEngineSound()
		s.engineOn = false
	}
}

func horizontalSpeed(body *actor.RigidBody) float64 {
	return math.Hypot(body.Velocity.X(), body.Velocity.Z())
}

func (s *Session) onKey(code string, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if code == input.KeyH {
		if pressed {
			s.effects.PlayHornClick()
			s.effects.PlayHornPress()
		} else {
			s.effects.StopHornPress()
		}
		return
	}
	if !pressed {
		return
	}

	switch code {
	case input.KeyP:
		s.debug = !s.debug
		s.sim.SetDebugVisible(s.debug)
		s.logger.Info().Bool("visible", s.debug).Msg("debug visuals toggled")
	case input.KeyO:
		s.camera.Cycle()
		s.logger.Info().Int("mode", s.camera.Mode).Msg("camera mode changed")
	case input.KeyV:
		s.orbit = !s.orbit
		if s.orbit {
			s.controller.ResetMovement()
			s.stopEngine()
		}
		s.logger.Info().Bool("orbit", s.orbit).Msg("orbit mode toggled")
	case input.Space:
		if body, err := s.sim.VehicleBody(); err == nil && horizontalSpeed(body) > movingSpeed {
			s.effects.PlayBrakeSound()
		}
	case input.KeyR:
		s.request(RequestReload)
	case input.Escape:
		s.request(RequestExit)
	}
}

// Snapshot captures the vehicle, the camera and every dynamic body
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		Session: s.ID,
		Tick:    s.tick,
		Camera:  s.camera,
		Orbit:   s.orbit,
		Debug:   s.debug,
	}
	if s.closed {
		return snapshot
	}
	if body, err := s.sim.VehicleBody(); err == nil {
		snapshot.Vehicle = &VehicleState{
			Position: body.Transform.Position,
			Rotation: quat(body.Transform.Rotation),
			Velocity: body.Velocity,
			Speed:    horizontalSpeed(body),
			Steer:    s.controller.SteerAngle(),
			Spin:     s.controller.WheelSpin(),
		}
	}
	snapshot.Bodies = s.sim.Bodies()
	return snapshot
}

// Close frees the world and detaches the session from the keyboard. Closing
// twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.keyboard.Off(s.listener)
	s.stopEngine()
	s.effects.StopHornPress()
	s.sim.Free()

	var err error
	if s.journal != nil {
		if err = s.journal.Close(); err != nil {
			err = fmt.Errorf("closing journal: %w", err)
		}
	}
	s.logger.Info().Uint64("ticks", s.tick).Msg("session closed")
	return err
}

func physicsConfig(c config.PhysicsConfig) physics.Config {
	return physics.Config{
		Gravity:   vec3(c.Gravity, physics.DefaultConfig().Gravity),
		Timestep:  c.Timestep,
		Substeps:  c.Substeps,
		Workers:   c.Workers,
		CellSize:  c.CellSize,
		GridCells: c.GridCells,
	}
}

func responseSettings(c config.ResponseConfig) ResponseSettings {
	return ResponseSettings{
		ImpactThreshold: c.ImpactThreshold,
		BounceStrength:  c.BounceStrength,
		NudgeFactor:     c.NudgeFactor,
		GroundName:      c.GroundName,
	}
}

func vehicleSettings(c config.VehicleConfig) vehicle.Settings {
	return vehicle.Settings{
		Speed:         c.Speed,
		RotationSpeed: c.RotationSpeed,
		Boost:         c.Boost,
		ReverseFactor: c.ReverseFactor,
		RollingDecay:  c.RollingDecay,
		MaxSteerAngle: c.MaxSteerAngle,
		SteerLerp:     c.SteerLerp,
		WheelFactor:   c.WheelFactor,
	}
}

func vehicleSpec(c config.VehicleConfig) VehicleSpec {
	defaults := DefaultVehicleSpec()
	return VehicleSpec{
		Position:       vec3(c.Spawn, defaults.Position),
		HalfExtents:    vec3(c.HalfExtents, defaults.HalfExtents),
		Friction:       c.Friction,
		Restitution:    c.Restitution,
		LinearDamping:  c.LinearDamping,
		AngularDamping: c.AngularDamping,
		GravityScale:   c.GravityScale,
		CCD:            c.CCD,
		Color:          c.Color,
		Texture:        c.Texture,
	}
}

// vec3 reads a three element config list, or returns fallback
func vec3(v []float64, fallback mgl64.Vec3) mgl64.Vec3 {
	if len(v) != 3 {
		return fallback
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}
