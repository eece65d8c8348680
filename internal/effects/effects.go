// Package effects turns the audio and UI cues of a session into structured
// log events and metrics. It keeps the engine and horn state a sound player
// would hold.
package effects

import (
	"context"
	"math"
	"sync"

	"github.com/akmonengine/farmtruck/internal/telemetry"
	"github.com/rs/zerolog"
)

const (
	engineBaseVolume = 0.25
	engineBaseRate   = 0.8
	engineRateRange  = 0.4
	boostVolume      = 1.5
)

// Effect names, as counted and logged
const (
	Collision = "collision"
	HornClick = "horn_click"
	HornPress = "horn_press"
	HornStop  = "horn_stop"
	Brake     = "brake"
	Engine    = "engine"
	EngineOff = "engine_off"
)

// EngineState is the state of the looping engine sound
type EngineState struct {
	Playing bool
	Volume  float64
	Rate    float64
}

// Sink is safe for concurrent use: key listeners fire it from transport
// goroutines while the tick loop drives the engine.
type Sink struct {
	log     zerolog.Logger
	metrics *telemetry.Metrics

	mu     sync.Mutex
	engine EngineState
	horn   bool
	counts map[string]int
}

func New(log zerolog.Logger, metrics *telemetry.Metrics) *Sink {
	return &Sink{
		log:     log.With().Str("component", "effects").Logger(),
		metrics: metrics,
		counts:  make(map[string]int),
	}
}

func (s *Sink) fire(effect string) {
	s.counts[effect]++
	s.metrics.Effect(context.Background(), effect)
	s.log.Debug().Str("effect", effect).Msg("cue")
}

// PlayCollisionSound restarts the collision sound
func (s *Sink) PlayCollisionSound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire(Collision)
}

func (s *Sink) PlayHornClick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire(HornClick)
}

func (s *Sink) PlayHornPress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.horn {
		return
	}
	s.horn = true
	s.fire(HornPress)
}

func (s *Sink) StopHornPress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.horn {
		return
	}
	s.horn = false
	s.fire(HornStop)
}

func (s *Sink) PlayBrakeSound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire(Brake)
}

// PlayEngineSound starts the engine loop unless it already plays
func (s *Sink) PlayEngineSound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.Playing {
		return
	}
	s.engine.Playing = true
	s.engine.Rate = engineBaseRate
	s.fire(Engine)
}

// UpdateEngineVolumeAndPitch scales the engine loop with the speed ratio
func (s *Sink) UpdateEngineVolumeAndPitch(speed, maxSpeed float64, boost bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ratio := 0.0
	if maxSpeed > 0 {
		ratio = math.Min(math.Abs(speed)/maxSpeed, 1)
	}
	volume := ratio * engineBaseVolume
	if boost {
		volume *= boostVolume
	}
	s.engine.Volume = volume
	s.engine.Rate = engineBaseRate + ratio*engineRateRange
}

func (s *Sink) StopEngineSound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.Playing {
		return
	}
	s.engine = EngineState{}
	s.fire(EngineOff)
}

func (s *Sink) Engine() EngineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Sink) HornHeld() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.horn
}

// Count returns how many times effect fired
func (s *Sink) Count(effect string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[effect]
}
