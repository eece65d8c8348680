package sim

// Effects receives the fire-and-forget audio and UI cues of a session
type Effects interface {
	PlayCollisionSound()
	PlayHornClick()
	PlayHornPress()
	StopHornPress()
	PlayBrakeSound()
	PlayEngineSound()
	UpdateEngineVolumeAndPitch(speed, maxSpeed float64, boost bool)
	StopEngineSound()
}

// NopEffects drops every cue
type NopEffects struct{}

func (NopEffects) PlayCollisionSound()                               {}
func (NopEffects) PlayHornClick()                                    {}
func (NopEffects) PlayHornPress()                                    {}
func (NopEffects) StopHornPress()                                    {}
func (NopEffects) PlayBrakeSound()                                   {}
func (NopEffects) PlayEngineSound()                                  {}
func (NopEffects) UpdateEngineVolumeAndPitch(float64, float64, bool) {}
func (NopEffects) StopEngineSound()                                  {}
