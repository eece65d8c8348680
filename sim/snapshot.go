package sim

import (
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyState is the pose of one dynamic body
type BodyState struct {
	Body     actor.BodyHandle `json:"body"`
	Name     string           `json:"name"`
	Class    string           `json:"class"`
	Position mgl64.Vec3       `json:"position"`
	Rotation [4]float64       `json:"rotation"`
	Sleeping bool             `json:"sleeping"`
}

type VehicleState struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation [4]float64 `json:"rotation"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Speed    float64    `json:"speed"`
	Steer    float64    `json:"steer"`
	Spin     float64    `json:"spin"`
}

// Snapshot is what clients render from
type Snapshot struct {
	Session string        `json:"session"`
	Tick    uint64        `json:"tick"`
	Vehicle *VehicleState `json:"vehicle,omitempty"`
	Camera  Camera        `json:"camera"`
	Bodies  []BodyState   `json:"bodies"`
	Orbit   bool          `json:"orbit"`
	Debug   bool          `json:"debug"`
}

// quat flattens q as x, y, z, w
func quat(q mgl64.Quat) [4]float64 {
	return [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W}
}

// Bodies lists the dynamic bodies other than the vehicle, in handle order
func (s *Simulation) Bodies() []BodyState {
	var states []BodyState
	s.Registry.Each(func(record *BodyRecord) {
		if record.Class == ClassVehicle {
			return
		}
		body, ok := s.World.Body(record.Body)
		if !ok || body.BodyType == actor.BodyTypeStatic {
			return
		}
		states = append(states, BodyState{
			Body:     record.Body,
			Name:     record.Name,
			Class:    record.Class.String(),
			Position: body.Transform.Position,
			Rotation: quat(body.Transform.Rotation),
			Sleeping: body.IsSleeping,
		})
	})
	return states
}
