package sim

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	CameraOverview = iota
	CameraChase
	CameraFront

	cameraModes = 3
	cameraLerp  = 0.1
)

var cameraOffsets = [cameraModes]mgl64.Vec3{
	CameraOverview: {15, 10, 20},
	CameraChase:    {0, 4, 12},
	CameraFront:    {0, 3.5, -10},
}

// Camera follows the vehicle. Only the overview offset ignores the vehicle
// heading.
type Camera struct {
	Mode     int        `json:"mode"`
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`
}

func NewCamera() Camera {
	return Camera{Mode: CameraOverview, Position: cameraOffsets[CameraOverview]}
}

// Cycle switches to the next mode
func (c *Camera) Cycle() {
	c.Mode = (c.Mode + 1) % cameraModes
}

// Follow moves the camera a fraction of the way to its goal behind a vehicle
// at (position, rotation), and aims it at the vehicle
func (c *Camera) Follow(position mgl64.Vec3, rotation mgl64.Quat) {
	offset := cameraOffsets[c.Mode]
	if c.Mode != CameraOverview {
		offset = rotation.Rotate(offset)
	}
	goal := position.Add(offset)
	c.Position = c.Position.Add(goal.Sub(c.Position).Mul(cameraLerp))
	c.Target = position
}
