// Package vehicle drives the player vehicle body from the held keys.
package vehicle

import (
	"math"

	"github.com/akmonengine/farmtruck/input"
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/scene"
	"github.com/go-gl/mathgl/mgl64"
)

// wheelTimeScale turns the spin rate into a per-tick increment
const wheelTimeScale = 0.1

var (
	canonicalForward = mgl64.Vec3{0, 0, -1}
	up               = mgl64.Vec3{0, 1, 0}
)

// Settings tunes the controller
type Settings struct {
	Speed         float64
	RotationSpeed float64
	Boost         float64
	ReverseFactor float64
	RollingDecay  float64
	MaxSteerAngle float64
	SteerLerp     float64
	WheelFactor   float64
}

func DefaultSettings() Settings {
	return Settings{
		Speed:         15,
		RotationSpeed: 2,
		Boost:         1.5,
		ReverseFactor: 0.5,
		RollingDecay:  0.9,
		MaxSteerAngle: math.Pi / 6,
		SteerLerp:     0.1,
		WheelFactor:   0.5,
	}
}

// Input is the controller view of the keyboard for one tick
type Input struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool
	Boost   bool
	Brake   bool
}

// ReadInput samples the driving keys
func ReadInput(k *input.Keyboard) Input {
	return Input{
		Forward: k.Any(input.ArrowUp, input.KeyW),
		Back:    k.Any(input.ArrowDown, input.KeyS),
		Left:    k.Any(input.ArrowLeft, input.KeyA),
		Right:   k.Any(input.ArrowRight, input.KeyD),
		Boost:   k.Pressed(input.KeyB),
		Brake:   k.Pressed(input.Space),
	}
}

// Throttle reports whether forward or back is held
func (in Input) Throttle() bool {
	return in.Forward || in.Back
}

// Wheels are the animated nodes of a vehicle model. Any of them may be nil.
type Wheels struct {
	// steering groups, turned about Y
	FrontLeft  *scene.Node
	FrontRight *scene.Node
	// rolling meshes, turned about X
	Left  *scene.Node
	Right *scene.Node
	Back  *scene.Node
}

// FindWheels looks the wheel nodes up by name. The rolling front meshes are
// searched inside their steering group.
func FindWheels(model *scene.Node) Wheels {
	w := Wheels{
		FrontLeft:  model.Find("FrontWheel_L"),
		FrontRight: model.Find("FrontWheel_R"),
		Back:       model.Find("BackWheels"),
	}
	if w.FrontLeft != nil {
		w.Left = w.FrontLeft.Find("Wheel_L")
	}
	if w.FrontRight != nil {
		w.Right = w.FrontRight.Find("Wheel_R")
	}
	return w
}

type Controller struct {
	body     *actor.RigidBody
	settings Settings
	wheels   Wheels

	// rest orientation of each wheel node
	base map[*scene.Node]mgl64.Quat

	spin  float64
	steer float64
}

func NewController(body *actor.RigidBody, settings Settings, wheels Wheels) *Controller {
	c := &Controller{
		body:     body,
		settings: settings,
		wheels:   wheels,
		base:     make(map[*scene.Node]mgl64.Quat),
	}
	for _, n := range []*scene.Node{wheels.FrontLeft, wheels.FrontRight, wheels.Left, wheels.Right, wheels.Back} {
		if n != nil {
			c.base[n] = n.Rotation
		}
	}
	return c
}

func (c *Controller) Body() *actor.RigidBody {
	return c.body
}

// SteerAngle is the current front wheel yaw, in radians
func (c *Controller) SteerAngle() float64 {
	return c.steer
}

// WheelSpin is the accumulated wheel roll, in radians
func (c *Controller) WheelSpin() float64 {
	return c.spin
}

// Update sets the body velocities from in, keeps the vertical velocity, and
// forces the body upright
func (c *Controller) Update(in Input) {
	if c.body == nil {
		return
	}
	s := c.settings

	forward := Forward(c.body.Transform.Rotation)
	velocity := c.body.Velocity
	vx, vz := velocity.X(), velocity.Z()

	boost, stop := 1.0, 1.0
	if in.Brake {
		stop = 0
	}

	var moveSpeed float64
	switch {
	case in.Forward:
		if in.Boost {
			boost = s.Boost
		}
		k := s.Speed * boost * stop
		vx, vz = -forward.X()*k, -forward.Z()*k
		moveSpeed = k
	case in.Back:
		k := s.Speed * s.ReverseFactor * stop
		vx, vz = forward.X()*k, forward.Z()*k
		moveSpeed = -s.Speed * stop
	default:
		vx, vz = vx*s.RollingDecay, vz*s.RollingDecay
		moveSpeed = math.Hypot(velocity.X(), velocity.Z())
		// moving along forward means reversing
		if forward.Dot(mgl64.Vec3{velocity.X(), 0, velocity.Z()}) > 0 {
			moveSpeed = -moveSpeed
		}
	}

	steerInput := 0.0
	if in.Left {
		steerInput = 1
	} else if in.Right {
		steerInput = -1
	}

	// reversing steers the other way, even with forward held
	yawRate := steerInput * s.RotationSpeed * boost * stop
	if in.Back {
		yawRate = -yawRate
	}

	c.body.SetLinearVelocity(mgl64.Vec3{vx, velocity.Y(), vz})
	c.body.SetAngularVelocity(mgl64.Vec3{0, yawRate, 0})
	c.body.SetRotation(Stabilize(c.body.Transform.Rotation))

	c.spin += moveSpeed * s.WheelFactor / (2 * math.Pi) * wheelTimeScale
	target := steerInput * s.MaxSteerAngle
	c.steer += (target - c.steer) * s.SteerLerp
	c.steer = mgl64.Clamp(c.steer, -s.MaxSteerAngle, s.MaxSteerAngle)

	c.poseWheels()
}

// ResetMovement stops the body and centers the steering
func (c *Controller) ResetMovement() {
	if c.body != nil {
		c.body.SetLinearVelocity(mgl64.Vec3{})
		c.body.SetAngularVelocity(mgl64.Vec3{})
	}
	c.steer = 0
	c.poseWheels()
}

func (c *Controller) poseWheels() {
	roll := mgl64.QuatRotate(c.spin, mgl64.Vec3{1, 0, 0})
	for _, n := range []*scene.Node{c.wheels.Left, c.wheels.Right, c.wheels.Back} {
		if n != nil {
			n.Rotation = c.base[n].Mul(roll)
		}
	}

	turn := mgl64.QuatRotate(c.steer, up)
	for _, n := range []*scene.Node{c.wheels.FrontLeft, c.wheels.FrontRight} {
		if n != nil {
			n.Rotation = c.base[n].Mul(turn)
		}
	}
}

// Forward returns the canonical forward axis rotated by rotation
func Forward(rotation mgl64.Quat) mgl64.Vec3 {
	return rotation.Rotate(canonicalForward)
}

// Yaw extracts the rotation about Y, decomposing in YXZ order
func Yaw(q mgl64.Quat) float64 {
	z := q.Rotate(mgl64.Vec3{0, 0, 1})
	if math.Abs(z.Y()) < 0.9999999 {
		return math.Atan2(z.X(), z.Z())
	}
	// gimbal lock: read the yaw from the X axis instead
	x := q.Rotate(mgl64.Vec3{1, 0, 0})
	return math.Atan2(-x.Z(), x.X())
}

// Stabilize drops pitch and roll, keeping only the yaw of q
func Stabilize(q mgl64.Quat) mgl64.Quat {
	return mgl64.QuatRotate(Yaw(Sanitize(q)), up)
}

// Sanitize returns the normalized q, or the identity when q is not a valid
// rotation
func Sanitize(q mgl64.Quat) mgl64.Quat {
	if !ValidRotation(q) {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

// ValidRotation reports whether q is finite and long enough to normalize
func ValidRotation(q mgl64.Quat) bool {
	for _, c := range [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return q.Len() >= 1e-12
}
