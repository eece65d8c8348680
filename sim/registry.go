package sim

import (
	"fmt"
	"slices"

	"github.com/akmonengine/farmtruck/physics"
	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/scene"
	"github.com/akmonengine/farmtruck/vehicle"
	"github.com/go-gl/mathgl/mgl64"
)

// Debug colors
const (
	ColorVehicle  uint32 = 0xff00ff
	ColorTrimesh  uint32 = 0xffa500
	ColorCuboid   uint32 = 0x00ff00
	ColorToppled  uint32 = 0xff0000
	ColorTestProp uint32 = 0x00ff00
)

const debugSegments = 16

// BodyRecord pairs a body with its renderable. Node and Debug belong to the
// scene graph; the record only points at them.
type BodyRecord struct {
	Body      actor.BodyHandle
	Collider  actor.ColliderHandle
	Colliders []actor.ColliderHandle
	Name      string
	Class     Classification
	Node      *scene.Node
	Debug     *scene.Node
}

// BodyOptions describes the body behind a record. Use NewBodyOptions for
// sensible defaults.
type BodyOptions struct {
	Name           string
	Class          Classification
	Node           *scene.Node
	Position       mgl64.Vec3
	Rotation       mgl64.Quat
	Dynamic        bool
	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
	CCD            bool
	DebugColor     uint32
}

func NewBodyOptions(name string, position mgl64.Vec3) BodyOptions {
	return BodyOptions{
		Name:         name,
		Position:     position,
		Rotation:     mgl64.QuatIdent(),
		Friction:     0.5,
		GravityScale: 1,
		DebugColor:   ColorCuboid,
	}
}

// Registry owns the mapping from body handles to records. Handles are never
// reused by the world, so a stale key can never alias a new body.
type Registry struct {
	world   *physics.World
	records map[actor.BodyHandle]*BodyRecord
}

func NewRegistry(world *physics.World) *Registry {
	return &Registry{
		world:   world,
		records: make(map[actor.BodyHandle]*BodyRecord),
	}
}

func (r *Registry) World() *physics.World {
	return r.world
}

func (r *Registry) Get(handle actor.BodyHandle) (*BodyRecord, bool) {
	record, ok := r.records[handle]
	return record, ok
}

func (r *Registry) Len() int {
	return len(r.records)
}

// Each visits the records in handle order
func (r *Registry) Each(fn func(*BodyRecord)) {
	handles := make([]actor.BodyHandle, 0, len(r.records))
	for h := range r.records {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	for _, h := range handles {
		fn(r.records[h])
	}
}

// Remove deletes the record and its body
func (r *Registry) Remove(handle actor.BodyHandle) error {
	if _, ok := r.records[handle]; !ok {
		return fmt.Errorf("removing record %d: %w", handle, physics.ErrUnknownBody)
	}
	delete(r.records, handle)
	return r.world.RemoveBody(handle)
}

// Clear forgets every record without touching the world
func (r *Registry) Clear() {
	clear(r.records)
}

// CreateBox registers a body with one box collider
func (r *Registry) CreateBox(halfExtents mgl64.Vec3, opts BodyOptions) (*BodyRecord, error) {
	debug := scene.BoxMesh(halfExtents.Mul(2))
	return r.create(opts, debug, &actor.Box{HalfExtents: halfExtents})
}

func (r *Registry) CreateSphere(radius float64, opts BodyOptions) (*BodyRecord, error) {
	debug := scene.SphereMesh(radius, debugSegments)
	return r.create(opts, debug, &actor.Sphere{Radius: radius})
}

// CreateCylinder registers a Y-aligned cylinder of the given full height
func (r *Registry) CreateCylinder(radius, height float64, opts BodyOptions) (*BodyRecord, error) {
	debug := scene.CylinderMesh(radius, height, debugSegments)
	return r.create(opts, debug, &actor.Cylinder{Radius: radius, HalfHeight: height / 2})
}

// CreateCompoundTrimesh registers one body at opts.Position/Rotation with one
// mesh collider per source mesh, see BuildTrimesh
func (r *Registry) CreateCompoundTrimesh(meshes []*scene.Node, opts BodyOptions) (*BodyRecord, error) {
	opts.Rotation = vehicle.Sanitize(opts.Rotation)
	locals, debug := BuildTrimesh(meshes, opts.Position, opts.Rotation)
	if len(locals) == 0 {
		return nil, fmt.Errorf("trimesh %q: %w", opts.Name, physics.ErrInvalidShape)
	}
	shapes := make([]actor.ShapeInterface, len(locals))
	for i, m := range locals {
		shapes[i] = actor.NewTriangleMesh(m.Vertices, m.Indices)
	}
	return r.create(opts, debug, shapes...)
}

func (r *Registry) create(opts BodyOptions, debugMesh *scene.Mesh, shapes ...actor.ShapeInterface) (*BodyRecord, error) {
	bodyType := actor.BodyTypeStatic
	if opts.Dynamic {
		bodyType = actor.BodyTypeDynamic
	}
	desc := physics.NewBodyDesc(bodyType)
	desc.Position = opts.Position
	desc.Rotation = vehicle.Sanitize(opts.Rotation)
	desc.LinearDamping = opts.LinearDamping
	desc.AngularDamping = opts.AngularDamping
	desc.GravityScale = opts.GravityScale
	desc.CCD = opts.CCD

	handle, err := r.world.CreateBody(desc)
	if err != nil {
		return nil, fmt.Errorf("creating body %q: %w", opts.Name, err)
	}

	record := &BodyRecord{
		Body:  handle,
		Name:  opts.Name,
		Class: opts.Class,
		Node:  opts.Node,
	}
	for _, shape := range shapes {
		cd := physics.NewColliderDesc(shape)
		cd.Friction = opts.Friction
		cd.Restitution = opts.Restitution
		cd.ActiveEvents = true
		collider, err := r.world.CreateCollider(cd, handle)
		if err != nil {
			_ = r.world.RemoveBody(handle)
			return nil, fmt.Errorf("creating collider for %q: %w", opts.Name, err)
		}
		record.Colliders = append(record.Colliders, collider)
	}
	record.Collider = record.Colliders[0]

	record.Debug = scene.NewMeshNode(opts.Name+"_debug", debugMesh)
	record.Debug.Color = opts.DebugColor
	record.Debug.Position = desc.Position
	record.Debug.Rotation = desc.Rotation
	record.Debug.Visible = false

	r.records[handle] = record
	return record, nil
}

// BuildTrimesh expresses the vertices of meshes in the frame at
// (position, rotation). It returns one mesh per source mesh, for the
// colliders, and their concatenation with offset indices, for the debug
// visual. Meshes without vertices or indices are left out.
func BuildTrimesh(meshes []*scene.Node, position mgl64.Vec3, rotation mgl64.Quat) ([]*scene.Mesh, *scene.Mesh) {
	frame := mgl64.Translate3D(position.X(), position.Y(), position.Z()).Mul4(rotation.Mat4())
	inverse := frame.Inv()

	var locals []*scene.Mesh
	combined := &scene.Mesh{}
	for _, node := range meshes {
		if node.Mesh == nil || len(node.Mesh.Vertices) == 0 || len(node.Mesh.Indices) == 0 {
			continue
		}
		offset := uint32(len(combined.Vertices))

		local := &scene.Mesh{
			Vertices: make([]mgl64.Vec3, 0, len(node.Mesh.Vertices)),
			Indices:  slices.Clone(node.Mesh.Indices),
		}
		for _, v := range node.WorldVertices() {
			local.Vertices = append(local.Vertices, mgl64.TransformCoordinate(v, inverse))
		}
		locals = append(locals, local)

		combined.Vertices = append(combined.Vertices, local.Vertices...)
		for _, index := range local.Indices {
			combined.Indices = append(combined.Indices, index+offset)
		}
	}
	return locals, combined
}
