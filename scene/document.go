package scene

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const meshSegments = 16

// ErrInvalidScene is returned for documents that do not match the scene schema
var ErrInvalidScene = errors.New("scene: invalid document")

//go:embed scene.schema.json
var schemaSource string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Document is the YAML form of a scene: a named list of root nodes.
// Rotations are XYZ Euler angles in degrees.
type Document struct {
	Name  string    `yaml:"name"`
	Nodes []NodeDoc `yaml:"nodes"`
}

type NodeDoc struct {
	Name     string    `yaml:"name"`
	Position []float64 `yaml:"position"`
	Rotation []float64 `yaml:"rotation"`
	Scale    []float64 `yaml:"scale"`
	Color    string    `yaml:"color"`
	Mesh     *MeshDoc  `yaml:"mesh"`
	Children []NodeDoc `yaml:"children"`
}

type MeshDoc struct {
	Box      []float64    `yaml:"box"`
	Cylinder *CylinderDoc `yaml:"cylinder"`
	Sphere   float64      `yaml:"sphere"`
	Vertices [][]float64  `yaml:"vertices"`
	Indices  []uint32     `yaml:"indices"`
}

type CylinderDoc struct {
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("scene.schema.json", schemaSource)
	})
	return schema, schemaErr
}

// LoadFile reads and builds the scene document at path
func LoadFile(path string) (*Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading scene: %w", err)
	}
	root, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Parse validates a YAML document against the scene schema and builds its
// node tree under a root node carrying the document name
func Parse(raw []byte) (*Node, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	// round trip through JSON so the validator only sees JSON types
	encoded, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	var instance any
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling scene schema: %w", err)
	}
	if err := s.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	return doc.Build()
}

// Build turns the document into a node tree
func (d Document) Build() (*Node, error) {
	root := NewNode(d.Name)
	for _, nd := range d.Nodes {
		node, err := nd.build()
		if err != nil {
			return nil, err
		}
		root.Add(node)
	}
	return root, nil
}

func (nd NodeDoc) build() (*Node, error) {
	node := NewNode(nd.Name)
	if len(nd.Position) == 3 {
		node.Position = vec3(nd.Position)
	}
	if len(nd.Rotation) == 3 {
		node.Rotation = EulerDegrees(vec3(nd.Rotation))
	}
	if len(nd.Scale) == 3 {
		node.Scale = vec3(nd.Scale)
	}
	if nd.Color != "" {
		color, err := ParseColor(nd.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrInvalidScene, nd.Name, err)
		}
		node.Color = color
	}
	if nd.Mesh != nil {
		mesh, err := nd.Mesh.build()
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrInvalidScene, nd.Name, err)
		}
		node.Mesh = mesh
	}

	for _, cd := range nd.Children {
		child, err := cd.build()
		if err != nil {
			return nil, err
		}
		node.Add(child)
	}
	return node, nil
}

func (md MeshDoc) build() (*Mesh, error) {
	switch {
	case len(md.Box) == 3:
		return BoxMesh(vec3(md.Box)), nil
	case md.Cylinder != nil:
		return CylinderMesh(md.Cylinder.Radius, md.Cylinder.Height, meshSegments), nil
	case md.Sphere > 0:
		return SphereMesh(md.Sphere, meshSegments), nil
	}

	mesh := &Mesh{Vertices: make([]mgl64.Vec3, len(md.Vertices)), Indices: md.Indices}
	for i, v := range md.Vertices {
		mesh.Vertices[i] = vec3(v)
	}
	if len(mesh.Indices)%3 != 0 {
		return nil, fmt.Errorf("%d indices do not form triangles", len(mesh.Indices))
	}
	for _, index := range mesh.Indices {
		if int(index) >= len(mesh.Vertices) {
			return nil, fmt.Errorf("index %d out of range", index)
		}
	}
	return mesh, nil
}

// EulerDegrees converts XYZ Euler angles in degrees to a quaternion
func EulerDegrees(angles mgl64.Vec3) mgl64.Quat {
	x := mgl64.QuatRotate(mgl64.DegToRad(angles.X()), mgl64.Vec3{1, 0, 0})
	y := mgl64.QuatRotate(mgl64.DegToRad(angles.Y()), mgl64.Vec3{0, 1, 0})
	z := mgl64.QuatRotate(mgl64.DegToRad(angles.Z()), mgl64.Vec3{0, 0, 1})
	return x.Mul(y).Mul(z).Normalize()
}

// ParseColor reads a "#rrggbb" color
func ParseColor(s string) (uint32, error) {
	if len(s) != 7 || s[0] != '#' {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}

func vec3(v []float64) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}
