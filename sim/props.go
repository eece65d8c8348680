package sim

import (
	"fmt"
	"math"

	"github.com/akmonengine/farmtruck/scene"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	wallRows, wallColumns = 5, 5
	pyramidLayers         = 5
	stackColumns          = 2
	stackRows             = 2
	stackHeight           = 3
)

// SpawnTestProps drops a ball, a wall of boxes, a pyramid and stacks of
// cylinders west of the spawn point. Props are unclassified dynamic bodies
// whose renderables sit at the scene root.
func (s *Simulation) SpawnTestProps() ([]*BodyRecord, error) {
	var records []*BodyRecord
	add := func(record *BodyRecord, err error) error {
		if err != nil {
			return fmt.Errorf("spawning test props: %w", err)
		}
		if s.Scene != nil && record.Node != nil {
			s.Scene.Add(record.Node)
		}
		s.track(record)
		records = append(records, record)
		return nil
	}

	ball := s.propOptions("ball", mgl64.Vec3{-50, 3, 0}, 0.1, scene.SphereMesh(1, debugSegments))
	if err := add(s.Registry.CreateSphere(1, ball)); err != nil {
		return records, err
	}

	wallBrick := mgl64.Vec3{1, 1, 1.5}
	for i := 0; i < wallRows; i++ {
		for j := 0; j < wallColumns; j++ {
			position := mgl64.Vec3{-150, 0.5 + float64(i), -1.75 + float64(j)*1.5 + 0.75}
			opts := s.propOptions(fmt.Sprintf("wall_%d_%d", i, j), position, 0.9, scene.BoxMesh(wallBrick))
			if err := add(s.Registry.CreateBox(wallBrick.Mul(0.5), opts)); err != nil {
				return records, err
			}
		}
	}

	for layer := 0; layer < pyramidLayers; layer++ {
		n := pyramidLayers - layer
		start := -3 + (7.5-float64(n)*1.5)/2
		for b := 0; b < n; b++ {
			position := mgl64.Vec3{-20, 0.5 + float64(layer), start + float64(b)*1.5 + 0.75}
			opts := s.propOptions(fmt.Sprintf("pyramid_%d_%d", layer, b), position, 0.9, scene.BoxMesh(wallBrick))
			if err := add(s.Registry.CreateBox(wallBrick.Mul(0.5), opts)); err != nil {
				return records, err
			}
		}
	}

	for col := 0; col < stackColumns; col++ {
		for row := 0; row < stackRows; row++ {
			for i := 0; i < stackHeight; i++ {
				position := mgl64.Vec3{-40 + float64(col)*2.5, 3 + float64(i)*2, -90 + float64(row)*2.5}
				opts := s.propOptions(fmt.Sprintf("cylinder_%d_%d_%d", col, row, i), position, 0.5, scene.CylinderMesh(1, 2, debugSegments))
				if err := add(s.Registry.CreateCylinder(1, 2, opts)); err != nil {
					return records, err
				}
			}
		}
	}

	// one lying on its side
	lying := s.propOptions("cylinder_lying", mgl64.Vec3{-35, 1, -90}, 0.9, scene.CylinderMesh(1, 2, debugSegments))
	lying.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	lying.Node.Rotation = lying.Rotation
	if err := add(s.Registry.CreateCylinder(1, 2, lying)); err != nil {
		return records, err
	}

	s.logger.Info().Int("count", len(records)).Msg("test props spawned")
	return records, nil
}

func (s *Simulation) propOptions(name string, position mgl64.Vec3, friction float64, mesh *scene.Mesh) BodyOptions {
	node := scene.NewMeshNode(name, mesh)
	node.Position = position
	node.Color = ColorTestProp

	opts := NewBodyOptions(name, position)
	opts.Class = ClassNone
	opts.Node = node
	opts.Dynamic = true
	opts.Friction = friction
	opts.Restitution = 0.1
	opts.DebugColor = ColorTestProp
	return opts
}
