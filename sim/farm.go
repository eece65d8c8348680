package sim

import (
	"fmt"

	"github.com/akmonengine/farmtruck/scene"
	"github.com/akmonengine/farmtruck/vehicle"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	farmFriction    = 0.9
	farmRestitution = 0.1
)

// FarmSummary counts what LoadFarm built
type FarmSummary struct {
	Classes map[Classification]int
	Skipped []string
	// Empty lists the trimesh candidates without any geometry
	Empty []string
}

// LoadFarm builds one fixed body per top-level node of farm, as decided by
// classifier. farm is added to the scene root when it has no parent yet.
func (s *Simulation) LoadFarm(farm *scene.Node, classifier *Classifier) (FarmSummary, error) {
	summary := FarmSummary{Classes: make(map[Classification]int)}
	if farm.Parent() == nil && s.Scene != nil {
		s.Scene.Add(farm)
	}

	for _, node := range farm.Children() {
		decision := classifier.Classify(node)

		var (
			record *BodyRecord
			err    error
		)
		switch decision.Collider {
		case ColliderSkip:
			summary.Skipped = append(summary.Skipped, node.Name)
			continue

		case ColliderTrimesh:
			meshes := node.Meshes()
			if len(meshes) == 0 {
				s.logger.Warn().Str("name", node.Name).Msg("trimesh node without meshes, skipping")
				summary.Empty = append(summary.Empty, node.Name)
				continue
			}
			opts := NewBodyOptions(node.Name, node.WorldPosition())
			opts.Rotation = s.sanitize(node.Name, node.WorldRotation())
			opts.Class = decision.Class
			opts.Node = node
			opts.Friction = farmFriction
			opts.Restitution = farmRestitution
			opts.DebugColor = ColorTrimesh
			record, err = s.Registry.CreateCompoundTrimesh(meshes, opts)

		case ColliderCuboid:
			bounds := node.WorldBounds()
			if bounds.IsEmpty() {
				s.logger.Warn().Str("name", node.Name).Msg("node without geometry, skipping")
				summary.Empty = append(summary.Empty, node.Name)
				continue
			}
			// axis aligned at the center of the world bounds
			opts := NewBodyOptions(node.Name, bounds.Center())
			opts.Class = decision.Class
			opts.Node = node
			opts.Friction = farmFriction
			opts.Restitution = farmRestitution
			opts.DebugColor = ColorCuboid
			record, err = s.Registry.CreateBox(bounds.Size().Mul(0.5), opts)
		}
		if err != nil {
			return summary, fmt.Errorf("loading farm node %q: %w", node.Name, err)
		}

		s.track(record)
		summary.Classes[record.Class]++
	}

	return summary, nil
}

// sanitize replaces a corrupt orientation by the identity, with a warning
func (s *Simulation) sanitize(name string, q mgl64.Quat) mgl64.Quat {
	if !vehicle.ValidRotation(q) {
		s.logger.Warn().Str("name", name).Msg("invalid orientation reset to identity")
	}
	return vehicle.Sanitize(q)
}
