package sim

import "github.com/akmonengine/farmtruck/scene"

// Classification is the behavior attached to a body
type Classification uint8

const (
	// ClassNone marks bodies without scene-driven behavior, such as test props
	ClassNone Classification = iota
	ClassVehicle
	// ClassFallable bodies start fixed and turn dynamic on the first hard hit
	ClassFallable
	ClassStaticTrimesh
	ClassStaticCuboid
	ClassUnknownTrimeshStatic
)

func (c Classification) String() string {
	switch c {
	case ClassVehicle:
		return "vehicle"
	case ClassFallable:
		return "fallable"
	case ClassStaticTrimesh:
		return "static_trimesh"
	case ClassStaticCuboid:
		return "static_cuboid"
	case ClassUnknownTrimeshStatic:
		return "unknown_trimesh_static"
	}
	return "none"
}

// ColliderKind is the collision shape built for a scene node
type ColliderKind uint8

const (
	ColliderSkip ColliderKind = iota
	ColliderTrimesh
	ColliderCuboid
)

func (k ColliderKind) String() string {
	switch k {
	case ColliderTrimesh:
		return "trimesh"
	case ColliderCuboid:
		return "cuboid"
	}
	return "skip"
}

// Decision is the outcome of classifying a node
type Decision struct {
	Collider ColliderKind
	Class    Classification
}

// NameTable lists node names per tier
type NameTable struct {
	// Trimesh nodes get a precise mesh collider, the others a bounding box
	Trimesh       []string
	Fallable      []string
	StaticFeature []string
	// Skip nodes get no collider at all
	Skip []string
}

type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	set := make(nameSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s nameSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// Classifier decides the collider and behavior of top-level scene nodes.
// It holds no state besides its tables, so equal names always classify equally.
type Classifier struct {
	trimesh       nameSet
	fallable      nameSet
	staticFeature nameSet
	skip          nameSet
}

func NewClassifier(table NameTable) *Classifier {
	return &Classifier{
		trimesh:       newNameSet(table.Trimesh),
		fallable:      newNameSet(table.Fallable),
		staticFeature: newNameSet(table.StaticFeature),
		skip:          newNameSet(table.Skip),
	}
}

// ClassifyName applies the tiers in order: skip, then trimesh (fallable,
// static feature or unknown), then bounding box
func (c *Classifier) ClassifyName(name string) Decision {
	if c.skip.has(name) {
		return Decision{Collider: ColliderSkip, Class: ClassNone}
	}
	if !c.trimesh.has(name) {
		return Decision{Collider: ColliderCuboid, Class: ClassStaticCuboid}
	}

	switch {
	case c.fallable.has(name):
		return Decision{Collider: ColliderTrimesh, Class: ClassFallable}
	case c.staticFeature.has(name):
		return Decision{Collider: ColliderTrimesh, Class: ClassStaticTrimesh}
	}
	return Decision{Collider: ColliderTrimesh, Class: ClassUnknownTrimeshStatic}
}

func (c *Classifier) Classify(node *scene.Node) Decision {
	return c.ClassifyName(node.Name)
}
