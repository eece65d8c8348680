package physics

import (
	"sort"
	"sync"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/akmonengine/farmtruck/physics/constraint"
	"github.com/akmonengine/farmtruck/physics/epa"
	"github.com/akmonengine/farmtruck/physics/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Manifold is the narrow phase result for one touching pair of colliders.
// Constraint is nil when the shapes touch but no contact could be computed;
// the pair still counts as touching for events.
type Manifold struct {
	ColliderA  *actor.Collider
	ColliderB  *actor.Collider
	Constraint *constraint.ContactConstraint
}

// BroadPhase returns pairs of colliders whose bounds overlap. Bounds of
// CCD bodies are swept along their velocity over the substep.
func BroadPhase(spatialGrid *SpatialGrid, colliders []*actor.Collider, h float64, workersCount int) <-chan Pair {
	spatialGrid.Clear()
	for i, collider := range colliders {
		aabb := collider.GetAABB()
		if body := collider.Body; body.CCD && isAwakeDynamic(body) {
			aabb = aabb.Sweep(body.Velocity.Mul(h))
		}
		spatialGrid.Insert(i, aabb)
	}
	spatialGrid.SortCells()

	return spatialGrid.FindPairsParallel(colliders, workersCount)
}

// NarrowPhase dispatches pairs to the analytic plane path, the fixed mesh
// path and the GJK/EPA path, then collects manifolds in handle order
func NarrowPhase(pairs <-chan Pair, workersCount int) []Manifold {
	planePairs := make(chan Pair, workersCount)
	meshPairs := make(chan Pair, workersCount)
	gjkPairs := make(chan Pair, workersCount)

	go func() {
		defer close(planePairs)
		defer close(meshPairs)
		defer close(gjkPairs)

		for pair := range pairs {
			_, aIsPlane := pair.ColliderA.Shape.(*actor.Plane)
			_, bIsPlane := pair.ColliderB.Shape.(*actor.Plane)

			switch {
			case aIsPlane && bIsPlane:
				continue
			case aIsPlane || bIsPlane:
				planePairs <- pair
			case pair.ColliderA.IsFixedMesh() || pair.ColliderB.IsFixedMesh():
				meshPairs <- pair
			default:
				gjkPairs <- pair
			}
		}
	}()

	allManifolds := make(chan Manifold, workersCount*2)
	var wg sync.WaitGroup

	paths := []func() <-chan Manifold{
		func() <-chan Manifold { return EPA(GJK(gjkPairs, workersCount), workersCount) },
		func() <-chan Manifold { return collideMesh(meshPairs, workersCount) },
		func() <-chan Manifold { return collidePlane(planePairs, workersCount) },
	}
	for _, path := range paths {
		wg.Add(1)
		go func(manifolds <-chan Manifold) {
			defer wg.Done()
			for m := range manifolds {
				allManifolds <- m
			}
		}(path())
	}

	go func() {
		wg.Wait()
		close(allManifolds)
	}()

	manifolds := make([]Manifold, 0)
	for m := range allManifolds {
		manifolds = append(manifolds, m)
	}

	sort.Slice(manifolds, func(i, j int) bool {
		if manifolds[i].ColliderA.Handle != manifolds[j].ColliderA.Handle {
			return manifolds[i].ColliderA.Handle < manifolds[j].ColliderA.Handle
		}
		return manifolds[i].ColliderB.Handle < manifolds[j].ColliderB.Handle
	})

	return manifolds
}

// CollisionPair is a pair confirmed by GJK, with the simplex EPA starts from
type CollisionPair struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
	simplex   *gjk.Simplex
}

// fanOut runs fn on workersCount goroutines reading from in, and closes the
// returned channel once they are all done
func fanOut[In, Out any](in <-chan In, workersCount int, fn func(In, chan<- Out)) <-chan Out {
	out := make(chan Out, workersCount)

	go func() {
		var wg sync.WaitGroup
		defer close(out)

		for range workersCount {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for item := range in {
					fn(item, out)
				}
			}()
		}
		wg.Wait()
	}()

	return out
}

func GJK(pairs <-chan Pair, workersCount int) <-chan CollisionPair {
	return fanOut(pairs, workersCount, func(p Pair, out chan<- CollisionPair) {
		simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
		simplex.Reset()

		if gjk.GJK(p.ColliderA, p.ColliderB, simplex) {
			out <- CollisionPair{ColliderA: p.ColliderA, ColliderB: p.ColliderB, simplex: simplex}
		} else {
			gjk.SimplexPool.Put(simplex)
		}
	})
}

func EPA(pairs <-chan CollisionPair, workersCount int) <-chan Manifold {
	return fanOut(pairs, workersCount, func(pair CollisionPair, out chan<- Manifold) {
		result, err := epa.EPA(pair.ColliderA, pair.ColliderB, pair.simplex)
		gjk.SimplexPool.Put(pair.simplex)

		manifold := Manifold{ColliderA: pair.ColliderA, ColliderB: pair.ColliderB}
		if err == nil {
			manifold.Constraint = constraint.NewContactConstraint(pair.ColliderA, pair.ColliderB, result.Normal, result.Points)
		}
		out <- manifold
	})
}

// collideMesh tests the convex side against each triangle of the fixed mesh
// whose bounds overlap it. Triangle contacts are merged into one constraint
// around the deepest normal, so a flat floor made of many triangles pushes
// like a single face.
func collideMesh(pairs <-chan Pair, workersCount int) <-chan Manifold {
	return fanOut(pairs, workersCount, func(pair Pair, out chan<- Manifold) {
		mesh, other := pair.ColliderA, pair.ColliderB
		if !mesh.IsFixedMesh() {
			mesh, other = other, mesh
		}

		bounds := other.GetAABB()
		simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
		defer gjk.SimplexPool.Put(simplex)

		touching := false
		var results []epa.Result
		triangles := mesh.Triangles()
		for i := range triangles {
			triangle := &triangles[i]
			if !triangle.Bounds.Overlaps(bounds) {
				continue
			}

			simplex.Reset()
			if !gjk.GJK(triangle, other, simplex) {
				continue
			}
			touching = true

			result, err := epa.EPA(triangle, other, simplex)
			if err != nil {
				continue
			}
			results = append(results, result)
		}

		if !touching {
			return
		}

		manifold := Manifold{ColliderA: mesh, ColliderB: other}
		if normal, points, ok := mergeResults(results); ok {
			manifold.Constraint = constraint.NewContactConstraint(mesh, other, normal, points)
		}
		out <- manifold
	})
}

// mergeResults keeps the deepest result's normal and the points of every
// result facing the same way
func mergeResults(results []epa.Result) (mgl64.Vec3, []constraint.ContactPoint, bool) {
	if len(results) == 0 {
		return mgl64.Vec3{}, nil, false
	}

	deepest := 0
	for i := range results {
		if results[i].Depth > results[deepest].Depth {
			deepest = i
		}
	}
	normal := results[deepest].Normal

	var points []constraint.ContactPoint
	for _, result := range results {
		if result.Normal.Dot(normal) > 0.9 {
			points = append(points, result.Points...)
		}
	}

	return normal, epa.ReducePoints(points, normal), true
}

// collidePlane computes contacts analytically: every point of the object's
// feature facing the plane that lies below it becomes a contact point
func collidePlane(pairs <-chan Pair, workersCount int) <-chan Manifold {
	return fanOut(pairs, workersCount, func(pair Pair, out chan<- Manifold) {
		plane, object := pair.ColliderA, pair.ColliderB
		if _, ok := plane.Shape.(*actor.Plane); !ok {
			plane, object = object, plane
		}

		normal, origin, ok := plane.WorldPlane()
		if !ok {
			return
		}

		var points []constraint.ContactPoint
		for _, point := range object.FeatureWorld(normal.Mul(-1)) {
			if distance := point.Sub(origin).Dot(normal); distance <= 0 {
				points = append(points, constraint.ContactPoint{Position: point, Penetration: -distance})
			}
		}
		if len(points) == 0 {
			deepest := object.SupportWorld(normal.Mul(-1))
			distance := deepest.Sub(origin).Dot(normal)
			if distance > 0 {
				return
			}
			points = append(points, constraint.ContactPoint{Position: deepest, Penetration: -distance})
		}

		out <- Manifold{
			ColliderA:  plane,
			ColliderB:  object,
			Constraint: constraint.NewContactConstraint(plane, object, normal, epa.ReducePoints(points, normal)),
		}
	})
}
