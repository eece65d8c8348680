package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func createCollider(position mgl64.Vec3, shape actor.ShapeInterface) *actor.Collider {
	body := actor.NewRigidBody(1, actor.NewTransformFrom(position, mgl64.QuatIdent()), actor.BodyTypeDynamic)
	collider := actor.NewCollider(1, shape, actor.NewTransform())
	body.AttachCollider(collider)
	return collider
}

func createBox(position mgl64.Vec3, halfExtents mgl64.Vec3) *actor.Collider {
	return createCollider(position, &actor.Box{HalfExtents: halfExtents})
}

func createSphere(position mgl64.Vec3, radius float64) *actor.Collider {
	return createCollider(position, &actor.Sphere{Radius: radius})
}

func TestMinkowskiSupport(t *testing.T) {
	a := createSphere(mgl64.Vec3{0, 0, 0}, 1.0)
	b := createSphere(mgl64.Vec3{3, 0, 0}, 1.0)

	// max(A.x) - min(B.x) = 1 - 2
	support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
	if math.Abs(support.X()+1) > 1e-12 {
		t.Errorf("expected support.X = -1, got %v", support.X())
	}
}

func TestGJK(t *testing.T) {
	tests := []struct {
		name string
		a, b actor.Convex
		want bool
	}{
		{"overlapping spheres", createSphere(mgl64.Vec3{}, 1), createSphere(mgl64.Vec3{1.5, 0, 0}, 1), true},
		{"separated spheres", createSphere(mgl64.Vec3{}, 1), createSphere(mgl64.Vec3{3, 0, 0}, 1), false},
		{"overlapping boxes", createBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), createBox(mgl64.Vec3{1.5, 0.5, 0}, mgl64.Vec3{1, 1, 1}), true},
		{"separated boxes", createBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), createBox(mgl64.Vec3{0, 2.5, 0}, mgl64.Vec3{1, 1, 1}), false},
		{"sphere inside box", createBox(mgl64.Vec3{}, mgl64.Vec3{2, 2, 2}), createSphere(mgl64.Vec3{0.5, 0, 0}, 0.5), true},
		{"same center", createBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), createSphere(mgl64.Vec3{}, 0.5), true},
		{"cylinder on box", createBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), createCollider(mgl64.Vec3{0, 1.9, 0}, &actor.Cylinder{HalfHeight: 1, Radius: 1}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := &Simplex{}
			if got := GJK(tt.a, tt.b, simplex); got != tt.want {
				t.Errorf("GJK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGJK_Triangle(t *testing.T) {
	triangle := actor.NewTriangle(mgl64.Vec3{-5, 0, -5}, mgl64.Vec3{5, 0, -5}, mgl64.Vec3{0, 0, 5})

	t.Run("box resting through the triangle", func(t *testing.T) {
		box := createBox(mgl64.Vec3{0, 0.9, 0}, mgl64.Vec3{1, 1, 1})
		if !GJK(&triangle, box, &Simplex{}) {
			t.Error("expected an overlap")
		}
	})

	t.Run("box above the triangle", func(t *testing.T) {
		box := createBox(mgl64.Vec3{0, 1.5, 0}, mgl64.Vec3{1, 1, 1})
		if GJK(&triangle, box, &Simplex{}) {
			t.Error("expected no overlap")
		}
	})
}

func TestSimplexPool(t *testing.T) {
	simplex := SimplexPool.Get().(*Simplex)
	simplex.set(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
	if simplex.Count != 2 {
		t.Fatalf("expected 2 points, got %d", simplex.Count)
	}
	simplex.Reset()
	if simplex.Count != 0 {
		t.Error("Reset() should empty the simplex")
	}
	SimplexPool.Put(simplex)
}
