package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func vecNear(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) <= tolerance &&
		math.Abs(a.Y()-b.Y()) <= tolerance &&
		math.Abs(a.Z()-b.Z()) <= tolerance
}

func TestAABB_Empty(t *testing.T) {
	empty := EmptyAABB()
	if !empty.IsEmpty() {
		t.Fatal("EmptyAABB should be empty")
	}

	grown := empty.Extend(mgl64.Vec3{1, 2, 3})
	if grown.IsEmpty() {
		t.Error("extended box should not be empty")
	}
	if grown.Min != (mgl64.Vec3{1, 2, 3}) || grown.Max != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("expected a point box at (1,2,3), got %v", grown)
	}
}

func TestAABB_Overlaps(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name  string
		other AABB
		want  bool
	}{
		{"identical", a, true},
		{"touching face", AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}, true},
		{"separated on x", AABB{Min: mgl64.Vec3{1.1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}, false},
		{"separated on z", AABB{Min: mgl64.Vec3{0, 0, -3}, Max: mgl64.Vec3{1, 1, -2}}, false},
		{"contained", AABB{Min: mgl64.Vec3{0.2, 0.2, 0.2}, Max: mgl64.Vec3{0.8, 0.8, 0.8}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(a); got != tt.want {
				t.Errorf("Overlaps() is not symmetric: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABB_UnionAndSweep(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
	b := AABB{Min: mgl64.Vec3{-2, 3, 0}, Max: mgl64.Vec3{-1, 4, 0.5}}

	union := a.Union(b)
	if union.Min != (mgl64.Vec3{-2, 0, 0}) || union.Max != (mgl64.Vec3{1, 4, 1}) {
		t.Errorf("unexpected union %v", union)
	}
	if a.Union(EmptyAABB()) != a {
		t.Error("union with an empty box should not change the box")
	}

	swept := a.Sweep(mgl64.Vec3{0, -5, 0})
	if swept.Min != (mgl64.Vec3{0, -5, 0}) || swept.Max != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("unexpected swept box %v", swept)
	}
}

func TestAABB_CenterAndHalfExtents(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{-1, 2, 4}, Max: mgl64.Vec3{3, 4, 10}}

	if a.Center() != (mgl64.Vec3{1, 3, 7}) {
		t.Errorf("Center() = %v", a.Center())
	}
	if a.HalfExtents() != (mgl64.Vec3{2, 1, 3}) {
		t.Errorf("HalfExtents() = %v", a.HalfExtents())
	}
	if !a.ContainsPoint(mgl64.Vec3{0, 3, 5}) || a.ContainsPoint(mgl64.Vec3{0, 5, 5}) {
		t.Error("ContainsPoint() gave a wrong answer")
	}
}

func TestTransformAABB_Rotated(t *testing.T) {
	local := AABB{Min: mgl64.Vec3{-1, -2, -3}, Max: mgl64.Vec3{1, 2, 3}}
	transform := NewTransformFrom(mgl64.Vec3{10, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))

	world := transformAABB(local, transform)

	if !vecNear(world.Min, mgl64.Vec3{7, -2, -1}, 1e-9) || !vecNear(world.Max, mgl64.Vec3{13, 2, 1}, 1e-9) {
		t.Errorf("a quarter turn about Y should swap x and z extents, got %v", world)
	}
}
