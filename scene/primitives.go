package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BoxMesh returns a box of the given full size centered on the origin
func BoxMesh(size mgl64.Vec3) *Mesh {
	h := size.Mul(0.5)
	vertices := []mgl64.Vec3{
		{-h[0], -h[1], -h[2]}, {h[0], -h[1], -h[2]}, {h[0], h[1], -h[2]}, {-h[0], h[1], -h[2]},
		{-h[0], -h[1], h[2]}, {h[0], -h[1], h[2]}, {h[0], h[1], h[2]}, {-h[0], h[1], h[2]},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // back
		4, 5, 6, 4, 6, 7, // front
		0, 1, 5, 0, 5, 4, // bottom
		3, 7, 6, 3, 6, 2, // top
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
	return &Mesh{Vertices: vertices, Indices: indices}
}

// CylinderMesh returns a Y-aligned cylinder centered on the origin
func CylinderMesh(radius, height float64, segments int) *Mesh {
	segments = max(3, segments)
	half := height / 2
	mesh := &Mesh{}

	for i := range segments {
		angle := 2 * math.Pi * float64(i) / float64(segments)
		x, z := radius*math.Cos(angle), radius*math.Sin(angle)
		mesh.Vertices = append(mesh.Vertices, mgl64.Vec3{x, -half, z}, mgl64.Vec3{x, half, z})
	}
	bottom, top := uint32(len(mesh.Vertices)), uint32(len(mesh.Vertices)+1)
	mesh.Vertices = append(mesh.Vertices, mgl64.Vec3{0, -half, 0}, mgl64.Vec3{0, half, 0})

	for i := range segments {
		a := uint32(2 * i)
		b := uint32(2 * ((i + 1) % segments))
		mesh.Indices = append(mesh.Indices,
			a, a+1, b+1, a, b+1, b,
			bottom, a, b,
			top, b+1, a+1,
		)
	}
	return mesh
}

// SphereMesh returns a UV sphere centered on the origin
func SphereMesh(radius float64, segments int) *Mesh {
	segments = max(3, segments)
	rings := max(2, segments/2)
	mesh := &Mesh{}

	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			mesh.Vertices = append(mesh.Vertices, mgl64.Vec3{
				radius * math.Sin(phi) * math.Cos(theta),
				radius * math.Cos(phi),
				radius * math.Sin(phi) * math.Sin(theta),
			})
		}
	}

	stride := uint32(segments + 1)
	for r := range uint32(rings) {
		for s := range uint32(segments) {
			a := r*stride + s
			b := a + stride
			mesh.Indices = append(mesh.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return mesh
}
