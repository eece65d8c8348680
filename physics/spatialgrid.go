package physics

import (
	"math"
	"sort"
	"sync"

	"github.com/akmonengine/farmtruck/physics/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// maxCellsPerCollider caps how many cells a collider may be inserted in.
// Bigger colliders (planes, terrain meshes) are kept in a separate list and
// tested against everything.
const maxCellsPerCollider = 512

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the colliders overlapping it
type Cell struct {
	colliderIndices []int
}

// Pair is a pair of colliders whose bounds overlap
type Pair struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

// SpatialGrid is a uniform hashed grid used by the broad phase
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int

	bounds []actor.AABB
	large  []int
}

func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].colliderIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].colliderIndices = sg.cells[i].colliderIndices[:0]
	}
	sg.bounds = sg.bounds[:0]
	sg.large = sg.large[:0]
}

// cellRange returns the cells covered by aabb, or false when there are too many
func (sg *SpatialGrid) cellRange(aabb actor.AABB) (CellKey, CellKey, bool) {
	size := aabb.Max.Sub(aabb.Min).Mul(1.0 / sg.cellSize)
	if size.X()+1 > maxCellsPerCollider || size.Y()+1 > maxCellsPerCollider || size.Z()+1 > maxCellsPerCollider ||
		(size.X()+1)*(size.Y()+1)*(size.Z()+1) > maxCellsPerCollider {
		return CellKey{}, CellKey{}, false
	}
	return sg.worldToCell(aabb.Min), sg.worldToCell(aabb.Max), true
}

// Insert registers the collider at colliderIndex with the given bounds.
// Indices must be inserted in increasing order starting at 0.
func (sg *SpatialGrid) Insert(colliderIndex int, aabb actor.AABB) {
	sg.bounds = append(sg.bounds, aabb)

	minCell, maxCell, ok := sg.cellRange(aabb)
	if !ok {
		sg.large = append(sg.large, colliderIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].colliderIndices = append(sg.cells[cellIdx].colliderIndices, colliderIndex)
			}
		}
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].colliderIndices) > 1 {
			sort.Ints(sg.cells[i].colliderIndices)
		}
	}
}

// canCollide filters pairs that never produce contacts
func canCollide(a, b *actor.Collider) bool {
	if a.Body == b.Body {
		return false
	}
	return isAwakeDynamic(a.Body) || isAwakeDynamic(b.Body)
}

func isAwakeDynamic(body *actor.RigidBody) bool {
	return body.BodyType == actor.BodyTypeDynamic && !body.IsSleeping
}

// FindPairsParallel emits every overlapping pair once, with the lower index first
func (sg *SpatialGrid) FindPairsParallel(colliders []*actor.Collider, numWorkers int) <-chan Pair {
	var wg sync.WaitGroup
	pairsChan := make(chan Pair, numWorkers*10)

	perWorker := max(1, len(colliders)/numWorkers)

	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := start + perWorker
		if w == numWorkers-1 {
			end = len(colliders)
		}
		if start >= len(colliders) {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			seen := make([]bool, len(colliders))
			emit := func(i, j int) {
				if j == i || seen[j] {
					return
				}
				seen[j] = true

				low, high := min(i, j), max(i, j)
				a, b := colliders[low], colliders[high]
				if !canCollide(a, b) {
					return
				}
				if sg.bounds[low].Overlaps(sg.bounds[high]) {
					pairsChan <- Pair{ColliderA: a, ColliderB: b}
				}
			}

			for i := start; i < end; i++ {
				clear(seen)

				// large colliders are paired from the small side, or from the
				// lower index when both are large
				iLarge := sg.isLarge(i)
				for _, j := range sg.large {
					if j > i || !iLarge {
						emit(i, j)
					}
				}

				minCell, maxCell, ok := sg.cellRange(sg.bounds[i])
				if !ok {
					continue
				}
				for x := minCell.X; x <= maxCell.X; x++ {
					for y := minCell.Y; y <= maxCell.Y; y++ {
						for z := minCell.Z; z <= maxCell.Z; z++ {
							for _, j := range sg.cells[sg.hashCell(CellKey{x, y, z})].colliderIndices {
								if j > i {
									emit(i, j)
								}
							}
						}
					}
				}
			}
		}(start, end)
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

func (sg *SpatialGrid) isLarge(index int) bool {
	for _, j := range sg.large {
		if j == index {
			return true
		}
	}
	return false
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
