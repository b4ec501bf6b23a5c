package geom

import (
	"fmt"
	"math"
)

// VoxelGrid is a box split into Segments cells along each axis. Cell indices
// are zero at the lowest x, y, z corner and build up along x, then y, then z.
//
// A VoxelGrid is immutable once initialized and all of its methods are safe
// to call from multiple goroutines.
type VoxelGrid struct {
	// Origin is the center of the box and Extent is its full width along
	// each axis.
	Origin, Extent Vec
	Segments       int

	// LegacyCenters makes Center snap positions to the nearest multiple of
	// the cell width instead of the geometric center of the containing cell.
	// This is the convention used by older output files and is only correct
	// when Origin is (0, 0, 0) and Segments is odd.
	LegacyCenters bool

	Length, Area, Volume int
}

// NewVoxelGrid returns a new VoxelGrid instance.
func NewVoxelGrid(origin, extent Vec, segments int) (*VoxelGrid, error) {
	g := &VoxelGrid{}
	if err := g.Init(origin, extent, segments); err != nil {
		return nil, err
	}
	return g, nil
}

// Init initializes a VoxelGrid instance.
func (g *VoxelGrid) Init(origin, extent Vec, segments int) error {
	if segments < 1 {
		return fmt.Errorf("Segment count must be at least 1, but is %d.", segments)
	}
	for i := 0; i < 3; i++ {
		if !(extent[i] > 0) || math.IsInf(extent[i], 0) {
			return fmt.Errorf(
				"Grid extent along axis %d must be positive and finite, but is %g.",
				i, extent[i],
			)
		}
	}

	g.Origin, g.Extent, g.Segments = origin, extent, segments

	g.Length = segments
	g.Area = segments * segments
	g.Volume = segments * segments * segments
	return nil
}

// Low returns the lowermost corner of the grid.
func (g *VoxelGrid) Low() Vec {
	return g.Origin.Sub(g.Extent.Scale(0.5))
}

// Step returns the width of a single cell along each axis.
func (g *VoxelGrid) Step() Vec {
	return g.Extent.Scale(1 / float64(g.Segments))
}

// Bins returns the per-axis bins containing p. No clamping is done, so
// positions outside the grid give bins outside of [0, Segments).
func (g *VoxelGrid) Bins(p Vec) (x, y, z int) {
	low, n := g.Low(), float64(g.Segments)
	x = int(math.Floor(n * (p[0] - low[0]) / g.Extent[0]))
	y = int(math.Floor(n * (p[1] - low[1]) / g.Extent[1]))
	z = int(math.Floor(n * (p[2] - low[2]) / g.Extent[2]))
	return x, y, z
}

// Idx returns the cell index corresponding to a set of bins.
func (g *VoxelGrid) Idx(x, y, z int) int {
	n := g.Segments
	return x + y*n + z*n*n
}

// Index returns the index of the cell containing p along with that cell's
// center. Positions outside the grid give indices outside of
// [0, Segments^3); use IndexCheck when that can happen.
func (g *VoxelGrid) Index(p Vec) (int, Vec) {
	x, y, z := g.Bins(p)
	return g.Idx(x, y, z), g.center(p, x, y, z)
}

// IndexCheck returns the index and center of the cell containing p and true
// if p is inside the grid, and false otherwise.
func (g *VoxelGrid) IndexCheck(p Vec) (idx int, center Vec, ok bool) {
	x, y, z := g.Bins(p)
	if !g.binsCheck(x, y, z) {
		return -1, Vec{}, false
	}
	return g.Idx(x, y, z), g.center(p, x, y, z), true
}

// BoundsCheck returns true if p is inside the grid and false otherwise.
func (g *VoxelGrid) BoundsCheck(p Vec) bool {
	return g.binsCheck(g.Bins(p))
}

func (g *VoxelGrid) binsCheck(x, y, z int) bool {
	n := g.Segments
	return (0 <= x && 0 <= y && 0 <= z) && (x < n && y < n && z < n)
}

// Coords returns the x, y, z bins of a cell from its index.
func (g *VoxelGrid) Coords(idx int) (x, y, z int) {
	n := g.Segments
	x = idx % n
	y = (idx % (n * n)) / n
	z = idx / (n * n)
	return x, y, z
}

// CellCenter returns the geometric center of the cell with the given index.
func (g *VoxelGrid) CellCenter(idx int) Vec {
	x, y, z := g.Coords(idx)
	return g.binCenter(x, y, z)
}

// Center returns the center of the cell containing p.
func (g *VoxelGrid) Center(p Vec) Vec {
	x, y, z := g.Bins(p)
	return g.center(p, x, y, z)
}

func (g *VoxelGrid) center(p Vec, x, y, z int) Vec {
	if g.LegacyCenters {
		return g.LegacyCenter(p)
	}
	return g.binCenter(x, y, z)
}

func (g *VoxelGrid) binCenter(x, y, z int) Vec {
	low, step := g.Low(), g.Step()
	return Vec{
		low[0] + (float64(x)+0.5)*step[0],
		low[1] + (float64(y)+0.5)*step[1],
		low[2] + (float64(z)+0.5)*step[2],
	}
}

// LegacyCenter snaps p to the nearest multiple of the cell width along each
// axis. It ignores Origin entirely: the result is a cell center only for
// grids centered on (0, 0, 0) with an odd number of segments. For even
// segment counts it lands on cell boundaries.
func (g *VoxelGrid) LegacyCenter(p Vec) Vec {
	step := g.Step()
	out := Vec{}
	for i := 0; i < 3; i++ {
		bin := math.Floor((p[i] + 0.5*step[i]) / step[i])
		out[i] = bin * step[i]
	}
	return out
}

// Index is a convenience wrapper around g.Index(p).
func Index(p Vec, g *VoxelGrid) (int, Vec) {
	return g.Index(p)
}
