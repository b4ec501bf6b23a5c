// Package cell accumulates the energy deposited in detector cells during a
// single event, keeping track of how much each track contributed.
package cell

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gotpc/geom"
)

// Cell is a single detector voxel which has been hit during an event.
type Cell struct {
	Index  int
	Center geom.Vec
	Energy float64
}

// Accumulator maps cell indices to cells and per-track energy tallies. Cells
// are kept in the order in which they were first deposited into.
type Accumulator struct {
	cells    []Cell
	locs     map[int]int
	contribs []map[int]float64
	hit      int
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		cells:    []Cell{},
		locs:     make(map[int]int),
		contribs: []map[int]float64{},
	}
}

// ValidEnergy returns true if energy can be deposited: it must be finite and
// non-negative.
func ValidEnergy(energy float64) bool {
	return energy >= 0 && !math.IsInf(energy, 0)
}

// Deposit adds energy from trackID to the cell with the given index, creating
// the cell and its tally on first reference. center is only used when the
// cell is created. Negative and NaN energies are rejected.
func (acc *Accumulator) Deposit(idx int, center geom.Vec, trackID int, energy float64) error {
	if !ValidEnergy(energy) {
		return fmt.Errorf(
			"Energy deposit of %g from track %d into cell %d is not a "+
				"non-negative, finite value.", energy, trackID, idx,
		)
	}

	i := acc.cell(idx, center)
	c := &acc.cells[i]
	if c.Energy == 0 && energy > 0 {
		acc.hit++
	}
	c.Energy += energy
	acc.contribs[i][trackID] += energy
	return nil
}

func (acc *Accumulator) cell(idx int, center geom.Vec) int {
	if i, ok := acc.locs[idx]; ok {
		return i
	}
	acc.cells = append(acc.cells, Cell{Index: idx, Center: center})
	acc.contribs = append(acc.contribs, make(map[int]float64))
	acc.locs[idx] = len(acc.cells) - 1
	return len(acc.cells) - 1
}

// Merge sums every deposit in other into acc. Summation is commutative, so
// merging per-worker accumulators in any order gives the same tallies up to
// floating point rounding.
func (acc *Accumulator) Merge(other *Accumulator) {
	for j := range other.cells {
		oc := &other.cells[j]
		i := acc.cell(oc.Index, oc.Center)
		c := &acc.cells[i]
		if c.Energy == 0 && oc.Energy > 0 {
			acc.hit++
		}
		c.Energy += oc.Energy
		for track, e := range other.contribs[j] {
			acc.contribs[i][track] += e
		}
	}
}

// Cell returns the cell with the given index, if it has received a non-zero
// deposit.
func (acc *Accumulator) Cell(idx int) (Cell, bool) {
	i, ok := acc.locs[idx]
	if !ok || acc.cells[i].Energy == 0 {
		return Cell{}, false
	}
	return acc.cells[i], true
}

// Contributions returns the energy deposited by each track into the cell with
// the given index. The returned map must not be modified.
func (acc *Accumulator) Contributions(idx int) map[int]float64 {
	i, ok := acc.locs[idx]
	if !ok {
		return nil
	}
	return acc.contribs[i]
}

// Cells returns every cell with non-zero energy, in first-deposit order.
func (acc *Accumulator) Cells() []Cell {
	out := make([]Cell, 0, acc.hit)
	for i := range acc.cells {
		if acc.cells[i].Energy > 0 {
			out = append(out, acc.cells[i])
		}
	}
	return out
}

// Len returns the number of cells with non-zero energy.
func (acc *Accumulator) Len() int { return acc.hit }

// Total returns the summed energy of all cells.
func (acc *Accumulator) Total() float64 {
	sum := 0.0
	for i := range acc.cells {
		sum += acc.cells[i].Energy
	}
	return sum
}
