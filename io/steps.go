package io

import (
	"fmt"

	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/gotpc"
	"github.com/phil-mansfield/gotpc/geom"
	"github.com/phil-mansfield/gotpc/mc"
)

// StepColumns is the number of columns in a step table.
const StepColumns = 19

// Column layout of step tables. Every row is a single step. The particle
// columns of the first row for each track within an event are used as that
// track's record.
const (
	EventCol = iota
	TrackCol
	ParentCol
	PDGCol
	XCol
	YCol
	ZCol
	EdepCol
	MassCol
	EnergyCol
	StartXCol
	StartYCol
	StartZCol
	EndXCol
	EndYCol
	EndZCol
	MomentumXCol
	MomentumYCol
	MomentumZCol
)

const ExampleStepFile = `# event track parent pdg   x    y    z  edep   mass  energy  start(x y z)  end(x y z)  momentum(x y z)
0 1 0 13    3.0 3.0 3.0  2.0  105.7 500   0 0 0   4 4 4   0 0 488.7
0 5 1 11    3.2 3.1 3.0  0.5  0.511 20    3 3 3   3 3 2   0 0 19.99
0 1 0 13    -3  3.0 3.0  1.5  105.7 500   0 0 0   4 4 4   0 0 488.7
1 1 0 2212  1   1   1    9.0  938.3 1200  0 0 0   1 1 1   744 0 0`

// ReadSteps reads a whitespace-separated step table. Rows must be grouped
// by non-decreasing event number, starting from zero. Event numbers with no
// rows become empty events.
func ReadSteps(fname string) ([]gotpc.EventSteps, error) {
	colIdxs := make([]int, StepColumns)
	for i := range colIdxs {
		colIdxs[i] = i
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, err
	}

	evs, err := stepsFromColumns(cols)
	if err != nil {
		return nil, fmt.Errorf("Step file %s: %w", fname, err)
	}
	return evs, nil
}

func stepsFromColumns(cols [][]float64) ([]gotpc.EventSteps, error) {
	if len(cols) != StepColumns {
		return nil, fmt.Errorf(
			"expected %d columns, found %d", StepColumns, len(cols),
		)
	}

	evs := []gotpc.EventSteps{}
	seen := map[int]bool{}
	for row := range cols[EventCol] {
		num := int(cols[EventCol][row])
		switch {
		case num < 0:
			return nil, fmt.Errorf("row %d has negative event number %d", row+1, num)
		case num < len(evs)-1:
			return nil, fmt.Errorf(
				"row %d belongs to event %d, but event %d has already started",
				row+1, num, len(evs)-1,
			)
		}

		for len(evs) <= num {
			evs = append(evs, gotpc.EventSteps{Number: len(evs)})
			seen = map[int]bool{}
		}

		s := stepAt(cols, row)
		if !seen[s.TrackID] {
			seen[s.TrackID] = true
			s.Particle = particleAt(cols, row)
		}
		evs[num].Steps = append(evs[num].Steps, s)
	}

	return evs, nil
}

func stepAt(cols [][]float64, row int) gotpc.Step {
	return gotpc.Step{
		Position: vecAt(cols, row, XCol),
		Energy:   cols[EdepCol][row],
		TrackID:  int(cols[TrackCol][row]),
		ParentID: int(cols[ParentCol][row]),
	}
}

func particleAt(cols [][]float64, row int) *mc.Particle {
	return &mc.Particle{
		TrackID:  int(cols[TrackCol][row]),
		ParentID: int(cols[ParentCol][row]),
		PDG:      int(cols[PDGCol][row]),
		Mass:     cols[MassCol][row],
		Energy:   cols[EnergyCol][row],
		Start:    vecAt(cols, row, StartXCol),
		End:      vecAt(cols, row, EndXCol),
		Momentum: vecAt(cols, row, MomentumXCol),
	}
}

func vecAt(cols [][]float64, row, col int) geom.Vec {
	return geom.Vec{cols[col][row], cols[col+1][row], cols[col+2][row]}
}
