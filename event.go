package gotpc

import (
	"log/slog"

	"github.com/phil-mansfield/gotpc/cell"
	"github.com/phil-mansfield/gotpc/geom"
	"github.com/phil-mansfield/gotpc/mc"
)

// Step is a single interaction reported by the simulation engine.
type Step struct {
	Position geom.Vec
	Energy   float64
	TrackID  int
	ParentID int

	// Particle is set the first time the engine reports a track. Later steps
	// of the same track may leave it nil.
	Particle *mc.Particle
}

// Event holds everything recorded between a BeginEvent and EndEvent call.
// Cell indices and track ids are local to the event.
type Event struct {
	Number    int
	Cells     *cell.Accumulator
	Particles *mc.Store

	Steps     int
	Discarded int // out-of-bounds steps
}

func newEvent(number int, pred mc.Predicate, log *slog.Logger) *Event {
	return &Event{
		Number:    number,
		Cells:     cell.NewAccumulator(),
		Particles: mc.NewStore(pred, log),
	}
}

// ResolvedCell is a reported cell along with the particle it is attributed
// to.
type ResolvedCell struct {
	ID     int
	MCID   int
	Center geom.Vec
	Energy float64
}

// ResolvedEvent is the output form of an Event. Discarded is not part of the
// XML event log and reads back as zero.
type ResolvedEvent struct {
	Number    int
	Cells     []ResolvedCell
	Particles []mc.Particle
	Discarded int
}

// Resolve attributes every cell in the event to a visible particle. Cells
// whose dominant contribution is numerically zero are left out. Cells come
// out in first-deposit order and particles in recording order.
func (ev *Event) Resolve() ResolvedEvent {
	out := ResolvedEvent{
		Number: ev.Number, Cells: []ResolvedCell{}, Discarded: ev.Discarded,
	}

	for _, c := range ev.Cells.Cells() {
		id, ok := Resolve(ev.Cells.Contributions(c.Index), ev.Particles)
		if !ok {
			continue
		}
		out.Cells = append(out.Cells, ResolvedCell{
			ID: c.Index, MCID: id, Center: c.Center, Energy: c.Energy,
		})
	}

	out.Particles = ev.Particles.Known()
	return out
}
