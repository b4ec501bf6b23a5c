// Package gotpc records the response of a voxelized detector to simulated
// particle steps and attributes every responding cell to the simulated
// particle most responsible for it.
package gotpc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phil-mansfield/gotpc/cell"
	"github.com/phil-mansfield/gotpc/geom"
	"github.com/phil-mansfield/gotpc/mc"
)

var (
	// ErrOutOfBounds is returned by Step under the Fatal bounds policy.
	ErrOutOfBounds = errors.New("step position is outside of the grid")
	// ErrNoOpenEvent is returned when a step or EndEvent arrives while no
	// event is open.
	ErrNoOpenEvent = errors.New("no event is open")
	// ErrEventOpen is returned by BeginEvent if the previous event was never
	// ended.
	ErrEventOpen = errors.New("previous event was not ended")
	// ErrTrackMismatch is returned by Step if the attached particle record
	// belongs to a different track or parent than the step.
	ErrTrackMismatch = errors.New("particle record does not match step")
)

// BoundsPolicy decides what happens to steps outside of the grid.
type BoundsPolicy int

const (
	// Discard drops the step and counts it on the event.
	Discard BoundsPolicy = iota
	// Fatal makes Step return ErrOutOfBounds.
	Fatal
)

func (bp BoundsPolicy) String() string {
	switch bp {
	case Discard:
		return "Discard"
	case Fatal:
		return "Fatal"
	}
	return fmt.Sprintf("BoundsPolicy(%d)", int(bp))
}

// ParseBoundsPolicy converts "Discard" or "Fatal" (case-insensitive) to a
// BoundsPolicy.
func ParseBoundsPolicy(s string) (BoundsPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discard", "":
		return Discard, nil
	case "fatal":
		return Fatal, nil
	}
	return Discard, fmt.Errorf(
		"Bounds policy must be one of [Discard | Fatal]. '%s' is not "+
			"recognized.", s,
	)
}

// RunOptions are the optional settings of a Run.
type RunOptions struct {
	Predicate   mc.Predicate // nil makes every particle visible
	OutOfBounds BoundsPolicy
	Logger      *slog.Logger // nil uses slog.Default()
}

// Run is the ordered, append-only log of every event processed during a
// simulation run. Events are processed strictly one at a time.
type Run struct {
	ID   uuid.UUID
	Grid *geom.VoxelGrid

	opts   RunOptions
	log    *slog.Logger
	events []*Event
	ended  int
	open   bool
}

// NewRun creates an empty run over the given grid.
func NewRun(grid *geom.VoxelGrid, opts RunOptions) *Run {
	if opts.Predicate == nil {
		opts.Predicate = mc.AllVisible
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Run{ID: uuid.New(), Grid: grid, opts: opts, events: []*Event{}}
	r.log = opts.Logger.With("run", r.ID.String())
	return r
}

// BeginEvent appends a new, empty event to the run.
func (r *Run) BeginEvent() error {
	if r.open {
		return fmt.Errorf("beginning event %d: %w", len(r.events), ErrEventOpen)
	}
	r.events = append(r.events, newEvent(len(r.events), r.opts.Predicate, r.log))
	r.open = true
	return nil
}

// EndEvent closes the current event and advances the event counter.
// Resolution is deferred until the run is written out.
func (r *Run) EndEvent() error {
	if !r.open {
		return fmt.Errorf("ending event %d: %w", r.ended, ErrNoOpenEvent)
	}
	ev := r.events[len(r.events)-1]
	r.open = false
	r.ended++

	r.log.Debug("Ended event.", "event", ev.Number, "steps", ev.Steps,
		"cells", ev.Cells.Len(), "particles", ev.Particles.Len(),
		"energy", ev.Cells.Total())
	if ev.Discarded > 0 {
		r.log.Warn("Discarded out-of-bounds steps.",
			"event", ev.Number, "discarded", ev.Discarded)
	}
	return nil
}

// Step records a single interaction in the open event: the particle is
// registered on its first sighting and the energy is deposited into the
// cell containing the step's position. A step which returns an error leaves
// the event untouched.
func (r *Run) Step(s Step) error {
	if !r.open {
		return fmt.Errorf("step of track %d: %w", s.TrackID, ErrNoOpenEvent)
	}
	ev := r.events[len(r.events)-1]

	if p := s.Particle; p != nil && (p.TrackID != s.TrackID || p.ParentID != s.ParentID) {
		return fmt.Errorf(
			"event %d, step of track %d (parent %d) carries track %d "+
				"(parent %d): %w", ev.Number, s.TrackID, s.ParentID,
			p.TrackID, p.ParentID, ErrTrackMismatch,
		)
	} else if !cell.ValidEnergy(s.Energy) {
		return fmt.Errorf(
			"event %d: energy deposit of %g from track %d is not a "+
				"non-negative, finite value", ev.Number, s.Energy, s.TrackID,
		)
	}

	idx, center, ok := r.Grid.IndexCheck(s.Position)
	if !ok && r.opts.OutOfBounds == Fatal {
		return fmt.Errorf(
			"event %d, track %d at (%g, %g, %g): %w", ev.Number, s.TrackID,
			s.Position[0], s.Position[1], s.Position[2], ErrOutOfBounds,
		)
	}

	ev.Steps++
	if s.Particle != nil {
		ev.Particles.Record(*s.Particle)
	} else if s.ParentID > 0 {
		ev.Particles.Link(s.TrackID, s.ParentID)
	}

	if !ok {
		ev.Discarded++
		return nil
	}

	if err := ev.Cells.Deposit(idx, center, s.TrackID, s.Energy); err != nil {
		return fmt.Errorf("event %d: %w", ev.Number, err)
	}
	return nil
}

// EventSteps is the full list of steps for one event, as read back from a
// step table.
type EventSteps struct {
	Number int
	Steps  []Step
}

// Replay drives the run through a sequence of recorded events as the
// simulation engine would.
func (r *Run) Replay(evs []EventSteps) error {
	for _, es := range evs {
		if err := r.BeginEvent(); err != nil {
			return err
		}
		for _, s := range es.Steps {
			if err := r.Step(s); err != nil {
				return err
			}
		}
		if err := r.EndEvent(); err != nil {
			return err
		}
	}
	return nil
}

// EventCount returns the number of ended events.
func (r *Run) EventCount() int { return r.ended }

// Events returns the ended events in order.
func (r *Run) Events() []*Event { return r.events[:r.ended] }

// Open returns true if an event is currently open.
func (r *Run) Open() bool { return r.open }

// Resolved resolves every ended event. An event which is still open is not
// included.
func (r *Run) Resolved() []ResolvedEvent {
	if r.Open() {
		r.log.Warn("Leaving out event which was never ended.",
			"event", len(r.events)-1)
	}
	out := make([]ResolvedEvent, r.ended)
	for i := range out {
		out[i] = r.events[i].Resolve()
	}
	return out
}
