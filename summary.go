package gotpc

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EventSummary holds per-event statistics over the reported cells.
type EventSummary struct {
	Event      int     `yaml:"event"`
	Cells      int     `yaml:"cells"`
	Particles  int     `yaml:"particles"`
	Primaries  int     `yaml:"primaries"`
	Discarded  int     `yaml:"discarded"`
	Unresolved int     `yaml:"unresolved"` // cells attributed to NoTrack
	Energy     float64 `yaml:"energy"`
	MaxEnergy  float64 `yaml:"max_energy"`
	MeanEnergy float64 `yaml:"mean_energy"`
}

// Summary describes a whole run.
type Summary struct {
	RunID     string         `yaml:"run_id"`
	Segments  int            `yaml:"segments"`
	Origin    [3]float64     `yaml:"origin"`
	Extent    [3]float64     `yaml:"extent"`
	Events    int            `yaml:"events"`
	Discarded int            `yaml:"discarded"`
	Energy    float64        `yaml:"energy"`
	PerEvent  []EventSummary `yaml:"per_event"`
}

// Summarize computes a Summary of evs over the run's grid. Every count,
// including Discarded, comes from evs.
func (r *Run) Summarize(evs []ResolvedEvent) *Summary {
	s := &Summary{
		RunID:    r.ID.String(),
		Segments: r.Grid.Segments,
		Origin:   r.Grid.Origin,
		Extent:   r.Grid.Extent,
		Events:   len(evs),
		PerEvent: make([]EventSummary, len(evs)),
	}

	totals := make([]float64, len(evs))
	for i := range evs {
		s.PerEvent[i] = SummarizeEvent(&evs[i])
		totals[i] = s.PerEvent[i].Energy
		s.Discarded += s.PerEvent[i].Discarded
	}
	s.Energy = floats.Sum(totals)
	return s
}

// SummarizeEvent computes statistics over a single resolved event.
func SummarizeEvent(ev *ResolvedEvent) EventSummary {
	es := EventSummary{
		Event:     ev.Number,
		Cells:     len(ev.Cells),
		Particles: len(ev.Particles),
		Discarded: ev.Discarded,
	}
	for i := range ev.Particles {
		if ev.Particles[i].IsPrimary() {
			es.Primaries++
		}
	}
	if len(ev.Cells) == 0 {
		return es
	}

	energies := make([]float64, len(ev.Cells))
	for i, c := range ev.Cells {
		energies[i] = c.Energy
		if c.MCID == NoTrack {
			es.Unresolved++
		}
	}
	es.Energy = floats.Sum(energies)
	es.MaxEnergy = floats.Max(energies)
	es.MeanEnergy = stat.Mean(energies, nil)
	return es
}

func (es EventSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("event", es.Event),
		slog.Int("cells", es.Cells),
		slog.Int("particles", es.Particles),
		slog.Int("primaries", es.Primaries),
		slog.Int("discarded", es.Discarded),
		slog.Int("unresolved", es.Unresolved),
		slog.Float64("energy", es.Energy),
		slog.Float64("max_energy", es.MaxEnergy),
		slog.Float64("mean_energy", es.MeanEnergy),
	)
}

func (s *Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run", s.RunID),
		slog.Int("events", s.Events),
		slog.Int("discarded", s.Discarded),
		slog.Float64("energy", s.Energy),
	)
}
