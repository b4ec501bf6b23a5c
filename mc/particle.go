// Package mc stores the simulated particles seen during one event and
// answers parentage and visibility queries about them.
package mc

import (
	"go-hep.org/x/hep/fmom"

	"github.com/phil-mansfield/gotpc/geom"
)

// Particle is the record of one simulated track. TrackIDs are assigned by the
// simulation engine and are only unique within an event.
type Particle struct {
	TrackID  int
	ParentID int // 0 for primaries
	PDG      int

	Mass, Energy         float64
	Start, End, Momentum geom.Vec
}

// IsPrimary returns true if the particle has no parent.
func (p *Particle) IsPrimary() bool { return p.ParentID <= 0 }

// P4 returns the particle's four-momentum.
func (p *Particle) P4() fmom.PxPyPzE {
	return fmom.NewPxPyPzE(p.Momentum[0], p.Momentum[1], p.Momentum[2], p.Energy)
}

// KineticEnergy returns the total energy minus the rest mass.
func (p *Particle) KineticEnergy() float64 {
	return p.Energy - p.Mass
}

// MomentumMag returns |p| of the particle's four-momentum.
func (p *Particle) MomentumMag() float64 {
	p4 := p.P4()
	return p4.P()
}
