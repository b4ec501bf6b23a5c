package mc

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// Predicate decides whether a particle is worth reporting as the cause of a
// detector response.
type Predicate interface {
	Visible(p *Particle) bool
}

// PredicateFunc adapts an ordinary function to the Predicate interface.
type PredicateFunc func(p *Particle) bool

func (f PredicateFunc) Visible(p *Particle) bool { return f(p) }

// AllVisible accepts every particle.
var AllVisible Predicate = PredicateFunc(func(*Particle) bool { return true })

// Policy is a species allow-list with kinetic energy and momentum thresholds.
// A particle is visible if it passes MinKineticEnergy and MinMomentum and
// either its species is listed and passes the species thresholds, or
// AllowUnlisted is set.
type Policy struct {
	MinKineticEnergy float64       `yaml:"min_kinetic_energy"`
	MinMomentum      float64       `yaml:"min_momentum"`
	AllowUnlisted    bool          `yaml:"allow_unlisted"`
	Species          []SpeciesRule `yaml:"species"`

	rules map[int]*SpeciesRule
}

// SpeciesRule is the policy for a single PDG code.
type SpeciesRule struct {
	Name             string  `yaml:"name"`
	PDG              int     `yaml:"pdg"`
	MinKineticEnergy float64 `yaml:"min_kinetic_energy"`
	MinMomentum      float64 `yaml:"min_momentum"`
	// AntiParticle also applies the rule to -PDG.
	AntiParticle bool `yaml:"anti_particle"`
}

// DefaultPolicy returns the embedded default policy.
func DefaultPolicy() *Policy {
	pol, err := ParsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded policy.yaml is invalid: %s", err.Error()))
	}
	return pol
}

// DefaultPolicyYAML returns the text of the embedded default policy.
func DefaultPolicyYAML() string { return string(defaultPolicyYAML) }

// LoadPolicy reads a YAML policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	pol, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return pol, nil
}

// ParsePolicy parses and validates a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	pol := &Policy{}
	if err := yaml.Unmarshal(data, pol); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if err := pol.Init(); err != nil {
		return nil, err
	}
	return pol, nil
}

// Init validates the policy and builds its species index. It must be called
// on policies that are not created by ParsePolicy or DefaultPolicy.
func (pol *Policy) Init() error {
	if pol.MinKineticEnergy < 0 {
		return fmt.Errorf(
			"min_kinetic_energy must be non-negative, but is %g.",
			pol.MinKineticEnergy,
		)
	} else if pol.MinMomentum < 0 {
		return fmt.Errorf(
			"min_momentum must be non-negative, but is %g.", pol.MinMomentum,
		)
	}

	pol.rules = make(map[int]*SpeciesRule, 2*len(pol.Species))
	for i := range pol.Species {
		r := &pol.Species[i]
		if r.MinKineticEnergy < 0 {
			return fmt.Errorf(
				"Species %d ('%s') has negative min_kinetic_energy %g.",
				r.PDG, r.Name, r.MinKineticEnergy,
			)
		} else if r.MinMomentum < 0 {
			return fmt.Errorf(
				"Species %d ('%s') has negative min_momentum %g.",
				r.PDG, r.Name, r.MinMomentum,
			)
		}
		if _, ok := pol.rules[r.PDG]; ok {
			return fmt.Errorf("Species %d is listed more than once.", r.PDG)
		}
		pol.rules[r.PDG] = r
		if r.AntiParticle && r.PDG != 0 {
			if _, ok := pol.rules[-r.PDG]; ok {
				return fmt.Errorf("Species %d is listed more than once.", -r.PDG)
			}
			pol.rules[-r.PDG] = r
		}
	}
	return nil
}

// Visible implements Predicate.
func (pol *Policy) Visible(p *Particle) bool {
	ke, mom := p.KineticEnergy(), p.MomentumMag()
	if ke < pol.MinKineticEnergy || mom < pol.MinMomentum {
		return false
	}

	r, ok := pol.rules[p.PDG]
	if !ok {
		return pol.AllowUnlisted
	}
	return ke >= r.MinKineticEnergy && mom >= r.MinMomentum
}
