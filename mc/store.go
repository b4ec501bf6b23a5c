package mc

import (
	"log/slog"
)

// Store holds every particle recorded during a single event along with the
// track-to-parent index used when walking decay chains. Particles are kept in
// a flat slice in recording order and looked up through locs.
type Store struct {
	ps      []Particle
	locs    map[int]int
	parents map[int]int

	pred Predicate
	log  *slog.Logger
}

// NewStore creates an empty Store which uses pred to decide which particles
// are visible. A nil pred makes every recorded particle visible.
func NewStore(pred Predicate, log *slog.Logger) *Store {
	if pred == nil {
		pred = AllVisible
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		ps:      []Particle{},
		locs:    make(map[int]int),
		parents: make(map[int]int),
		pred:    pred,
		log:     log,
	}
}

// Record adds p to the store. The first record for a track wins: a later
// record with the same TrackID is dropped and false is returned. Stepping
// loops revisit tracks routinely, so this is not an error.
func (s *Store) Record(p Particle) bool {
	if _, ok := s.locs[p.TrackID]; ok {
		s.log.Debug("Ignoring repeated particle record.",
			"track", p.TrackID, "pdg", p.PDG)
		return false
	}

	s.ps = append(s.ps, p)
	s.locs[p.TrackID] = len(s.ps) - 1
	s.Link(p.TrackID, p.ParentID)
	return true
}

// Link registers parentID as the parent of trackID without recording any
// attributes for the track. Like Record, the first link wins.
func (s *Store) Link(trackID, parentID int) {
	if _, ok := s.parents[trackID]; ok {
		return
	}
	s.parents[trackID] = parentID
}

// Get returns the particle recorded for trackID. The pointer is only valid
// until the next call to Record.
func (s *Store) Get(trackID int) (*Particle, bool) {
	i, ok := s.locs[trackID]
	if !ok {
		return nil, false
	}
	return &s.ps[i], true
}

// ParentOf returns the parent of trackID and true, or false if the track is
// unknown or is a primary.
func (s *Store) ParentOf(trackID int) (int, bool) {
	parent, ok := s.parents[trackID]
	if !ok || parent <= 0 {
		return 0, false
	}
	return parent, true
}

// IsVisible returns true if trackID has been recorded and the store's
// Predicate accepts it.
func (s *Store) IsVisible(trackID int) bool {
	p, ok := s.Get(trackID)
	if !ok {
		return false
	}
	return s.pred.Visible(p)
}

// Len returns the number of recorded particles.
func (s *Store) Len() int { return len(s.ps) }

// Links returns the number of tracks with known parentage.
func (s *Store) Links() int { return len(s.parents) }

// Known returns the visible particles in recording order.
func (s *Store) Known() []Particle {
	out := []Particle{}
	for i := range s.ps {
		if s.pred.Visible(&s.ps[i]) {
			out = append(out, s.ps[i])
		}
	}
	return out
}
