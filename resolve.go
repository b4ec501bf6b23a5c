package gotpc

const (
	// Epsilon is the smallest dominant contribution for which a cell is
	// reported. It is the float32 machine epsilon.
	Epsilon = 1.1920929e-07
	// NoTrack is the attributed id of a cell whose dominant track has no
	// visible ancestor.
	NoTrack = 0
)

// ParentIndex is the view of a particle store needed to resolve cells.
type ParentIndex interface {
	ParentOf(trackID int) (int, bool)
	IsVisible(trackID int) bool
	Links() int
}

// Dominant returns the track with the largest contribution and that
// contribution. Equal contributions are broken in favor of the lowest track
// id so the result does not depend on map iteration order. If contribs is
// empty, -1 and 0 are returned.
func Dominant(contribs map[int]float64) (trackID int, energy float64) {
	trackID, energy = -1, 0
	for track, e := range contribs {
		if e > energy || (e == energy && trackID != -1 && track < trackID) {
			trackID, energy = track, e
		}
	}
	return trackID, energy
}

// Resolve returns the particle responsible for a cell with the given
// contributions. It picks the dominant track and walks up its parents until
// it finds one which is visible, falling back to NoTrack if the chain runs
// out. ok is false if the dominant contribution is below Epsilon, in which
// case the cell should not be reported.
func Resolve(contribs map[int]float64, idx ParentIndex) (trackID int, ok bool) {
	trackID, energy := Dominant(contribs)
	if energy < Epsilon {
		return NoTrack, false
	}
	return VisibleAncestor(trackID, idx), true
}

// VisibleAncestor returns the closest visible track in the parent chain
// starting at (and including) trackID, or NoTrack if there isn't one. Parent
// chains longer than the number of known links must contain a cycle and
// also resolve to NoTrack.
func VisibleAncestor(trackID int, idx ParentIndex) int {
	maxHops := idx.Links() + 1
	for hops := 0; !idx.IsVisible(trackID); hops++ {
		parent, ok := idx.ParentOf(trackID)
		if !ok || hops >= maxHops {
			return NoTrack
		}
		trackID = parent
	}
	return trackID
}
