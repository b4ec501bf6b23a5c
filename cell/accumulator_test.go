package cell

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gotpc/geom"
)

type deposit struct {
	idx, track int
	e          float64
}

func fill(t *testing.T, acc *Accumulator, ds []deposit) {
	for _, d := range ds {
		require.NoError(t, acc.Deposit(d.idx, geom.Vec{float64(d.idx), 0, 0}, d.track, d.e))
	}
}

func TestDeposit(t *testing.T) {
	acc := NewAccumulator()
	fill(t, acc, []deposit{
		{7, 5, 1.5}, {7, 5, 0.5}, {7, 2, 1.0}, {3, 5, 0.25},
	})

	c, ok := acc.Cell(7)
	require.True(t, ok)
	assert.Equal(t, 3.0, c.Energy)
	assert.Equal(t, geom.Vec{7, 0, 0}, c.Center)
	assert.Equal(t, map[int]float64{5: 2.0, 2: 1.0}, acc.Contributions(7))

	cells := acc.Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, 7, cells[0].Index)
	assert.Equal(t, 3, cells[1].Index)
	assert.Equal(t, 2, acc.Len())
	assert.Equal(t, 3.25, acc.Total())
	assert.Nil(t, acc.Contributions(11))
}

func TestDepositRejectsBadEnergy(t *testing.T) {
	acc := NewAccumulator()
	for _, e := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.Error(t, acc.Deposit(0, geom.Vec{}, 1, e), "%g", e)
	}
	assert.Equal(t, 0, acc.Len())
}

func TestZeroDepositIsInvisible(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Deposit(4, geom.Vec{}, 1, 0))

	_, ok := acc.Cell(4)
	assert.False(t, ok)
	assert.Empty(t, acc.Cells())
	assert.Equal(t, 0, acc.Len())
	assert.Equal(t, map[int]float64{1: 0}, acc.Contributions(4))

	require.NoError(t, acc.Deposit(4, geom.Vec{}, 2, 0.5))
	_, ok = acc.Cell(4)
	assert.True(t, ok)
	assert.Equal(t, 1, acc.Len())
}

func randomDeposits(gen *rand.Rand, n int) []deposit {
	ds := make([]deposit, n)
	for i := range ds {
		// Multiples of 1/8 sum exactly, so totals can be compared with ==.
		ds[i] = deposit{gen.Intn(10), gen.Intn(6) + 1, float64(gen.Intn(64)) / 8}
	}
	return ds
}

func tallies(acc *Accumulator) (map[int]float64, map[int]map[int]float64) {
	totals := map[int]float64{}
	contribs := map[int]map[int]float64{}
	for _, c := range acc.Cells() {
		totals[c.Index] = c.Energy
		contribs[c.Index] = acc.Contributions(c.Index)
	}
	return totals, contribs
}

func TestDepositCommutativity(t *testing.T) {
	gen := rand.New(rand.NewSource(7))
	ds := randomDeposits(gen, 500)

	ref := NewAccumulator()
	fill(t, ref, ds)
	refTotals, refContribs := tallies(ref)

	for trial := 0; trial < 5; trial++ {
		shuffled := append([]deposit{}, ds...)
		gen.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		acc := NewAccumulator()
		fill(t, acc, shuffled)
		totals, contribs := tallies(acc)
		assert.Equal(t, refTotals, totals, "trial %d", trial)
		assert.Equal(t, refContribs, contribs, "trial %d", trial)
	}
}

func TestMerge(t *testing.T) {
	gen := rand.New(rand.NewSource(11))
	ds := randomDeposits(gen, 300)

	ref := NewAccumulator()
	fill(t, ref, ds)
	refTotals, refContribs := tallies(ref)

	segs := []*Accumulator{NewAccumulator(), NewAccumulator(), NewAccumulator()}
	for i, d := range ds {
		fill(t, segs[i%len(segs)], []deposit{d})
	}

	for _, order := range [][]int{{0, 1, 2}, {2, 0, 1}, {1, 2, 0}} {
		acc := NewAccumulator()
		for _, i := range order {
			acc.Merge(segs[i])
		}
		totals, contribs := tallies(acc)
		assert.Equal(t, refTotals, totals, "order %v", order)
		assert.Equal(t, refContribs, contribs, "order %v", order)
		assert.Equal(t, ref.Len(), acc.Len())
	}
}
