package rudpnet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoLossNeverDrops(t *testing.T) {
	for i := 0; i < 100; i++ {
		require.False(t, NoLoss.ShouldDrop())
	}
}

func TestRandomLossZeroRateNeverDrops(t *testing.T) {
	l := &RandomLoss{Rate: 0, Rand: rand.New(rand.NewSource(1))}
	for i := 0; i < 100; i++ {
		require.False(t, l.ShouldDrop())
	}
}

func TestRandomLossFullRateAlwaysDrops(t *testing.T) {
	l := &RandomLoss{Rate: 1, Rand: rand.New(rand.NewSource(1))}
	for i := 0; i < 100; i++ {
		require.True(t, l.ShouldDrop())
	}
}

func TestRandomLossIsDeterministicForASeed(t *testing.T) {
	a := &RandomLoss{Rate: 0.5, Rand: rand.New(rand.NewSource(42))}
	b := &RandomLoss{Rate: 0.5, Rand: rand.New(rand.NewSource(42))}
	for i := 0; i < 20; i++ {
		require.Equal(t, a.ShouldDrop(), b.ShouldDrop())
	}
}
