package rudpnet

import "math/rand"

// LossInjector is a receiver-side loss-injection hook: it
// probabilistically elects to drop an otherwise valid received frame,
// simulating substrate loss independent of whatever the substrate
// itself already did.
type LossInjector interface {
	// ShouldDrop reports whether the frame currently being processed
	// should be silently discarded.
	ShouldDrop() bool
}

// NoLoss never drops a frame.
var NoLoss LossInjector = noLoss{}

type noLoss struct{}

func (noLoss) ShouldDrop() bool { return false }

// RandomLoss drops frames independently with probability Rate, using
// the supplied *rand.Rand. Production entry points seed Rand from
// nondeterministic entropy (see cmd/); tests inject a fixed seed for
// reproducibility.
type RandomLoss struct {
	Rate float64
	Rand *rand.Rand
}

func (l *RandomLoss) ShouldDrop() bool {
	if l.Rate <= 0 {
		return false
	}
	return l.Rand.Float64() < l.Rate
}
