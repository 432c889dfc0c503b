package filter

// Chain cascades an ordered list of IIR stages, each holding its own
// persistent delay-line state.
type Chain struct {
	stages []*Stage
}

// NewChain builds a cascade that applies stages in the given order.
func NewChain(stages ...*Stage) *Chain {
	return &Chain{stages: stages}
}

// EEGChain builds the fixed high-pass/low-pass/notch cascade every EEG
// channel runs: a 5th-order 2 Hz high-pass, a 5th-order 40 Hz low-pass, and
// a Q=30 50 Hz notch, all designed for the given sampling rate.
func EEGChain(fs float64) *Chain {
	return NewChain(
		Butterworth(2, fs, Highpass, 5),
		Butterworth(40, fs, Lowpass, 5),
		Notch(50, fs, 30),
	)
}

// Step runs one sample through every stage in order and returns the fully
// filtered result.
func (c *Chain) Step(x float64) float64 {
	for _, s := range c.stages {
		x = s.Step(x)
	}
	return x
}

// Reset clears every stage's delay-line state.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}
