// Package syncer paces an irregular stream of filtered samples onto a
// fixed-rate grid, inserting zero-filled samples to cover any gap left by
// BLE notification jitter.
package syncer

import "time"

// Synchronizer emits exactly one sample per nominal sampling interval. Gaps
// between calls to Next longer than one interval are backfilled with
// zero-valued sample vectors; it never retracts a sample it has already
// emitted.
type Synchronizer struct {
	interval     time.Duration
	channelCount int

	watermark time.Time
	firstRun  bool

	clock func() time.Time
}

// New returns a Synchronizer for the given sampling rate (Hz) and channel
// count, using the monotonic wall clock.
func New(fs float64, channelCount int) *Synchronizer {
	return &Synchronizer{
		interval:     time.Duration(float64(time.Second) / fs),
		channelCount: channelCount,
		firstRun:     true,
		clock:        time.Now,
	}
}

// Next advances the watermark by one interval and compares it to the
// current clock reading before deciding what to emit. On the very first
// call the watermark is seeded to "now" and then immediately advanced, so
// the first sample is effectively delayed by one interval. Downstream
// consumers rely on that timing, so it is not special-cased away.
//
// If the advanced watermark is still at or ahead of the clock, Next
// returns just the given sample. Otherwise it returns one zero-vector per
// missed interval, followed by the given sample.
func (s *Synchronizer) Next(sample []float64) [][]float64 {
	now := s.clock()

	if s.firstRun {
		s.firstRun = false
		s.watermark = now
	}
	s.watermark = s.watermark.Add(s.interval)

	if !s.watermark.Before(now) {
		return [][]float64{sample}
	}

	var out [][]float64
	for s.watermark.Before(now) {
		out = append(out, make([]float64, s.channelCount))
		s.watermark = s.watermark.Add(s.interval)
	}
	out = append(out, sample)
	return out
}

// Reset restarts the watermark as if Next had never been called. It does
// not affect samples already emitted.
func (s *Synchronizer) Reset() {
	s.firstRun = true
	s.watermark = time.Time{}
}
