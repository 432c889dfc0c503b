// Package validate implements the one-shot channel-quality check: accumulate
// one second of filtered samples, then classify each channel by how far its
// amplitude swings from zero.
package validate

import (
	"context"
	"errors"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Status is a channel's quality classification.
type Status int

const (
	NotValid Status = iota
	Warn
	Valid
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "VALID"
	case Warn:
		return "WARN"
	default:
		return "NOT_VALID"
	}
}

const (
	validThreshold = 250.0
	warnThreshold  = 1000.0
)

// ErrNotConnected is returned by Validate when the device is not connected
// at the start of the call, when it is found disconnected once the
// one-second accumulation window has filled, or when the window does not
// fill before the timeout.
var ErrNotConnected = errors.New("validate: device is not connected")

// Validator accumulates one second of filtered samples and classifies each
// channel once the buffer fills. A timeout or a connection found down
// after the buffer fills ends the check with an error instead.
type Validator struct {
	fs      int
	labels  []string
	timeout time.Duration

	gate sync.Mutex // serializes concurrent Validate calls

	mu           sync.Mutex // guards the fields below, touched from Feed
	buffer       [][]float64
	accumulating bool
	complete     chan struct{}
}

// New returns a Validator that accumulates fs samples per channel before
// classifying, using labels as the channel names in the returned map.
func New(fs int, labels []string) *Validator {
	return &Validator{
		fs:      fs,
		labels:  labels,
		timeout: 5 * time.Second,
	}
}

// Feed is called from the sample path for every filtered sample. It is a
// no-op unless a Validate call is currently accumulating.
func (v *Validator) Feed(sample []float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.accumulating {
		return
	}

	row := make([]float64, len(sample))
	copy(row, sample)
	v.buffer = append(v.buffer, row)

	if len(v.buffer) >= v.fs {
		v.accumulating = false
		close(v.complete)
	}
}

// BufferLen reports how many samples the current accumulation window holds.
// It is safe to call concurrently with Feed and Validate; useful for
// exposing accumulation progress as a gauge metric.
func (v *Validator) BufferLen() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.buffer)
}

// Validate starts a fresh one-second accumulation window and blocks until
// it completes, the timeout elapses, or ctx is canceled. connected is
// checked before the window opens and again after it fills; a drop in
// between is not seen until then. Only one Validate call runs at a time;
// concurrent callers block on each other.
func (v *Validator) Validate(ctx context.Context, connected func() bool) (map[string]Status, error) {
	v.gate.Lock()
	defer v.gate.Unlock()

	if !connected() {
		return nil, ErrNotConnected
	}

	v.mu.Lock()
	v.buffer = v.buffer[:0]
	v.complete = make(chan struct{})
	v.accumulating = true
	v.mu.Unlock()

	select {
	case <-v.complete:
	case <-time.After(v.timeout):
		v.abort()
		return nil, ErrNotConnected
	case <-ctx.Done():
		v.abort()
		return nil, ctx.Err()
	}

	if !connected() {
		v.abort()
		return nil, ErrNotConnected
	}

	result := v.classify()
	v.abort()
	return result, nil
}

func (v *Validator) abort() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.accumulating = false
	v.buffer = nil
}

func (v *Validator) classify() map[string]Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	result := make(map[string]Status, len(v.labels))
	col := make([]float64, len(v.buffer))

	for c, label := range v.labels {
		for i, row := range v.buffer {
			col[i] = row[c]
		}
		maxAbs := floats.Max(col)
		minAbs := -floats.Min(col)
		swing := maxAbs
		if minAbs > swing {
			swing = minAbs
		}

		switch {
		case swing <= validThreshold:
			result[label] = Valid
		case swing > warnThreshold:
			result[label] = NotValid
		default:
			result[label] = Warn
		}
	}
	return result
}
