package recorder

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
)

// ErrAlreadyRecording and ErrNotRecording are the recording-lifecycle error
// kinds: starting twice, or stopping/annotating when nothing is recording.
var (
	ErrAlreadyRecording = errors.New("recorder: recording already started")
	ErrNotRecording     = errors.New("recorder: recording not started")
)

// Coordinator owns one recording session at a time: two staged CSV writers
// (samples and annotations) and the EDF+ finalization that runs on stop.
type Coordinator struct {
	fs            int
	flushEvery    int
	physicalMin   float64
	physicalMax   float64
	channelLabels []string
	log           *logger.Logger

	mu        sync.Mutex
	recording bool
	edfPath   string
	dataPath  string
	annPath   string
	data      *dataWriter
	ann       *annotationsWriter
	buffer    [][]float64

	onStart []func()
	onStop  []func()
}

// New returns a Coordinator that buffers up to fs sample rows before
// flushing to the staged data CSV, matching the device's sampling rate so
// one flush roughly corresponds to one second of data.
func New(fs int, channelLabels []string, log *logger.Logger) *Coordinator {
	return &Coordinator{
		fs:            fs,
		flushEvery:    fs,
		physicalMin:   physicalMin,
		physicalMax:   physicalMax,
		channelLabels: channelLabels,
		log:           log.WithComponent("recorder"),
	}
}

// SetFlushEvery overrides how many buffered rows accumulate before a flush
// to the staged data CSV. n <= 0 is ignored, leaving the current value (fs
// rows, by default) in place.
func (c *Coordinator) SetFlushEvery(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushEvery = n
}

// SetPhysicalRange overrides the physical amplitude range (µV) the EDF+
// finalizer maps the digital int16 range onto. lo must be < hi or the
// call is ignored, leaving the current range (±10000 µV by default) in
// place.
func (c *Coordinator) SetPhysicalRange(lo, hi float64) {
	if lo >= hi {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.physicalMin, c.physicalMax = lo, hi
}

// OnStart registers a callback fired at the start of Start, before any
// writer is opened. Used by session.Session to reset the sample
// synchronizer at the start of every recording.
func (c *Coordinator) OnStart(f func()) { c.onStart = append(c.onStart, f) }

// OnStop registers a callback fired at the start of Stop, before buffered
// samples are flushed.
func (c *Coordinator) OnStop(f func()) { c.onStop = append(c.onStop, f) }

// IsRecording reports whether a recording session is currently open.
func (c *Coordinator) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Start opens a new recording session, deriving sibling "data.csv" and
// "annotations.csv" staged files next to edfPath. It fails with
// ErrAlreadyRecording if a session is already open.
func (c *Coordinator) Start(edfPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording {
		return ErrAlreadyRecording
	}

	for _, f := range c.onStart {
		f()
	}

	dir := filepath.Dir(edfPath)
	dataPath := filepath.Join(dir, "data.csv")
	annPath := filepath.Join(dir, "annotations.csv")

	data, err := newDataWriter(dataPath, c.channelLabels)
	if err != nil {
		return fmt.Errorf("recorder: open data csv: %w", err)
	}

	ann, err := newAnnotationsWriter(annPath, time.Now())
	if err != nil {
		data.stop()
		return fmt.Errorf("recorder: open annotations csv: %w", err)
	}

	c.edfPath, c.dataPath, c.annPath = edfPath, dataPath, annPath
	c.data, c.ann = data, ann
	c.buffer = c.buffer[:0]
	c.recording = true
	return nil
}

// WriteData buffers one filtered sample row, flushing to the staged CSV
// once the flush batch size (fs rows unless changed by SetFlushEvery) has
// accumulated. Samples written while no session is open
// are silently dropped; only what arrives while recording is persisted.
func (c *Coordinator) WriteData(sample []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.recording {
		return nil
	}

	row := make([]float64, len(sample))
	copy(row, sample)
	c.buffer = append(c.buffer, row)

	if len(c.buffer) >= c.flushEvery {
		if err := c.data.appendRows(c.buffer); err != nil {
			return fmt.Errorf("recorder: flush data rows: %w", err)
		}
		c.buffer = c.buffer[:0]
	}
	return nil
}

// WriteAnnotation appends a timestamped annotation to the annotations CSV.
// It fails with ErrNotRecording if no session is open.
func (c *Coordinator) WriteAnnotation(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.recording {
		return ErrNotRecording
	}
	return c.ann.appendAnnotation(text)
}

// Stop flushes any buffered samples, closes both staged CSVs, and
// finalizes them into the EDF+ file named at Start. It fails with
// ErrNotRecording if no session is open.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return ErrNotRecording
	}

	for _, f := range c.onStop {
		f()
	}

	if len(c.buffer) > 0 {
		if err := c.data.appendRows(c.buffer); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("recorder: final data flush: %w", err)
		}
		c.buffer = c.buffer[:0]
	}

	if err := c.ann.stop(); err != nil {
		c.log.Warn("failed closing annotations csv", logger.Error(err))
	}
	if err := c.data.stop(); err != nil {
		c.log.Warn("failed closing data csv", logger.Error(err))
	}

	edfPath, dataPath, annPath, fs := c.edfPath, c.dataPath, c.annPath, c.fs
	physMin, physMax := c.physicalMin, c.physicalMax
	c.edfPath, c.dataPath, c.annPath = "", "", ""
	c.recording = false
	c.mu.Unlock()

	if err := finalizeEDF(edfPath, dataPath, annPath, fs, physMin, physMax); err != nil {
		return fmt.Errorf("recorder: finalize edf: %w", err)
	}
	return nil
}
