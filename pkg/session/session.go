// Package session drives one BLE device end to end: connect, decode
// incoming notifications, filter every channel, pace samples onto the
// sampling-rate grid, feed an optional recorder and validator, and
// disconnect.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sourcegraph/conc"

	"github.com/dbehnke/neuroplay-go/pkg/filter"
	"github.com/dbehnke/neuroplay-go/pkg/logger"
	"github.com/dbehnke/neuroplay-go/pkg/metrics"
	"github.com/dbehnke/neuroplay-go/pkg/model"
	"github.com/dbehnke/neuroplay-go/pkg/protocol"
	"github.com/dbehnke/neuroplay-go/pkg/recorder"
	"github.com/dbehnke/neuroplay-go/pkg/syncer"
	"github.com/dbehnke/neuroplay-go/pkg/transport"
	"github.com/dbehnke/neuroplay-go/pkg/validate"
)

// SamplingRate is the fixed EEG sampling rate every supported NeuroPlay
// device streams at.
const SamplingRate = 125

// Session owns one device's full lifecycle: connection state, packet
// decoding, filtering, synchronization, recording, and validation.
type Session struct {
	Descriptor *model.Descriptor

	log *logger.Logger
	fs  int

	assembler    *protocol.FrameAssembler
	chains       []*filter.Chain
	synchronizer *syncer.Synchronizer

	Recorder  *recorder.Coordinator
	Validator *validate.Validator

	// RawHandler, if set, is called with every raw (unfiltered) decoded
	// sample row, concurrently with the filtered-sample path.
	RawHandler func(sample []float64)
	// FilteredHandler, if set, replaces the default filtered-sample
	// handling (synchronize -> record -> validate).
	FilteredHandler func(sample []float64)

	OnDisconnected func()

	metrics *metrics.Collector
	addr    ble.Addr

	mu          sync.RWMutex
	connected   bool
	link        transport.Link
	dataChar    *ble.Characteristic
	controlChar *ble.Characteristic
}

// New returns a Session for the given device descriptor. addr is the
// BLE-stack address used to dial the device; it is kept separate from
// Descriptor.Address (an opaque display string) so pkg/model stays
// transport-agnostic.
func New(desc *model.Descriptor, addr ble.Addr, log *logger.Logger) *Session {
	fs := SamplingRate
	labels := desc.Model.ChannelLabels()

	chains := make([]*filter.Chain, len(labels))
	for i := range chains {
		chains[i] = filter.EEGChain(float64(fs))
	}

	s := &Session{
		Descriptor:   desc,
		log:          log.WithComponent(fmt.Sprintf("session.%s", desc.FullName)),
		fs:           fs,
		assembler:    protocol.NewFrameAssembler(desc.Model.DropIndices()),
		chains:       chains,
		synchronizer: syncer.New(float64(fs), len(labels)),
		Recorder:     recorder.New(fs, labels, log),
		Validator:    validate.New(fs, labels),
		addr:         addr,
	}
	s.Recorder.OnStart(s.synchronizer.Reset)
	return s
}

// SetMetrics attaches a Collector that the session reports packet, frame,
// gap-fill, recording, and validation-buffer activity to. Passing nil (the
// default) disables reporting.
func (s *Session) SetMetrics(m *metrics.Collector) {
	s.metrics = m
}

// IsConnected reports whether the BLE link is currently open.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Connect dials the device, discovers the EEG service and its two
// characteristics, writes the start-stream and channel-select commands,
// and subscribes to notifications. On any failure the dialed link is
// released before returning, so a partial connection attempt never leaks a
// BLE client.
func (s *Session) Connect(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.mu.Unlock()

	link, err := transport.Dial(ctx, s.addr)
	if err != nil {
		return fmt.Errorf("session: dial: %w", err)
	}

	ready := false
	defer func() {
		if !ready {
			link.CancelConnection()
		}
	}()

	profile, err := link.DiscoverProfile(true)
	if err != nil {
		return fmt.Errorf("session: discover profile: %w", err)
	}

	svc, err := transport.FindService(profile, protocol.ServiceUUID)
	if err != nil {
		return err
	}
	if svc == nil {
		return ErrMissingService
	}

	dataChar, controlChar, err := transport.FindCharacteristics(svc, protocol.DataCharUUID, protocol.ControlCharUUID)
	if err != nil {
		return err
	}
	if dataChar == nil || controlChar == nil {
		return ErrMissingCharacteristic
	}

	if err := link.WriteCharacteristic(dataChar, protocol.StartStreamCmd, true); err != nil {
		return fmt.Errorf("session: start stream: %w", err)
	}
	if err := link.WriteCharacteristic(controlChar, protocol.Select8ChannelCmd, true); err != nil {
		return fmt.Errorf("session: select channels: %w", err)
	}
	if err := link.Subscribe(dataChar, false, s.onNotification); err != nil {
		return fmt.Errorf("session: subscribe: %w", err)
	}

	s.mu.Lock()
	s.link, s.dataChar, s.controlChar, s.connected = link, dataChar, controlChar, true
	s.mu.Unlock()
	ready = true
	return nil
}

// Disconnect tears down the BLE link: best-effort stop-stream write and
// unsubscribe (transport errors are logged, not propagated), then an
// unconditional cancel of the connection. It returns ErrNotConnected
// unconditionally when called while already disconnected, regardless of
// why a prior teardown may have failed.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	link, dataChar := s.link, s.dataChar
	s.mu.Unlock()

	if err := link.WriteCharacteristic(dataChar, protocol.StopStreamCmd, true); err != nil {
		s.log.Warn("stop stream write failed during teardown", logger.Error(err))
	}
	if err := link.Unsubscribe(dataChar, false); err != nil {
		s.log.Warn("unsubscribe failed during teardown", logger.Error(err))
	}
	link.CancelConnection()

	s.mu.Lock()
	s.connected = false
	s.link, s.dataChar, s.controlChar = nil, nil, nil
	s.mu.Unlock()

	s.assembler.Reset()
	if s.OnDisconnected != nil {
		s.OnDisconnected()
	} else {
		s.synchronizer.Reset()
	}
	return nil
}

// ValidateChannels runs the one-shot channel-quality check.
func (s *Session) ValidateChannels(ctx context.Context) (map[string]validate.Status, error) {
	return s.Validator.Validate(ctx, s.IsConnected)
}

// StartRecording begins writing to edfPath. See recorder.Coordinator.Start.
func (s *Session) StartRecording(edfPath string) error {
	return s.Recorder.Start(edfPath)
}

// StopRecording finalizes the current recording. See
// recorder.Coordinator.Stop.
func (s *Session) StopRecording() error {
	return s.Recorder.Stop()
}

// WriteAnnotation appends an annotation to the active recording.
func (s *Session) WriteAnnotation(text string) error {
	return s.Recorder.WriteAnnotation(text)
}

func (s *Session) onNotification(data []byte) {
	before := s.assembler.Realignments()
	rows, ok, err := s.assembler.Feed(data)
	if err != nil {
		s.log.Warn("dropping malformed packet", logger.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.PacketsDecoded.Inc()
		if delta := s.assembler.Realignments() - before; delta > 0 {
			s.metrics.FramesRealigned.Add(float64(delta))
		}
	}
	if !ok {
		return
	}
	for _, row := range rows {
		s.handleRow(row)
	}
}

// handleRow dispatches one decoded sample row to the raw and filtered
// handlers concurrently, joining both before the next row is processed so
// a slow filtered-path consumer can never fall behind the raw feed by more
// than one row.
func (s *Session) handleRow(row []float64) {
	var wg conc.WaitGroup
	wg.Go(func() {
		if s.RawHandler != nil {
			s.RawHandler(append([]float64(nil), row...))
		}
	})
	wg.Go(func() {
		filtered := s.filterRow(row)
		if s.FilteredHandler != nil {
			s.FilteredHandler(filtered)
		} else {
			s.defaultFilteredHandler(filtered)
		}
	})
	wg.Wait()
}

func (s *Session) filterRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = s.chains[i].Step(v)
	}
	return out
}

func (s *Session) defaultFilteredHandler(filtered []float64) {
	emitted := s.synchronizer.Next(filtered)
	if s.metrics != nil && len(emitted) > 1 {
		s.metrics.GapFillsEmitted.Add(float64(len(emitted) - 1))
	}
	for _, sample := range emitted {
		if s.Recorder.IsRecording() {
			if err := s.Recorder.WriteData(sample); err != nil {
				s.log.Error("write recording sample failed", logger.Error(err))
			} else if s.metrics != nil {
				s.metrics.SamplesRecorded.Inc()
			}
		}
		s.Validator.Feed(sample)
		if s.metrics != nil {
			s.metrics.ValidationBuffer.WithLabelValues(s.Descriptor.Address).Set(float64(s.Validator.BufferLen()))
		}
	}
}
