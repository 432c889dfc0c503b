// Package model identifies the NeuroPlay device variants this SDK supports
// and parses the advertised BLE name into a typed descriptor.
package model

import (
	"errors"
	"regexp"
	"strconv"
)

// Model is a supported NeuroPlay hardware variant.
type Model int

const (
	Unknown Model = iota
	SixChannel
	EightChannel
)

// String returns the advertised-name prefix for the model.
func (m Model) String() string {
	switch m {
	case SixChannel:
		return "NeuroPlay-6C"
	case EightChannel:
		return "NeuroPlay-8Cap"
	default:
		return "unknown"
	}
}

// sixChannelDropIndices are the raw 8-wide column positions the 6-channel
// variant's firmware leaves unused. The mapping from these positions to the
// channel labels below is not documented by the vendor; it is reproduced
// exactly as observed rather than re-derived.
var sixChannelDropIndices = []int{1, 6}

var channelLabels = map[Model][]string{
	SixChannel:   {"O1", "T3", "Fp1", "Fp2", "T4", "O2"},
	EightChannel: {"O1", "P3", "C3", "F3", "F4", "C4", "P4", "O2"},
}

// ChannelLabels returns the ordered channel names this model reports after
// raw-channel demultiplexing.
func (m Model) ChannelLabels() []string {
	return channelLabels[m]
}

// ChannelCount returns len(m.ChannelLabels()).
func (m Model) ChannelCount() int {
	return len(channelLabels[m])
}

// DropIndices returns the raw-channel column positions a packet decoder
// must remove from the 8-wide raw sample row to produce this model's
// channel layout. Returns nil for models that keep all 8 raw channels.
func (m Model) DropIndices() []int {
	if m == SixChannel {
		return sixChannelDropIndices
	}
	return nil
}

func fromPrefix(name string) Model {
	switch name {
	case SixChannel.String():
		return SixChannel
	case EightChannel.String():
		return EightChannel
	default:
		return Unknown
	}
}

// ErrNotValidDevice is returned when an advertised name does not match the
// "<model> (<id>)" pattern or does not name a supported model.
var ErrNotValidDevice = errors.New("model: advertised name is not a valid NeuroPlay device name")

var nameExpr = regexp.MustCompile(`^(.+) \((\d+)\)$`)

// Descriptor identifies one physical device by its advertised BLE name.
type Descriptor struct {
	FullName string // e.g. "NeuroPlay-8Cap (1234)"
	Address  string // transport address, opaque to this package
	Name     string // e.g. "NeuroPlay-8Cap"
	ID       int    // e.g. 1234
	Model    Model
}

// ParseDescriptor parses a BLE advertised name of the form "<name> (<id>)"
// and resolves <name> to a supported Model. It returns ErrNotValidDevice if
// the name doesn't match that pattern or doesn't name a supported model.
func ParseDescriptor(fullName, address string) (*Descriptor, error) {
	groups := nameExpr.FindStringSubmatch(fullName)
	if groups == nil {
		return nil, ErrNotValidDevice
	}

	id, err := strconv.Atoi(groups[2])
	if err != nil {
		return nil, ErrNotValidDevice
	}

	mdl := fromPrefix(groups[1])
	if mdl == Unknown {
		return nil, ErrNotValidDevice
	}

	return &Descriptor{
		FullName: fullName,
		Address:  address,
		Name:     groups[1],
		ID:       id,
		Model:    mdl,
	}, nil
}
