package model

import (
	"errors"
	"testing"
)

func TestParseDescriptor(t *testing.T) {
	cases := []struct {
		name     string
		fullName string
		wantErr  error
		wantID   int
		wantMdl  Model
	}{
		{"8cap", "NeuroPlay-8Cap (4821)", nil, 4821, EightChannel},
		{"6c", "NeuroPlay-6C (12)", nil, 12, SixChannel},
		{"no id", "NeuroPlay-8Cap", ErrNotValidDevice, 0, Unknown},
		{"unknown model", "NeuroPlay-X (1)", ErrNotValidDevice, 0, Unknown},
		{"empty", "", ErrNotValidDevice, 0, Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			desc, err := ParseDescriptor(tc.fullName, "AA:BB:CC:DD:EE:FF")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				return
			}
			if desc.ID != tc.wantID {
				t.Errorf("ID = %d, want %d", desc.ID, tc.wantID)
			}
			if desc.Model != tc.wantMdl {
				t.Errorf("Model = %v, want %v", desc.Model, tc.wantMdl)
			}
		})
	}
}

func TestChannelLabels(t *testing.T) {
	if got := SixChannel.ChannelCount(); got != 6 {
		t.Errorf("SixChannel.ChannelCount() = %d, want 6", got)
	}
	if got := EightChannel.ChannelCount(); got != 8 {
		t.Errorf("EightChannel.ChannelCount() = %d, want 8", got)
	}
	if got := SixChannel.DropIndices(); len(got) != 2 {
		t.Errorf("SixChannel.DropIndices() = %v, want 2 entries", got)
	}
	if got := EightChannel.DropIndices(); got != nil {
		t.Errorf("EightChannel.DropIndices() = %v, want nil", got)
	}
}
