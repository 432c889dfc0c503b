package protocol

import "testing"

// packet builds a fake 20-byte notification with the given frame id and 6
// identical 24-bit samples so the expected decoded value is easy to check.
func packet(frameID byte, sample int32) []byte {
	p := make([]byte, PacketSize)
	p[0] = frameID
	for j := 0; j < SamplesPerPacket; j++ {
		off := sampleOffset + sampleWidth*j
		p[off] = byte(sample >> 16)
		p[off+1] = byte(sample >> 8)
		p[off+2] = byte(sample)
	}
	return p
}

func TestDecode24SignExtension(t *testing.T) {
	cases := []struct {
		name string
		b    []byte
		want float64
	}{
		{"zero", []byte{0x00, 0x00, 0x00}, 0},
		{"positive max", []byte{0x7f, 0xff, 0xff}, 8388607},
		{"negative one", []byte{0xff, 0xff, 0xff}, -1},
		{"negative min", []byte{0x80, 0x00, 0x00}, -8388608},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decode24(tc.b); got != tc.want {
				t.Errorf("decode24(%v) = %v, want %v", tc.b, got, tc.want)
			}
		})
	}
}

func TestFrameAssemblerAssemblesAlignedQueue(t *testing.T) {
	a := NewFrameAssembler(nil)

	var rows [][]float64
	var ok bool
	for id := byte(0); id < FrameQueueSize; id++ {
		var err error
		rows, ok, err = a.Feed(packet(id, 1000))
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}

	if !ok {
		t.Fatal("expected a completed frame on the 4th packet")
	}
	if len(rows) != FrameRows {
		t.Fatalf("len(rows) = %d, want %d", len(rows), FrameRows)
	}
	for _, row := range rows {
		if len(row) != RawChannelCount {
			t.Fatalf("len(row) = %d, want %d", len(row), RawChannelCount)
		}
		for _, v := range row {
			want := 1000 * MagicMicrovoltsBit
			if v != want {
				t.Errorf("sample = %v, want %v", v, want)
			}
		}
	}
}

func TestFrameAssemblerDropsMisalignedLeadPacket(t *testing.T) {
	a := NewFrameAssembler(nil)

	// Misaligned: first packet's frame-id bits aren't 0.
	ids := []byte{2, 3, 0, 1, 2, 3}
	completed := false
	for _, id := range ids {
		_, ok, err := a.Feed(packet(id, 1))
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if ok {
			completed = true
		}
	}
	if !completed {
		t.Fatal("expected realignment to eventually produce a completed frame")
	}
}

func TestFrameAssemblerRealignsAfterSingleBadLead(t *testing.T) {
	a := NewFrameAssembler(nil)

	var rows [][]float64
	for _, id := range []byte{1, 0, 0, 0, 0} {
		got, ok, err := a.Feed(packet(id, 1))
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if ok {
			rows = got
		}
	}

	if a.Realignments() != 1 {
		t.Fatalf("Realignments() = %d, want 1", a.Realignments())
	}
	if len(rows) != FrameRows {
		t.Fatalf("len(rows) = %d, want exactly %d after realignment", len(rows), FrameRows)
	}
}

func TestFrameAssemblerShortPacket(t *testing.T) {
	a := NewFrameAssembler(nil)
	_, _, err := a.Feed(make([]byte, PacketSize-1))
	if err != ErrShortPacket {
		t.Fatalf("err = %v, want ErrShortPacket", err)
	}
}

func TestFrameAssemblerDemuxesSixChannelModel(t *testing.T) {
	a := NewFrameAssembler([]int{1, 6})

	var rows [][]float64
	for id := byte(0); id < FrameQueueSize; id++ {
		var err error
		rows, _, err = a.Feed(packet(id, 500))
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}

	for _, row := range rows {
		if len(row) != 6 {
			t.Fatalf("len(row) = %d, want 6", len(row))
		}
	}
}
