package protocol

import "fmt"

// ErrShortPacket is returned by FrameAssembler.Feed when a notification is
// smaller than PacketSize.
var ErrShortPacket = fmt.Errorf("protocol: packet shorter than %d bytes", PacketSize)

// FrameAssembler reassembles a run of BLE notification packets into decoded
// EEG sample rows. It holds a bounded queue of raw packets, checks frame-id
// alignment on the lead packet, and demultiplexes the model-specific raw
// channels before returning a frame.
//
// A FrameAssembler is not safe for concurrent use; one is created per
// active device session.
type FrameAssembler struct {
	packets      [][]byte
	dropIndices  map[int]bool
	channelCount int
	realignments int
}

// NewFrameAssembler returns an assembler that demultiplexes raw 8-wide
// sample rows by removing the given column positions. Pass nil to keep all
// 8 raw channels.
func NewFrameAssembler(dropIndices []int) *FrameAssembler {
	drop := make(map[int]bool, len(dropIndices))
	for _, idx := range dropIndices {
		drop[idx] = true
	}
	return &FrameAssembler{
		packets:      make([][]byte, 0, FrameQueueSize),
		dropIndices:  drop,
		channelCount: RawChannelCount - len(drop),
	}
}

// Feed appends one received notification packet. Once FrameQueueSize
// packets have accumulated it checks the lead packet's frame-id; a
// misaligned lead packet is dropped and the queue continues to fill. On an
// aligned queue it decodes and returns FrameRows sample rows and resets the
// queue. Feed returns (nil, false, nil) when no frame is ready yet.
func (a *FrameAssembler) Feed(packet []byte) ([][]float64, bool, error) {
	if len(packet) < PacketSize {
		return nil, false, ErrShortPacket
	}

	a.packets = append(a.packets, packet)
	if len(a.packets) < FrameQueueSize {
		return nil, false, nil
	}

	if a.packets[0][0]&0x03 != 0 {
		// Lead packet isn't frame 0; drop it and keep waiting for alignment.
		a.packets = a.packets[1:]
		a.realignments++
		return nil, false, nil
	}

	rows := a.decode()
	a.packets = a.packets[:0]
	return rows, true, nil
}

// Reset discards any partially-assembled frame.
func (a *FrameAssembler) Reset() {
	a.packets = a.packets[:0]
}

// Realignments returns the number of misaligned lead packets dropped since
// construction. It is a monotonically increasing counter, suitable for
// deriving a delta between two calls to feed a metrics counter.
func (a *FrameAssembler) Realignments() int {
	return a.realignments
}

func (a *FrameAssembler) decode() [][]float64 {
	raw := make([]float64, RawChannelCount*FrameRows)
	for i, pkt := range a.packets {
		for j := 0; j < SamplesPerPacket; j++ {
			off := sampleOffset + sampleWidth*j
			raw[i*SamplesPerPacket+j] = decode24(pkt[off:off+sampleWidth]) * MagicMicrovoltsBit
		}
	}

	rows := make([][]float64, FrameRows)
	for r := 0; r < FrameRows; r++ {
		rows[r] = a.demux(raw[r*RawChannelCount : (r+1)*RawChannelCount])
	}
	return rows
}

func (a *FrameAssembler) demux(row []float64) []float64 {
	if len(a.dropIndices) == 0 {
		out := make([]float64, len(row))
		copy(out, row)
		return out
	}
	out := make([]float64, 0, a.channelCount)
	for i, v := range row {
		if a.dropIndices[i] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// decode24 sign-extends a 24-bit big-endian two's complement integer held
// in 3 bytes.
func decode24(b []byte) float64 {
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	v <<= 8 // moves bit 23 into the int32 sign bit
	v >>= 8 // arithmetic shift sign-extends it back down
	return float64(v)
}
