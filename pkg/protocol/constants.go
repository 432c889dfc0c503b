// Package protocol decodes the NeuroPlay BLE GATT wire format: the
// service/characteristic UUIDs, the command bytes that start and stop
// streaming, and the 20-byte notification packets carrying 24-bit signed
// EEG samples.
package protocol

// GATT identifiers advertised by every supported NeuroPlay device.
const (
	ServiceUUID     = "f0001298-0451-4000-b000-000000000000"
	DataCharUUID    = "f0001299-0451-4000-b000-000000000000"
	ControlCharUUID = "f000129a-0451-4000-b000-000000000000"
)

// Packet and frame geometry.
const (
	PacketSize       = 20 // bytes per BLE notification
	FrameQueueSize   = 4  // packets per assembled frame
	SamplesPerPacket = 6  // 24-bit samples per packet payload
	RawChannelCount  = 8  // raw channels before model-specific demux
	FrameRows        = 3  // decoded time steps per assembled frame

	sampleOffset = 2 // payload starts after the 2-byte packet header
	sampleWidth  = 3 // bytes per 24-bit sample
)

// MagicMicrovoltsBit scales a sign-extended 24-bit raw ADC sample to
// microvolts. The constant is the vendor's own calibration figure.
const MagicMicrovoltsBit = 0.000186265

// GATT command payloads. StartStreamCmd and StopStreamCmd are written to the
// data characteristic; Select8ChannelCmd is written to the control
// characteristic.
var (
	StartStreamCmd    = []byte{0x01, 0x00}
	Select8ChannelCmd = []byte{0x01, 0x01}
	StopStreamCmd     = []byte{0x00, 0x00}
)
