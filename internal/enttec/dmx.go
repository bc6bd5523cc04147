package enttec

// DMX channel bounds (1-indexed, per the DMX512 convention).
const (
	MinChannel = 1
	MaxChannel = 512

	// snapshotHeaderSize is status (1) + start code (1).
	snapshotHeaderSize = 2
)

// Snapshot is the DMX universe view carried by one "Received DMX Packet"
// message: the receiver status, the DMX start code, and however many
// channel values the controller transmitted.
type Snapshot struct {
	// Status is the receiver status byte; zero means the packet was
	// received without errors.
	Status byte

	// StartCode is the DMX start code (0 for standard dimmer data).
	StartCode byte

	// Channels holds channel values; Channels[0] is DMX channel 1.
	Channels []byte
}

// ParseSnapshot extracts the DMX snapshot from a frame.
//
// Only label-5 frames with a zero status byte and at least the two header
// bytes qualify. Anything else returns ok=false — "not relevant this
// cycle", not an error.
//
// Parameters:
//   - f: Decoded frame (may be nil)
//
// Returns:
//   - *Snapshot: Parsed snapshot view over the frame's payload
//   - bool: false when the frame carries no valid DMX data
func ParseSnapshot(f *Frame) (*Snapshot, bool) {
	if f == nil || f.Label != LabelDMXReceived {
		return nil, false
	}
	if len(f.Payload) < snapshotHeaderSize || f.Payload[0] != 0 {
		return nil, false
	}

	return &Snapshot{
		Status:    f.Payload[0],
		StartCode: f.Payload[1],
		Channels:  f.Payload[snapshotHeaderSize:],
	}, true
}

// Channel returns the value of a DMX channel.
//
// Parameters:
//   - n: Channel number, 1..512
//
// Returns:
//   - byte: Channel value 0..255
//   - bool: false when n is out of range or the controller sent fewer
//     channels than n
func (s *Snapshot) Channel(n int) (byte, bool) {
	if n < MinChannel || n > MaxChannel {
		return 0, false
	}
	if n > len(s.Channels) {
		return 0, false
	}
	return s.Channels[n-1], true
}

// Presence derives the presence boolean from a frame.
//
// Parameters:
//   - f: Decoded frame (may be nil)
//   - channel: DMX channel carrying the presence signal
//
// Returns:
//   - bool: true when the channel value is nonzero
//   - bool: false when the frame yields no reading for the channel; the
//     caller must treat this as "no new information", not "absent"
func Presence(f *Frame, channel int) (present bool, ok bool) {
	snap, ok := ParseSnapshot(f)
	if !ok {
		return false, false
	}
	v, ok := snap.Channel(channel)
	if !ok {
		return false, false
	}
	return v > 0, true
}
