package enttec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Framing constants from the Enttec DMX USB Pro API.
const (
	// StartDelimiter marks the beginning of every message.
	StartDelimiter byte = 0x7E

	// EndDelimiter terminates every message.
	EndDelimiter byte = 0xE7

	// LabelDMXReceived identifies a "Received DMX Packet" message.
	LabelDMXReceived byte = 5

	// headerSize is label (1) + little-endian payload length (2).
	headerSize = 3

	// maxPayloadLength is the largest payload the USB Pro emits.
	// Anything larger means a corrupt length field.
	maxPayloadLength = 600
)

// Frame is one decoded USB Pro message: a label identifying the message
// type and its raw payload. Frames are ephemeral — produced by one
// ReadFrame call and consumed before the next.
type Frame struct {
	Label   byte
	Payload []byte
}

// Encode produces the wire representation of the frame.
//
// Returns:
//   - []byte: 0x7E | label | lenLo | lenHi | payload | 0xE7
func (f Frame) Encode() []byte {
	buf := make([]byte, 0, len(f.Payload)+5)
	buf = append(buf, StartDelimiter, f.Label)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Payload)))
	buf = append(buf, f.Payload...)
	buf = append(buf, EndDelimiter)
	return buf
}

// Decoder reads USB Pro frames from a byte stream, typically the serial
// port. It holds no state between calls beyond the reader's position, so a
// discarded frame never poisons later reads.
type Decoder struct {
	r io.Reader
}

// NewDecoder creates a Decoder reading from r.
//
// The reader is expected to behave like a serial port with a read timeout:
// a Read that returns 0 bytes with a nil error means the timeout elapsed
// with no data. io.EOF is treated the same way.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadFrame reads one frame from the stream.
//
// It scans past noise until a start delimiter, then reads the header,
// payload, and terminator. A timeout or truncated frame returns (nil, nil)
// — "no frame this cycle", never an error. A present-but-malformed frame
// (bad terminator, absurd length) returns a sentinel error; the caller may
// log it and simply call ReadFrame again.
//
// Returns:
//   - *Frame: Decoded frame, or nil when no complete frame arrived
//   - error: ErrEndDelimiter or ErrFrameTooLarge for malformed frames
func (d *Decoder) ReadFrame() (*Frame, error) {
	var b [1]byte

	// Discard bytes until the start delimiter.
	for {
		ok, err := d.readFull(b[:])
		if err != nil || !ok {
			return nil, err
		}
		if b[0] == StartDelimiter {
			break
		}
	}

	var header [headerSize]byte
	ok, err := d.readFull(header[:])
	if err != nil || !ok {
		return nil, err
	}

	label := header[0]
	length := binary.LittleEndian.Uint16(header[1:3])
	if length > maxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	payload := make([]byte, length)
	ok, err = d.readFull(payload)
	if err != nil || !ok {
		return nil, err
	}

	ok, err = d.readFull(b[:])
	if err != nil || !ok {
		return nil, err
	}
	if b[0] != EndDelimiter {
		return nil, fmt.Errorf("%w: got 0x%02X", ErrEndDelimiter, b[0])
	}

	return &Frame{Label: label, Payload: payload}, nil
}

// readFull fills buf from the stream.
//
// Returns ok=false (with nil error) when the stream times out or ends
// before buf is full — the partial data is dropped and the caller treats
// the cycle as empty. Real I/O errors are returned as-is.
func (d *Decoder) readFull(buf []byte) (bool, error) {
	total := 0
	for total < len(buf) {
		n, err := d.r.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return false, nil
			}
			return false, err
		}
		if n == 0 {
			// Serial read timeout: no data within the window.
			return false, nil
		}
	}
	return true, nil
}
