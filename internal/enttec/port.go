package enttec

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Receiver owns the serial connection to the USB Pro and decodes frames
// from it. It is not safe for concurrent use; the bridge loop is its only
// caller.
type Receiver struct {
	port io.ReadCloser
	dec  *Decoder
}

// OpenReceiver opens the USB Pro's virtual COM port and wraps it in a
// frame decoder.
//
// The baud rate is passed through to the OS but has no effect on the
// device — the USB Pro is a USB-native device behind an FTDI bridge. The
// read timeout bounds each poll cycle's blocking read.
//
// Parameters:
//   - device: Serial device path (e.g., "/dev/ttyUSB0")
//   - baudRate: Nominal baud rate (57600 conventionally)
//   - readTimeout: Per-read blocking timeout
//
// Returns:
//   - *Receiver: Open receiver ready for ReadFrame
//   - error: ErrOpenPort-wrapped failure; the caller treats this as fatal
func OpenReceiver(device string, baudRate int, readTimeout time.Duration) (*Receiver, error) {
	mode := &serial.Mode{BaudRate: baudRate}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenPort, device, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: setting read timeout: %w", ErrOpenPort, err)
	}

	return &Receiver{
		port: port,
		dec:  NewDecoder(port),
	}, nil
}

// ReadFrame reads one frame from the port. See Decoder.ReadFrame for the
// timeout and error semantics.
func (r *Receiver) ReadFrame() (*Frame, error) {
	return r.dec.ReadFrame()
}

// Close releases the serial port. Safe to call more than once.
func (r *Receiver) Close() error {
	if r.port == nil {
		return nil
	}
	err := r.port.Close()
	r.port = nil
	return err
}
