package enttec

import "errors"

// Domain errors for the enttec package.
var (
	// ErrEndDelimiter is returned when a frame's terminator byte is not
	// 0xE7. The frame is discarded; the next read resynchronises on the
	// start delimiter.
	ErrEndDelimiter = errors.New("enttec: bad end delimiter")

	// ErrFrameTooLarge is returned when a frame header declares a payload
	// longer than the protocol allows.
	ErrFrameTooLarge = errors.New("enttec: declared payload exceeds protocol maximum")

	// ErrOpenPort is returned when the serial device cannot be opened or
	// configured.
	ErrOpenPort = errors.New("enttec: cannot open serial port")
)
