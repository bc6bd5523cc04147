package enttec

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// timeoutReader serves its data, then behaves like a serial port whose read
// timeout keeps elapsing: Read returns (0, nil) forever.
type timeoutReader struct {
	data []byte
	pos  int
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, nil
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// oneByteReader yields a single byte per Read call to exercise partial
// reads inside the decoder.
type oneByteReader struct {
	data []byte
	pos  int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func TestReadFrame_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		label   byte
		payload []byte
	}{
		{
			name:    "empty payload",
			label:   10,
			payload: []byte{},
		},
		{
			name:    "dmx received, one channel",
			label:   LabelDMXReceived,
			payload: []byte{0x00, 0x00, 0x01},
		},
		{
			name:    "payload containing the delimiters",
			label:   5,
			payload: []byte{0x7E, 0xE7, 0x7E, 0xE7},
		},
		{
			name:  "full universe",
			label: LabelDMXReceived,
			payload: func() []byte {
				// status + start code + 512 channels
				p := make([]byte, 514)
				for i := 2; i < len(p); i++ {
					p[i] = byte(i % 256)
				}
				return p
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := Frame{Label: tt.label, Payload: tt.payload}.Encode()
			dec := NewDecoder(bytes.NewReader(wire))

			got, err := dec.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame() unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("ReadFrame() = nil, want frame")
			}
			if got.Label != tt.label {
				t.Errorf("Label = %d, want %d", got.Label, tt.label)
			}
			if !bytes.Equal(got.Payload, tt.payload) {
				t.Errorf("Payload = %X, want %X", got.Payload, tt.payload)
			}
		})
	}
}

func TestReadFrame_SkipsNoiseBeforeDelimiter(t *testing.T) {
	wire := append([]byte{0x00, 0xFF, 0x42}, Frame{Label: 5, Payload: []byte{0, 0, 9}}.Encode()...)
	dec := NewDecoder(bytes.NewReader(wire))

	got, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() unexpected error: %v", err)
	}
	if got == nil || got.Label != 5 {
		t.Fatalf("ReadFrame() = %v, want label-5 frame", got)
	}
}

func TestReadFrame_Truncation(t *testing.T) {
	full := Frame{Label: 5, Payload: []byte{0, 0, 1, 2, 3}}.Encode()

	tests := []struct {
		name string
		wire []byte
	}{
		{"no delimiter at all", []byte{0x01, 0x02, 0x03}},
		{"delimiter only", full[:1]},
		{"partial header", full[:3]},
		{"partial payload", full[:6]},
		{"missing end delimiter", full[:len(full)-1]},
		{"empty stream", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Both EOF-style and timeout-style stream ends must yield
			// (nil, nil).
			for _, r := range []io.Reader{bytes.NewReader(tt.wire), &timeoutReader{data: tt.wire}} {
				got, err := NewDecoder(r).ReadFrame()
				if err != nil {
					t.Errorf("ReadFrame() unexpected error: %v", err)
				}
				if got != nil {
					t.Errorf("ReadFrame() = %v, want nil", got)
				}
			}
		})
	}
}

func TestReadFrame_BadEndDelimiter(t *testing.T) {
	bad := Frame{Label: 5, Payload: []byte{0, 0, 1}}.Encode()
	bad[len(bad)-1] = 0x00
	good := Frame{Label: 5, Payload: []byte{0, 0, 7}}.Encode()
	dec := NewDecoder(bytes.NewReader(append(bad, good...)))

	got, err := dec.ReadFrame()
	if !errors.Is(err, ErrEndDelimiter) {
		t.Fatalf("ReadFrame() error = %v, want ErrEndDelimiter", err)
	}
	if got != nil {
		t.Fatalf("ReadFrame() = %v, want nil on malformed frame", got)
	}

	// The malformed frame is consumed; the decoder resynchronises on the
	// next start delimiter.
	got, err = dec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after bad frame: unexpected error: %v", err)
	}
	if got == nil || !bytes.Equal(got.Payload, []byte{0, 0, 7}) {
		t.Fatalf("ReadFrame() after bad frame = %v, want payload 00 00 07", got)
	}
}

func TestReadFrame_OversizedLength(t *testing.T) {
	wire := []byte{StartDelimiter, 5, 0xFF, 0xFF} // declares 65535-byte payload
	dec := NewDecoder(bytes.NewReader(wire))

	got, err := dec.ReadFrame()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("ReadFrame() error = %v, want ErrFrameTooLarge", err)
	}
	if got != nil {
		t.Fatalf("ReadFrame() = %v, want nil", got)
	}
}

func TestReadFrame_FragmentedReads(t *testing.T) {
	wire := Frame{Label: 5, Payload: []byte{0, 0, 42, 17}}.Encode()
	dec := NewDecoder(&oneByteReader{data: wire})

	got, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() unexpected error: %v", err)
	}
	if got == nil || !bytes.Equal(got.Payload, []byte{0, 0, 42, 17}) {
		t.Fatalf("ReadFrame() = %v, want payload 00 00 2A 11", got)
	}
}

func TestReadFrame_MultipleFramesInStream(t *testing.T) {
	var wire []byte
	for i := byte(0); i < 3; i++ {
		wire = append(wire, Frame{Label: LabelDMXReceived, Payload: []byte{0, 0, i}}.Encode()...)
	}
	dec := NewDecoder(bytes.NewReader(wire))

	for i := byte(0); i < 3; i++ {
		got, err := dec.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if got == nil || got.Payload[2] != i {
			t.Fatalf("frame %d = %v, want channel value %d", i, got, i)
		}
	}

	// Stream exhausted: no frame, no error.
	got, err := dec.ReadFrame()
	if err != nil || got != nil {
		t.Fatalf("after stream end: got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestEncode_Wire(t *testing.T) {
	got := Frame{Label: 6, Payload: []byte{0x00, 0x01, 0x02}}.Encode()
	want := []byte{0x7E, 0x06, 0x03, 0x00, 0x00, 0x01, 0x02, 0xE7}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = %X, want %X", got, want)
	}
}
