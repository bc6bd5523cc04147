// Package enttec implements the Enttec DMX USB Pro serial message protocol
// and DMX channel extraction.
//
// The USB Pro wraps every message in a fixed framing (API v1.44):
//
//	0x7E | label (1 byte) | length LSB | length MSB | payload | 0xE7
//
// Label 5 ("Received DMX Packet") carries a status byte, the DMX start
// code, and up to 512 channel values. The decoder is stream-oriented: it
// resynchronises on the start delimiter, so garbage between frames and
// malformed frames only cost the frame they corrupt.
//
// There is no checksum in this protocol variant; integrity comes from the
// delimiters and the declared length.
package enttec
