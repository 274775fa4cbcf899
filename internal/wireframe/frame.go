// Package wireframe implements the length-prefixed binary framing shared
// by the service/maintenance sockets (spec.md §6) and the executor
// subprocess IPC (spec.md §4.4): one byte of protocol version, a 4-byte
// big-endian payload length, then a gob-encoded payload. This replaces the
// original implementation's use of Python pickle (spec.md §9 design note)
// with a typed, versioned wire format.
package wireframe

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
)

// Version is the only framing version this build speaks. A peer sending
// any other version byte is rejected outright — there is no negotiation.
const Version byte = 1

// MaxPayloadSize bounds the length prefix to guard against a corrupt or
// hostile peer claiming an unbounded frame.
const MaxPayloadSize = 64 << 20 // 64 MiB

// WriteFrame gob-encodes v and writes it to w as one frame.
func WriteFrame(w io.Writer, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("wireframe: encode payload: %w", err)
	}
	if buf.Len() > MaxPayloadSize {
		return fmt.Errorf("wireframe: payload of %d bytes exceeds max %d", buf.Len(), MaxPayloadSize)
	}

	header := make([]byte, 5)
	header[0] = Version
	binary.BigEndian.PutUint32(header[1:], uint32(buf.Len()))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("wireframe: write header: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("wireframe: write payload: %w", err)
	}
	return nil
}

// ReadFrame reads one frame from r and gob-decodes it into v, which must
// be a pointer.
func ReadFrame(r io.Reader, v any) error {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("wireframe: read header: %w", err)
	}
	if header[0] != Version {
		return fmt.Errorf("wireframe: unsupported frame version %d", header[0])
	}
	length := binary.BigEndian.Uint32(header[1:])
	if length > MaxPayloadSize {
		return fmt.Errorf("wireframe: declared payload of %d bytes exceeds max %d", length, MaxPayloadSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("wireframe: read payload: %w", err)
	}

	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("wireframe: decode payload: %w", err)
	}
	return nil
}
