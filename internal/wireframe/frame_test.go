package wireframe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Signature string
	Nonce     uint64
	Logs      []string
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := samplePayload{Signature: "0xabc", Nonce: 7, Logs: []string{"a", "b"}}

	require.NoError(t, WriteFrame(&buf, want))

	var got samplePayload
	require.NoError(t, ReadFrame(&buf, &got))
	require.Equal(t, want, got)
}

func TestReadFrameRejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, samplePayload{Signature: "x"}))

	raw := buf.Bytes()
	raw[0] = Version + 1

	var got samplePayload
	err := ReadFrame(bytes.NewReader(raw), &got)
	require.Error(t, err)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	header := []byte{Version, 0xff, 0xff, 0xff, 0xff}
	var got samplePayload
	err := ReadFrame(bytes.NewReader(header), &got)
	require.Error(t, err)
}

func TestMultipleFramesSequentially(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, samplePayload{Signature: "one"}))
	require.NoError(t, WriteFrame(&buf, samplePayload{Signature: "two"}))

	var first, second samplePayload
	require.NoError(t, ReadFrame(&buf, &first))
	require.NoError(t, ReadFrame(&buf, &second))
	require.Equal(t, "one", first.Signature)
	require.Equal(t, "two", second.Signature)
}
