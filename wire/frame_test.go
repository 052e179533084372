package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundtripAllTypes(t *testing.T) {
	frames := []*Frame{
		{Type: TypeHello},
		{Type: TypeHelloOk, Payload: []byte("metadata")},
		{Type: TypeCall, RequestID: 7, Payload: []byte("fn:ping")},
		{Type: TypeResult, RequestID: 7, Payload: []byte("pong")},
		{Type: TypeError, RequestID: 7, Payload: []byte("boom")},
		{Type: TypeHeartbeat},
	}

	for _, f := range frames {
		var buf bytes.Buffer
		require.NoError(t, EncodeFrame(&buf, f))

		got, err := DecodeFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, f.Type, got.Type)
		assert.Equal(t, f.RequestID, got.RequestID)
		assert.True(t, bytes.Equal(f.Payload, got.Payload))
		assert.Equal(t, Version, got.Version)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	buf := make([]byte, HeaderLen)
	buf[0], buf[1] = 0xDE, 0xAD
	buf[2] = Version
	buf[3] = byte(TypeHeartbeat)
	_, err := DecodeFrame(bytes.NewReader(buf))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeBadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, &Frame{Type: TypeHeartbeat}))
	raw := buf.Bytes()
	raw[2] = 99
	_, err := DecodeFrame(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrBadVersion)
}

func TestDecodeBadType(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, &Frame{Type: TypeHeartbeat}))
	raw := buf.Bytes()
	raw[3] = 200
	_, err := DecodeFrame(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrBadType)
}

func TestEncodeRejectsOversizePayload(t *testing.T) {
	f := &Frame{Type: TypeCall, Payload: make([]byte, MaxPayload+1)}
	var buf bytes.Buffer
	err := EncodeFrame(&buf, f)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Zero(t, buf.Len(), "no bytes should be written on oversize payload")
}

func TestDecodeRejectsOversizeDeclaredLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, &Frame{Type: TypeCall, Payload: []byte("x")}))
	raw := buf.Bytes()
	big := uint32(MaxPayload + 1)
	raw[8] = byte(big >> 24)
	raw[9] = byte(big >> 16)
	raw[10] = byte(big >> 8)
	raw[11] = byte(big)
	_, err := DecodeFrame(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestPayloadExactlyOneMiBRoundtrips(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, MaxPayload)
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, &Frame{Type: TypeResult, Payload: payload}))

	got, err := DecodeFrame(&buf)
	require.NoError(t, err)
	assert.Len(t, got.Payload, MaxPayload)
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, err := DecodeFrame(bytes.NewReader([]byte{0xBE, 0xEF, 1}))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, &Frame{Type: TypeResult, Payload: []byte("hello")}))
	raw := buf.Bytes()[:HeaderLen+2] // header claims 5 bytes, only 2 supplied
	_, err := DecodeFrame(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeEOFOnEmptyStream(t *testing.T) {
	_, err := DecodeFrame(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}
