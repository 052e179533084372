package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundtripAllKinds(t *testing.T) {
	cases := []Message{
		Hello{},
		Heartbeat{},
		HelloOk{Name: "echo", Functions: []string{"ping", "pong"}},
		Call{RequestID: 3, FnName: "ping", Args: []string{"a", "b"}},
		Result{RequestID: 3, Ok: true, Output: "pong"},
		Error{RequestID: 3, Code: 1, Message: "boom"},
	}

	for _, m := range cases {
		f, err := Encode(m)
		require.NoError(t, err)

		got, err := Decode(f)
		require.NoError(t, err)
		assert.Equal(t, m, got, "roundtrip mismatch for %T", m)
	}
}

func TestHelloOkIgnoresRequestID(t *testing.T) {
	f, err := Encode(HelloOk{Name: "x"})
	require.NoError(t, err)
	assert.Zero(t, f.RequestID)
}

func TestResultAndErrorEchoRequestID(t *testing.T) {
	res, err := Encode(Result{RequestID: 42, Ok: true, Output: "x"})
	require.NoError(t, err)
	assert.Equal(t, uint32(42), res.RequestID)

	errF, err := Encode(Error{RequestID: 42, Code: 2, Message: "y"})
	require.NoError(t, err)
	assert.Equal(t, uint32(42), errF.RequestID)
}

func TestDecodeLogIsUnsupported(t *testing.T) {
	_, err := Decode(&Frame{Type: TypeLog})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCallWireFormEmptyArgs(t *testing.T) {
	assert.Equal(t, "fn:ping", CallWireForm("ping", nil))
}

func TestCallWireFormWithArgs(t *testing.T) {
	assert.Equal(t, "fn:scan a b c", CallWireForm("scan", []string{"a", "b", "c"}))
}

func TestCallPayloadSizeMatchesEncodedFrame(t *testing.T) {
	size, err := CallPayloadSize("scan", []string{"a", "b", "c"})
	require.NoError(t, err)

	f, err := Encode(Call{RequestID: 9, FnName: "scan", Args: []string{"a", "b", "c"}})
	require.NoError(t, err)

	assert.Equal(t, len(f.Payload), size)
}

func TestCallPayloadSizeDetectsOversizeCall(t *testing.T) {
	huge := []string{string(make([]byte, MaxPayload+1))}
	size, err := CallPayloadSize("scan", huge)
	require.NoError(t, err)
	assert.Greater(t, size, MaxPayload)
}

func TestNonUTF8OutputSurvivesCBOR(t *testing.T) {
	raw := string([]byte{0xff, 0xfe, 0x00, 0x80})
	f, err := Encode(Result{RequestID: 1, Ok: true, Output: raw})
	require.NoError(t, err)

	got, err := Decode(f)
	require.NoError(t, err)

	r, ok := got.(Result)
	require.True(t, ok, "decoded type should be Result, got %T", got)
	assert.Equal(t, raw, r.Output)
}
