package rcon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_WireFormat(t *testing.T) {
	var buf bytes.Buffer
	err := encode(&buf, packet{id: 7, typ: typeLogin, payload: []byte("hunter2")})
	require.NoError(t, err)

	want := []byte{
		0x11, 0x00, 0x00, 0x00, // length = 4 + 4 + 7 + 2 = 17
		0x07, 0x00, 0x00, 0x00, // request id
		0x03, 0x00, 0x00, 0x00, // login type
		'h', 'u', 'n', 't', 'e', 'r', '2',
		0x00, 0x00, // terminator
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestEncode_NegativeID(t *testing.T) {
	var buf bytes.Buffer
	err := encode(&buf, packet{id: -1, typ: typeResponse})
	require.NoError(t, err)

	// -1 as a signed little-endian int32.
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, buf.Bytes()[4:8])
}

func TestRoundTrip(t *testing.T) {
	for _, payload := range []string{"", "list", "say SERVER SHUTTING DOWN IN 10 SECONDS. Saving map..."} {
		var first bytes.Buffer
		require.NoError(t, encode(&first, packet{id: 42, typ: typeCommand, payload: []byte(payload)}))

		decoded, err := decode(bytes.NewReader(first.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, int32(42), decoded.id)
		assert.Equal(t, int32(typeCommand), decoded.typ)
		assert.Equal(t, payload, string(decoded.payload))

		// Re-encoding the decoded packet reproduces the original bytes.
		var second bytes.Buffer
		require.NoError(t, encode(&second, decoded))
		assert.Equal(t, first.Bytes(), second.Bytes())
	}
}

func TestDecode_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, packet{id: 1, typ: typeResponse}))

	p, err := decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, p.payload)
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"length too short": {
			0x04, 0x00, 0x00, 0x00,
			0x01, 0x00, 0x00, 0x00,
		},
		"missing terminator": {
			0x0a, 0x00, 0x00, 0x00,
			0x01, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00,
			0x00, 0x01, // terminator must be two zero bytes
		},
		"length huge": {
			0xff, 0xff, 0xff, 0x7f,
			0x01, 0x00, 0x00, 0x00,
		},
	}

	for name, wire := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(bytes.NewReader(wire))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_TruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, packet{id: 9, typ: typeResponse, payload: []byte("partial")}))
	wire := buf.Bytes()[:buf.Len()-4] // drop the tail mid-payload

	_, err := decode(bytes.NewReader(wire))
	assert.ErrorIs(t, err, ErrMalformed)
}
