package qr

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := NewPayload(TypeTableSeat, "ev-1", "user-1", "pi_123")
	p.TableID = "tbl-1"
	p.TableName = "Mesa 1"
	p.SeatIndex = 3
	p.TableSeatID = "ts-9"

	enc, err := Encode(p)
	require.NoError(t, err)
	require.NotEmpty(t, enc)

	got, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestEncodeDecodeRoundTripGridSeat(t *testing.T) {
	p := NewPayload(TypeSeat, "ev-2", "user-2", "pi_456")
	p.SeatID = "seat-3"
	p.Row = 2
	p.Column = 5

	enc, err := Encode(p)
	require.NoError(t, err)

	got, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestOpaqueIDUniquePerIssuance(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		p := NewPayload(TypeSeat, "ev", "u", "pi")
		assert.False(t, seen[p.OpaqueID], "opaque id reused")
		seen[p.OpaqueID] = true
	}
}

func TestDecodeGarbage(t *testing.T) {
	cases := []string{
		"",
		"not base64 at all!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"type":""}`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"id":"x"}`)),
	}
	for _, in := range cases {
		_, err := Decode(in)
		assert.ErrorIs(t, err, ErrInvalidPayload, "input %q", in)
	}
}

func TestDecodeAcceptsPaddedEncoding(t *testing.T) {
	p := NewPayload(TypeSeat, "ev", "u", "pi")
	enc, err := Encode(p)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(enc)
	require.NoError(t, err)
	padded := base64.StdEncoding.EncodeToString(raw)

	got, err := Decode(padded)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
