package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, payload []byte, cbs ...Option) []byte {
	t.Helper()
	pipe := &bytes.Buffer{}
	w := New(pipe, cbs...)
	// Write may encrypt in place, hand it a copy
	buf := append([]byte(nil), payload...)
	n, err := w.Write(buf)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	r := New(pipe, cbs...)
	out := make([]byte, len(payload))
	_, err = io.ReadFull(r, out)
	require.NoError(t, err)
	return out
}

func TestConn_Plain(t *testing.T) {
	payload := []byte("heartbeat")
	assert.Equal(t, payload, roundTrip(t, payload))
}

func TestConn_Encrypted(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdef"), 300)
	out := roundTrip(t, payload, WithEncrypt([]byte("shared-secret")))
	assert.Equal(t, payload, out)
}

func TestConn_CompressedAndEncrypted(t *testing.T) {
	payload := bytes.Repeat([]byte("compress me "), 200)
	out := roundTrip(t, payload, WithEncrypt([]byte("shared-secret")), WithCompress())
	assert.Equal(t, payload, out)
}

func TestConn_SmallPayloadSkipsCompression(t *testing.T) {
	pipe := &bytes.Buffer{}
	w := New(pipe, WithCompress())
	payload := []byte("tiny")
	_, err := w.Write(payload)
	require.NoError(t, err)
	raw := pipe.Bytes()
	require.GreaterOrEqual(t, len(raw), headLength)
	assert.Zero(t, raw[1]&flagCompressed, "payloads under the threshold stay uncompressed")
}

func TestConn_KeyMismatchGarbles(t *testing.T) {
	pipe := &bytes.Buffer{}
	w := New(pipe, WithEncrypt([]byte("key-one")))
	payload := bytes.Repeat([]byte("x"), 64)
	_, err := w.Write(append([]byte(nil), payload...))
	require.NoError(t, err)

	r := New(pipe, WithEncrypt([]byte("key-two")))
	out := make([]byte, len(payload))
	_, err = io.ReadFull(r, out)
	require.NoError(t, err)
	assert.NotEqual(t, payload, out)
}

func TestConn_InvalidVersion(t *testing.T) {
	pipe := bytes.NewBuffer([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0xFF})
	r := New(pipe)
	_, err := r.Read(make([]byte, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid stream version")
}
