package packet

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFrame(buf, NewFrame(TypePing, 7, &PingRequest{Timestamp: 1700000000})))

	f, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.EqualValues(t, Ver, f.Ver)
	assert.EqualValues(t, TypePing, f.Type)
	assert.EqualValues(t, 7, f.Sequence)

	req := &PingRequest{}
	require.NoError(t, f.Decode(req))
	assert.EqualValues(t, 1700000000, req.Timestamp)
}

func TestFrame_EmptyPayload(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFrame(buf, NewFrame(TypePong, 1, nil)))
	f, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 0, f.Length)
	assert.Empty(t, f.Buf)
}

func TestReadFrame_InvalidVersion(t *testing.T) {
	raw := NewFrame(TypePing, 3, nil).Bytes()
	raw[0] = 0x00
	_, err := ReadFrame(bytes.NewReader(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid frame version")
}

func TestReadFrame_TruncatedPayload(t *testing.T) {
	raw := NewFrame(TypeChannelOpen, 9, &ChannelOpenRequest{Name: "pulse", Encoding: "json"}).Bytes()
	_, err := ReadFrame(bytes.NewReader(raw[:len(raw)-4]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type scriptedRW struct {
	io.Writer
	io.Reader
}

func TestSendRecv_SequenceMismatch(t *testing.T) {
	reply := &bytes.Buffer{}
	require.NoError(t, WriteFrame(reply, NewFrame(TypePong, 9, nil)))
	rw := &scriptedRW{Writer: io.Discard, Reader: reply}

	_, err := SendRecv(rw, NewFrame(TypePing, 8, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestSendRecv_Matched(t *testing.T) {
	reply := &bytes.Buffer{}
	require.NoError(t, WriteFrame(reply, NewFrame(TypeChannelAccept, 4, &ChannelOpenResponse{Name: "pulse", Success: true})))
	rw := &scriptedRW{Writer: io.Discard, Reader: reply}

	res, err := SendRecv(rw, NewFrame(TypeChannelOpen, 4, &ChannelOpenRequest{Name: "pulse"}))
	require.NoError(t, err)
	assert.EqualValues(t, TypeChannelAccept, res.Type)
}
