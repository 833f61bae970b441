// Package packet implements the framed message codec carried on logical
// channels: a fixed binary header (version, type, sequence, length) followed
// by a JSON-encoded payload.
package packet

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"git.nspix.com/golang/kos/util/pool"
)

const (
	Ver = 0xAD

	headLength = 6
)

type Frame struct {
	Ver      uint8
	Type     uint8
	Sequence uint16
	Length   uint16
	Buf      []byte
}

func NewFrame(typ uint8, seq uint16, v any) *Frame {
	var (
		buf []byte
	)
	if v != nil {
		buf, _ = json.Marshal(v)
	}
	return &Frame{
		Ver:      Ver,
		Type:     typ,
		Sequence: seq,
		Buf:      buf,
	}
}

// Decode unmarshals the frame payload into v.
func (f *Frame) Decode(v any) error {
	return json.Unmarshal(f.Buf, v)
}

func (f *Frame) Bytes() []byte {
	n := len(f.Buf)
	f.Length = uint16(n)
	buf := make([]byte, headLength+n)
	buf[0] = f.Ver
	buf[1] = f.Type
	binary.BigEndian.PutUint16(buf[2:], f.Sequence)
	binary.BigEndian.PutUint16(buf[4:], f.Length)
	copy(buf[headLength:], f.Buf)
	return buf
}

func ReadFrame(r io.Reader) (f *Frame, err error) {
	head := pool.GetBytes(headLength)
	defer pool.PutBytes(head)
	if _, err = io.ReadFull(r, head); err != nil {
		return
	}
	if head[0] != Ver {
		return nil, fmt.Errorf("invalid frame version %0x", head[0])
	}
	f = &Frame{
		Ver:      head[0],
		Type:     head[1],
		Sequence: binary.BigEndian.Uint16(head[2:]),
		Length:   binary.BigEndian.Uint16(head[4:]),
	}
	if f.Length > 0 {
		f.Buf = make([]byte, f.Length)
		if _, err = io.ReadFull(r, f.Buf); err != nil {
			return nil, err
		}
	}
	return
}

func WriteFrame(w io.Writer, f *Frame) (err error) {
	var (
		n int
	)
	if len(f.Buf) > math.MaxUint16 {
		return io.ErrNoProgress
	}
	buf := f.Bytes()
	if n, err = w.Write(buf); err == nil {
		if n < len(buf) {
			err = io.ErrShortWrite
		}
	}
	return
}

// SendRecv writes f and reads the reply, requiring the reply to carry the
// same sequence number.
func SendRecv(rw io.ReadWriter, f *Frame) (res *Frame, err error) {
	if err = WriteFrame(rw, f); err != nil {
		return
	}
	if res, err = ReadFrame(rw); err != nil {
		return
	}
	if res.Sequence != f.Sequence {
		err = fmt.Errorf("reply sequence %d does not match %d", res.Sequence, f.Sequence)
	}
	return
}
