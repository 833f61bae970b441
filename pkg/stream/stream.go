// Package stream wraps a connection in a light framing layer with optional
// snappy compression and XOR encryption. Each record carries a version byte,
// a flag byte and a 32-bit payload length.
package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"git.nspix.com/golang/kos/util/pool"
	"github.com/golang/snappy"
	"github.com/uole/pulse/internal/crypto"
)

const (
	Ver = 0xC7

	headLength        = 6
	minCompressLength = 512

	flagEncrypted  = 0x40
	flagCompressed = 0x80
)

type (
	Options struct {
		Compress bool
		Cipher   *crypto.XOR
	}

	Option func(opts *Options)

	Conn struct {
		opts      *Options
		rw        io.ReadWriter
		buf       *bytes.Buffer
		closeFlag int32
	}
)

func WithCompress() Option {
	return func(opts *Options) {
		opts.Compress = true
	}
}

func WithEncrypt(key []byte) Option {
	return func(opts *Options) {
		if len(key) > 0 {
			opts.Cipher = crypto.New(key)
		}
	}
}

func New(rw io.ReadWriter, cbs ...Option) *Conn {
	opts := &Options{}
	for _, cb := range cbs {
		cb(opts)
	}
	return &Conn{
		rw:   rw,
		opts: opts,
		buf:  pool.GetBuffer(),
	}
}

func (conn *Conn) fill() (err error) {
	var (
		n   int
		p   []byte
		dst []byte
	)
	head := pool.GetBytes(headLength)
	defer pool.PutBytes(head)
	if _, err = io.ReadFull(conn.rw, head); err != nil {
		return
	}
	if head[0] != Ver {
		return fmt.Errorf("invalid stream version 0x%02X", head[0])
	}
	flag := head[1]
	src := pool.GetBytes(int(binary.BigEndian.Uint32(head[2:])))
	defer pool.PutBytes(src)
	if _, err = io.ReadFull(conn.rw, src); err != nil {
		return
	}
	if flag&flagEncrypted != 0 {
		if conn.opts.Cipher == nil {
			return errors.New("received encrypted record without a key")
		}
		conn.opts.Cipher.Apply(src)
	}
	if flag&flagCompressed != 0 {
		if n, err = snappy.DecodedLen(src); err != nil {
			return
		}
		dst = pool.GetBytes(n)
		defer pool.PutBytes(dst)
		if p, err = snappy.Decode(dst, src); err != nil {
			return
		}
	} else {
		p = src
	}
	_, err = conn.buf.Write(p)
	return
}

func (conn *Conn) Read(b []byte) (n int, err error) {
	if conn.buf.Len() == 0 {
		if err = conn.fill(); err != nil {
			return
		}
	}
	if n, err = conn.buf.Read(b); err != nil {
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	return
}

func (conn *Conn) Write(b []byte) (n int, err error) {
	var (
		flag uint8
		p    []byte
	)
	length := len(b)
	if length <= 0 {
		return
	}
	if conn.opts.Compress && length > minCompressLength {
		flag |= flagCompressed
		buf := pool.GetBytes(snappy.MaxEncodedLen(length))
		defer pool.PutBytes(buf)
		p = snappy.Encode(buf, b)
	} else {
		p = b
	}
	if conn.opts.Cipher != nil {
		flag |= flagEncrypted
		conn.opts.Cipher.Apply(p)
	}
	// low bits carry noise so identical payloads do not frame identically
	flag |= uint8(rand.Int31n(63))
	w := pool.GetBuffer()
	defer pool.PutBuffer(w)
	w.WriteByte(Ver)
	w.WriteByte(flag)
	if err = binary.Write(w, binary.BigEndian, uint32(len(p))); err != nil {
		return
	}
	if _, err = w.Write(p); err != nil {
		return
	}
	var nw int64
	if nw, err = w.WriteTo(conn.rw); err == nil {
		if nw != int64(len(p)+headLength) {
			err = io.ErrShortWrite
		}
		n = length
	}
	return
}

func (conn *Conn) Close() (err error) {
	if !atomic.CompareAndSwapInt32(&conn.closeFlag, 0, 1) {
		return
	}
	if c, ok := conn.rw.(io.Closer); ok {
		err = c.Close()
	}
	if conn.buf != nil {
		pool.PutBuffer(conn.buf)
	}
	return
}

func (conn *Conn) LocalAddr() net.Addr {
	if c, ok := conn.rw.(net.Conn); ok {
		return c.LocalAddr()
	}
	return nil
}

func (conn *Conn) RemoteAddr() net.Addr {
	if c, ok := conn.rw.(net.Conn); ok {
		return c.RemoteAddr()
	}
	return nil
}

func (conn *Conn) SetDeadline(t time.Time) error {
	if c, ok := conn.rw.(net.Conn); ok {
		return c.SetDeadline(t)
	}
	return nil
}

func (conn *Conn) SetReadDeadline(t time.Time) error {
	if c, ok := conn.rw.(net.Conn); ok {
		return c.SetReadDeadline(t)
	}
	return nil
}

func (conn *Conn) SetWriteDeadline(t time.Time) error {
	if c, ok := conn.rw.(net.Conn); ok {
		return c.SetWriteDeadline(t)
	}
	return nil
}
