// Package kcp provides a smux-multiplexed session over kcp-go with optional
// XOR block encryption.
package kcp

import (
	"context"
	"crypto/sha1"

	"github.com/uole/pulse/pkg/multiplex"
	kcp "github.com/xtaci/kcp-go"
	"golang.org/x/crypto/pbkdf2"
)

const (
	dataShards   = 10
	parityShards = 3
)

var keySalt = []byte{0x9C, 0x31, 0x4E, 0x08}

type (
	Options struct {
		Key []byte
	}

	Option func(opts *Options)
)

func WithKey(key []byte) Option {
	return func(opts *Options) {
		opts.Key = key
	}
}

func (opts *Options) block() (kcp.BlockCrypt, error) {
	if len(opts.Key) == 0 {
		return nil, nil
	}
	return kcp.NewSimpleXORBlockCrypt(pbkdf2.Key(opts.Key, keySalt, 4, 32, sha1.New))
}

func Listen(addr string, cbs ...Option) (multiplex.Listener, error) {
	opts := &Options{}
	for _, cb := range cbs {
		cb(opts)
	}
	block, err := opts.block()
	if err != nil {
		return nil, err
	}
	l, err := kcp.ListenWithOptions(addr, block, dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	return &Listener{l: l}, nil
}

func Dial(ctx context.Context, addr string, cbs ...Option) (multiplex.Session, error) {
	opts := &Options{}
	for _, cb := range cbs {
		cb(opts)
	}
	block, err := opts.block()
	if err != nil {
		return nil, err
	}
	conn, err := kcp.DialWithOptions(addr, block, dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	return newSession(conn, false)
}
