// Package crypto holds the XOR stream cipher used to obfuscate transport
// payloads. It is obfuscation, not authentication; the transport remains an
// opaque carrier.
package crypto

import (
	"crypto/sha1"

	"github.com/templexxx/xorsimd"
	"golang.org/x/crypto/pbkdf2"
)

const BlockSize = 1024

var keySalt = []byte{0xFB, 0xFA, 0xFF}

type XOR struct {
	key []byte
}

// New derives a BlockSize key from the shared secret.
func New(secret []byte) *XOR {
	return &XOR{
		key: pbkdf2.Key(secret, keySalt, 4, BlockSize, sha1.New),
	}
}

// Apply XORs buf with the key in place, block by block. Applying twice
// restores the input.
func (x *XOR) Apply(buf []byte) {
	for offset := 0; offset < len(buf); offset += BlockSize {
		limit := offset + BlockSize
		if limit > len(buf) {
			limit = len(buf)
		}
		xorsimd.Bytes(buf[offset:limit], buf[offset:limit], x.key)
	}
}

func (x *XOR) Encrypt(src []byte) (dst []byte, err error) {
	x.Apply(src)
	return src, nil
}

func (x *XOR) Decrypt(src []byte) (dst []byte, err error) {
	x.Apply(src)
	return src, nil
}
