// Package quic provides a multiplexed session over quic-go streams. The
// listener uses a generated self-signed certificate; the dialer skips
// verification, matching the transport's role as an opaque carrier.
package quic

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"math/big"
	"os"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/uole/pulse/pkg/multiplex"
)

const alpnProto = "pulse/1"

func init() {
	os.Setenv("QUIC_GO_DISABLE_RECEIVE_BUFFER_WARNING", "true")
	os.Setenv("QUIC_GO_LOG_LEVEL", "error")
}

func defaultConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:        time.Second * 80,
		MaxIncomingStreams:    1024,
		MaxIncomingUniStreams: 1024,
	}
}

func generateTLSConfig() (*tls.Config, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().AddDate(1, 0, 0),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
		NextProtos:   []string{alpnProto},
	}, nil
}

func Listen(addr string) (multiplex.Listener, error) {
	tlsConf, err := generateTLSConfig()
	if err != nil {
		return nil, err
	}
	l, err := quic.ListenAddr(addr, tlsConf, defaultConfig())
	if err != nil {
		return nil, err
	}
	return &Listener{l: l}, nil
}

func Dial(ctx context.Context, addr string) (multiplex.Session, error) {
	conn, err := quic.DialAddrContext(ctx, addr, &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProto},
	}, defaultConfig())
	if err != nil {
		return nil, err
	}
	return &Session{conn: conn}, nil
}
