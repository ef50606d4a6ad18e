package socket

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func generateTestingCertificate(t *testing.T) tls.Certificate {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err, "failed to generate ed25519 key")

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		NotBefore:             time.Now().UTC().Add(-time.Hour),
		NotAfter:              time.Now().UTC().Add(time.Hour * 24),
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, pub, priv)
	require.NoError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

func startMockServer(t *testing.T, useTLS bool, handler func(net.Conn)) (addr string, stop func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to start mock server")

	if useTLS {
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{generateTestingCertificate(t)},
		})
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go handler(conn)
		}
	}()

	return ln.Addr().String(), func() { _ = ln.Close() }
}

type frame struct {
	Action  Action
	Payload []byte
}

// startCollector accepts reporters and forwards every frame it receives.
func startCollector(t *testing.T, useTLS bool) (addr string, frames <-chan frame, stop func()) {
	ch := make(chan frame, 32)
	forward := func(c *Conn, h Header, payload []byte) {
		ch <- frame{Action: h.Action, Payload: payload}
	}

	addr, stop = startMockServer(t, useTLS, func(raw net.Conn) {
		cfg := DefaultConnConfig(raw.RemoteAddr().String(), "mock-collector", nil)
		server := NewConnWithRaw(raw, cfg)
		for _, a := range []Action{ActionHello, ActionPushTrace, ActionPushMetrics, ActionGoodbye} {
			server.Register(a, forward)
		}
		_ = server.Listen()
	})
	return addr, ch, stop
}

func nextFrame(t *testing.T, frames <-chan frame) frame {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("collector received nothing")
		return frame{}
	}
}

func testConnConfig(addr string, tlsCfg *tls.Config) *ConnConfig {
	cfg := DefaultConnConfig(addr, "test-reporter", tlsCfg)
	cfg.ReconnectionDelay = 10 * time.Millisecond
	return cfg
}
