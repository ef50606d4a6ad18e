package socket

import (
	"crypto/tls"
	"errors"
	"net"
	"time"
)

var ErrTLSMissingConfig = errors.New("tls config is required")

// Wraps a net.Conn in a TLS client connection and completes the handshake
// within timeout. A zero timeout waits forever.
func WrapTLS(conn net.Conn, cfg *tls.Config, timeout time.Duration) (net.Conn, error) {
	if cfg == nil {
		return nil, ErrTLSMissingConfig
	}

	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
		defer conn.SetDeadline(time.Time{})
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.Handshake(); err != nil {
		return nil, err
	}

	return tlsConn, nil
}
