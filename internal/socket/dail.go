package socket

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lattesec/log"
)

// dial makes a single connection attempt, upgrading to TLS when configured.
func dial(cfg *ConnConfig) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", cfg.Address, cfg.HandshakeTimeout)
	if err != nil {
		return nil, errors.Join(ErrConnectionNotEstablished, fmt.Errorf("dial failed: %w", err))
	}

	if !cfg.UseTLS {
		return conn, nil
	}

	tlsConn, err := WrapTLS(conn, cfg.TLSConfig, cfg.HandshakeTimeout)
	if err != nil {
		err = errors.Join(ErrConnectionTLSUpgradeFailed, fmt.Errorf("tls wrap failed: %w", err))
		if cerr := conn.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, err
	}
	return tlsConn, nil
}

func DialWithRetry(cfg *ConnConfig) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < cfg.MaxReconnectionAttempts; i++ {
		conn, err := dial(cfg)
		if err == nil {
			return NewConnWithRaw(conn, cfg), nil
		}

		lastErr = err
		log.Debug().
			WithMeta("conn", cfg.Name).
			WithMeta("peer", cfg.Address).
			WithMetaf("attempt", "%d/%d", i+1, cfg.MaxReconnectionAttempts).
			Msgf("failed to dial: %v", err).
			Send()

		time.Sleep(cfg.ReconnectionDelay)
	}

	log.Error().
		WithMeta("conn", cfg.Name).
		WithMeta("peer", cfg.Address).
		WithMetaf("attempts", "%d", cfg.MaxReconnectionAttempts).
		Msgf("failed to dial: %v", lastErr).
		Send()
	return nil, fmt.Errorf("failed to dial %s after %d attempts: %w", cfg.Address, cfg.MaxReconnectionAttempts, errors.Join(ErrExhaustedReconnectAttempts, lastErr))
}
