package socket

import (
	"crypto/tls"
	"errors"
	"time"

	"github.com/lattesec/luatrace/pkg/log"
)

var ErrAddressRequired = errors.New("address is required")

type ConnConfig struct {
	Address string // The address to connect to
	Name    string // The name of the connection. This only really holds significance in logs.

	UseTLS    bool
	TLSConfig *tls.Config

	MaxReconnectionAttempts int
	ReconnectionDelay       time.Duration // The amount of time to wait between connection attempts

	HandshakeTimeout   time.Duration // Dial plus TLS handshake
	MessageSendTimeout time.Duration // The maximum amount of time to wait for a message to be sent

	MaxMessageSize uint64

	Handlers map[Action]HandlerFunc // The handlers to use for each action, only used by Listen
}

func (c *ConnConfig) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}
	if c.UseTLS && c.TLSConfig == nil {
		return ErrTLSMissingConfig
	}
	return nil
}

var DefaultConnHandlers = map[Action]HandlerFunc{
	ActionPing: func(c *Conn, header Header, payload []byte) {
		if err := c.Send(ActionPong, nil); err != nil {
			log.Errorln(c.Logf("failed to send pong: %v", err))
		}
	},
	ActionPong: func(c *Conn, header Header, payload []byte) {},
}

func DefaultConnConfig(address, name string, tlsCfg *tls.Config) *ConnConfig {
	handlers := make(map[Action]HandlerFunc, len(DefaultConnHandlers))
	for k, v := range DefaultConnHandlers {
		handlers[k] = v
	}

	return &ConnConfig{
		Address: address,
		Name:    name,

		UseTLS:    tlsCfg != nil,
		TLSConfig: tlsCfg,

		MaxReconnectionAttempts: 3,
		ReconnectionDelay:       500 * time.Millisecond,

		HandshakeTimeout:   5 * time.Second,
		MessageSendTimeout: 2 * time.Second,

		MaxMessageSize: 1 << 20, // 1MB

		Handlers: handlers,
	}
}
