package socket

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/lattesec/luatrace/pkg/log"
)

type ConnState uint8

const (
	ConnStateIdle ConnState = iota
	ConnStateUnknown
	ConnStateOpen
	ConnStateClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnStateIdle:
		return "idle"
	case ConnStateOpen:
		return "open"
	case ConnStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrConnectionClosed           = errors.New("connection closed")
	ErrConnectionNotEstablished   = errors.New("connection not established")
	ErrConnectionTLSUpgradeFailed = errors.New("tls upgrade failed")
	ErrExhaustedReconnectAttempts = errors.New("exhausted reconnect attempts")
)

type HandlerFunc func(c *Conn, header Header, payload []byte)

type Conn struct {
	Config *ConnConfig

	raw   net.Conn
	state ConnState

	muConn sync.RWMutex
	muSend sync.Mutex
}

func NewConn(cfg *ConnConfig) *Conn {
	return NewConnWithRaw(nil, cfg)
}

// NewConnWithRaw wraps an established connection, typically the accepted
// side of a listener.
func NewConnWithRaw(raw net.Conn, cfg *ConnConfig) *Conn {
	state := ConnStateIdle
	if raw != nil {
		state = ConnStateOpen
	}
	return &Conn{
		Config: cfg,
		raw:    raw,
		state:  state,
	}
}

func (c *Conn) String() string {
	c.muConn.RLock()
	defer c.muConn.RUnlock()
	return c.unsafeString()
}

func (c *Conn) unsafeString() string {
	return fmt.Sprintf("{con: %s -> %s, state: %s, tls: %v}",
		c.Config.Name, c.Config.Address, c.state.String(), c.Config.UseTLS,
	)
}

func (c *Conn) unsafeLogf(format string, v ...any) string {
	return fmt.Sprintf("%s %s", c.unsafeString(), fmt.Sprintf(format, v...))
}

func (c *Conn) Logf(format string, v ...any) string {
	c.muConn.RLock()
	defer c.muConn.RUnlock()
	return c.unsafeLogf(format, v...)
}

func (c *Conn) IsOpen() bool {
	c.muConn.RLock()
	defer c.muConn.RUnlock()
	return c.state == ConnStateOpen
}

// Send writes one frame. Concurrent sends never interleave.
func (c *Conn) Send(action Action, payload []byte) error {
	if uint64(len(payload)) > c.Config.MaxMessageSize {
		return ErrPayloadTooLarge
	}

	c.muSend.Lock()
	defer c.muSend.Unlock()

	c.muConn.RLock()
	raw, state := c.raw, c.state
	c.muConn.RUnlock()

	if state != ConnStateOpen {
		return ErrConnectionNotEstablished
	}

	if c.Config.MessageSendTimeout > 0 {
		_ = raw.SetWriteDeadline(time.Now().Add(c.Config.MessageSendTimeout))
		defer raw.SetWriteDeadline(time.Time{})
	}
	if _, err := raw.Write(EncodeFrame(action, payload)); err != nil {
		return fmt.Errorf("send %s: %w", action, err)
	}
	return nil
}

func (c *Conn) Register(action Action, fn HandlerFunc) {
	c.muConn.Lock()
	defer c.muConn.Unlock()
	if c.Config.Handlers == nil {
		c.Config.Handlers = make(map[Action]HandlerFunc)
	}
	c.Config.Handlers[action] = fn
}

func (c *Conn) Connect() error {
	c.muConn.Lock()
	defer c.muConn.Unlock()

	c.muSend.Lock()
	defer c.muSend.Unlock()

	return c.connect()
}

// Internal connection handler
//
// Ensure that the caller holds both locks
func (c *Conn) connect() error {
	if c.state == ConnStateOpen {
		return nil
	}

	log.Debugln(c.unsafeLogf("connecting"))

	conn, err := dial(c.Config)
	if err != nil {
		log.Debugln(c.unsafeLogf("connect failed: %v", err))
		return err
	}

	log.Debugln(c.unsafeLogf("connected"))

	c.raw = conn
	c.state = ConnStateOpen
	return nil
}

// Reconnect drops the current connection and dials again, up to
// MaxReconnectionAttempts times.
func (c *Conn) Reconnect() error {
	c.muConn.Lock()
	if c.state == ConnStateClosed {
		c.muConn.Unlock()
		return ErrConnectionClosed
	}
	if c.raw != nil {
		_ = c.raw.Close()
		c.raw = nil
	}
	c.state = ConnStateUnknown
	c.muConn.Unlock()

	allErrs := []error{ErrExhaustedReconnectAttempts}
	for i := 0; i < c.Config.MaxReconnectionAttempts; i++ {
		err := c.Connect()
		if err == nil {
			return nil
		}
		allErrs = append(allErrs, err)

		log.Debugln(c.Logf("reconnect [%d of %d] failed", i+1, c.Config.MaxReconnectionAttempts))
		time.Sleep(c.Config.ReconnectionDelay)
	}

	return errors.Join(allErrs...)
}

func (c *Conn) Close() error {
	c.muConn.Lock()
	defer c.muConn.Unlock()

	if c.state == ConnStateClosed {
		return nil
	}

	log.Debugln(c.unsafeLogf("closing connection"))

	var err error
	if c.raw != nil {
		err = c.raw.Close()
	}
	if err != nil {
		c.state = ConnStateUnknown
		log.Errorln(c.unsafeLogf("failed to close connection: %v", err))
		return err
	}

	c.raw = nil
	c.state = ConnStateClosed
	return nil
}

// Listen reads frames until the peer hangs up, dispatching each to its
// handler in order. Frames with no handler are dropped.
func (c *Conn) Listen() error {
	c.muConn.RLock()
	raw, state := c.raw, c.state
	c.muConn.RUnlock()

	if state != ConnStateOpen {
		return ErrConnectionNotEstablished
	}

	log.Debugln(c.Logf("starting read loop"))

	for {
		header, payload, err := ReadFrame(raw, c.Config.MaxMessageSize)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Infoln(c.Logf("connection closed"))
				return c.Close()
			}
			if errors.Is(err, ErrPayloadTooLarge) {
				log.Errorln(c.Logf("payload too large, killing connection: %d > %d", header.Len, c.Config.MaxMessageSize))
				return errors.Join(err, c.Close())
			}

			log.Errorln(c.Logf("failed to read frame: %v", err))
			return errors.Join(err, c.Close())
		}

		c.muConn.RLock()
		handler, ok := c.Config.Handlers[header.Action]
		c.muConn.RUnlock()
		if !ok {
			log.Warnln(c.Logf("no handler for action %s", header.Action))
			continue
		}

		handler(c, header, payload)
	}
}
