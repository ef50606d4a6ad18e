package socket

// The header byte denoting the type of the message
type Action uint8

const (
	ActionInvalid Action = iota
	ActionAck            // Generic ACK
	ActionError          // Error message

	// Control & lifecycle
	ActionPing    // Keepalive & healthcheck
	ActionPong    // Response to ping
	ActionHello   // Initial handshake (reporter info)
	ActionGoodbye // Disconnect notification

	// Diagnostics
	ActionPushTrace   // Lua stack trace captured on a fault or annotation
	ActionPushMetrics // Snapshot of the metric registry
)

func (a Action) String() string {
	switch a {
	case ActionAck:
		return "ack"
	case ActionError:
		return "error"
	case ActionPing:
		return "ping"
	case ActionPong:
		return "pong"
	case ActionHello:
		return "hello"
	case ActionGoodbye:
		return "goodbye"
	case ActionPushTrace:
		return "push_trace"
	case ActionPushMetrics:
		return "push_metrics"
	default:
		return "invalid"
	}
}
