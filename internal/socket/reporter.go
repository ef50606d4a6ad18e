package socket

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/lattesec/luatrace/internal/metrics"
	"github.com/lattesec/luatrace/pkg/log"
)

// Hello introduces a reporter to the collector.
type Hello struct {
	Name string `json:"name"`
	PID  int    `json:"pid"`
}

// TraceReport is the payload of ActionPushTrace.
type TraceReport struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"` // "fault" or "annotation"
	Message   string    `json:"message,omitempty"`
	Trace     string    `json:"trace"`
	Truncated bool      `json:"truncated,omitempty"`
}

// MetricsReport is the payload of ActionPushMetrics.
type MetricsReport struct {
	Timestamp time.Time        `json:"timestamp"`
	Metrics   []metrics.Metric `json:"metrics"`
}

// Reporter pushes diagnostics to a collector. A failed push is retried once
// over a fresh connection.
type Reporter struct {
	conn *Conn
}

func NewReporter(cfg *ConnConfig) (*Reporter, error) {
	conn, err := DialWithRetry(cfg)
	if err != nil {
		return nil, err
	}

	r := &Reporter{conn: conn}
	if err := r.push(ActionHello, Hello{Name: cfg.Name, PID: os.Getpid()}); err != nil {
		return nil, errors.Join(err, conn.Close())
	}
	return r, nil
}

func (r *Reporter) PushTrace(tr TraceReport) error {
	if tr.Timestamp.IsZero() {
		tr.Timestamp = time.Now().UTC()
	}
	return r.push(ActionPushTrace, tr)
}

func (r *Reporter) PushMetrics(reg *metrics.Registry) error {
	return r.push(ActionPushMetrics, MetricsReport{
		Timestamp: time.Now().UTC(),
		Metrics:   reg.Snapshot(),
	})
}

func (r *Reporter) push(action Action, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", action, err)
	}

	err = r.conn.Send(action, payload)
	if err == nil || errors.Is(err, ErrPayloadTooLarge) {
		return err
	}

	log.Debugln(r.conn.Logf("push %s failed, reconnecting: %v", action, err))
	if rerr := r.conn.Reconnect(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return r.conn.Send(action, payload)
}

// Close says goodbye and hangs up.
func (r *Reporter) Close() error {
	err := r.conn.Send(ActionGoodbye, nil)
	return errors.Join(err, r.conn.Close())
}
