package metrics

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/lattesec/log"
)

// MaxDynamic bounds the number of metrics created at runtime.
const MaxDynamic = 128

const handlerMetricName = "event_handler_time_ns"

// Metric is a summary of reported values.
type Metric struct {
	Name string `json:"name"`
	Tags string `json:"tags,omitempty"` // e.g. {handler="ngx_http_handler"}, empty for untagged metrics

	Count int64 `json:"count"`
	Sum   int64 `json:"sum"`
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
}

func (m *Metric) report(v int64) {
	prev := m.Count
	m.Count++
	m.Sum += v

	if prev == 0 {
		m.Min, m.Max = v, v
		return
	}
	if v < m.Min {
		m.Min = v
	}
	if v > m.Max {
		m.Max = v
	}
}

// Registry holds the builtin metrics followed by at most MaxDynamic dynamic
// ones. Indexes are stable: dynamic metrics are never removed.
type Registry struct {
	mu sync.Mutex

	// Summary metric for all event handlers. Per handler timings go to
	// event_handler_time_ns tagged with the handler name.
	AnyEventHandlerTime *Metric
	OpenAndStatFileTime *Metric
	EventLoopLatency    *Metric

	builtin  []*Metric
	dynamic  [MaxDynamic]Metric
	ndynamic int
	byKey    map[string]*Metric
	full     bool

	symbols *SymbolTable
}

func NewRegistry() *Registry {
	r := &Registry{
		AnyEventHandlerTime: &Metric{Name: "any_event_handler_time_ns"},
		OpenAndStatFileTime: &Metric{Name: "open_and_stat_file_time_ns"},
		EventLoopLatency:    &Metric{Name: "event_loop_latency_ns"},
		byKey:               make(map[string]*Metric),
	}
	r.builtin = []*Metric{r.AnyEventHandlerTime, r.OpenAndStatFileTime, r.EventLoopLatency}
	return r
}

// Report records v for m. m must belong to r.
func (r *Registry) Report(m *Metric, v int64) {
	if m == nil {
		return
	}
	r.mu.Lock()
	m.report(v)
	r.mu.Unlock()
}

// Tagged returns the dynamic metric name+tags, creating it on first use.
// It returns nil once MaxDynamic metrics exist.
func (r *Registry) Tagged(name, tags string) *Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tagged(name, tags)
}

func (r *Registry) tagged(name, tags string) *Metric {
	key := name + tags
	if m, ok := r.byKey[key]; ok {
		return m
	}
	if r.ndynamic == MaxDynamic {
		if !r.full {
			r.full = true
			log.Warn().
				WithMeta("scope", "metrics").
				WithMetaf("max", "%d", MaxDynamic).
				Msgf("dynamic metrics exhausted, dropping %s%s", name, tags).Send()
		}
		return nil
	}

	m := &r.dynamic[r.ndynamic]
	r.ndynamic++
	*m = Metric{Name: name, Tags: tags}
	r.byKey[key] = m
	return m
}

// SetSymbols installs the table used by ReportHandlerTime.
func (r *Registry) SetSymbols(t *SymbolTable) {
	r.mu.Lock()
	r.symbols = t
	r.mu.Unlock()
}

// ReportHandlerTime records an event handler timing. addr is the handler
// address relative to the executable's base address; when it resolves to a
// known symbol the timing is also reported under that handler's metric.
func (r *Registry) ReportHandlerTime(addr uintptr, v int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.AnyEventHandlerTime.report(v)
	if r.symbols == nil {
		return
	}
	sym, ok := r.symbols.Find(addr)
	if !ok {
		return
	}
	if m := r.tagged(handlerMetricName, HandlerTags(sym.Name)); m != nil {
		m.report(v)
	}
}

// HandlerTags is the tag set of a per handler metric.
func HandlerTags(handler string) string {
	return fmt.Sprintf("{handler=%q}", handler)
}

// Len is the number of metrics, builtin and dynamic.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.builtin) + r.ndynamic
}

// At returns a copy of metric i. Builtin metrics come first.
func (r *Registry) At(i int) (Metric, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.builtin)+r.ndynamic {
		return Metric{}, false
	}
	if i < len(r.builtin) {
		return *r.builtin[i], true
	}
	return r.dynamic[i-len(r.builtin)], true
}

// Snapshot copies every metric.
func (r *Registry) Snapshot() []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Metric, 0, len(r.builtin)+r.ndynamic)
	for _, m := range r.builtin {
		out = append(out, *m)
	}
	return append(out, r.dynamic[:r.ndynamic]...)
}

// Reset clears count and sum of every metric. Min and max are overwritten
// by the next report.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.builtin {
		m.Count, m.Sum = 0, 0
	}
	for i := 0; i < r.ndynamic; i++ {
		r.dynamic[i].Count, r.dynamic[i].Sum = 0, 0
	}
}

// WriteText renders the snapshot one sample per line.
func (r *Registry) WriteText(w io.Writer) error {
	for _, m := range r.Snapshot() {
		for _, s := range [...]struct {
			suffix string
			v      int64
		}{{"_count", m.Count}, {"_sum", m.Sum}, {"_min", m.Min}, {"_max", m.Max}} {
			if _, err := fmt.Fprintf(w, "%s%s%s %d\n", m.Name, s.suffix, m.Tags, s.v); err != nil {
				return err
			}
		}
	}
	return nil
}

var epoch = time.Now()

// PreciseTime returns monotonic nanoseconds since process start.
func PreciseTime() int64 {
	return int64(time.Since(epoch))
}
