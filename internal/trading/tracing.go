package trading

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/ShayCichocki/agentlabs/internal/state"
)

// Trace is one traced trader run.
type Trace struct {
	ID string
	// Name describes the run, such as "warren-trading".
	Name string
	// Group is the trader the trace belongs to.
	Group     string
	StartedAt time.Time
	EndedAt   time.Time
	Error     error
}

// Span is a step inside a trace, such as a model call or a tool call.
type Span struct {
	ID        string
	TraceID   string
	Group     string
	Kind      string
	Name      string
	StartedAt time.Time
	EndedAt   time.Time
	Error     error
}

// TraceProcessor receives trace and span lifecycle events.
type TraceProcessor interface {
	OnTraceStart(t Trace)
	OnTraceEnd(t Trace)
	OnSpanStart(s Span)
	OnSpanEnd(s Span)
}

// Tracing fans trace events out to registered processors.
type Tracing struct {
	mu         sync.RWMutex
	processors []TraceProcessor
}

var defaultTracing = &Tracing{}

// DefaultTracing returns the process-wide tracing registry.
func DefaultTracing() *Tracing {
	return defaultTracing
}

// AddTraceProcessor registers p with the process-wide registry.
func AddTraceProcessor(p TraceProcessor) {
	defaultTracing.Add(p)
}

// Add registers a processor.
func (tr *Tracing) Add(p TraceProcessor) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.processors = append(tr.processors, p)
}

// Reset removes every processor.
func (tr *Tracing) Reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.processors = nil
}

func (tr *Tracing) each(fn func(TraceProcessor)) {
	tr.mu.RLock()
	ps := append([]TraceProcessor(nil), tr.processors...)
	tr.mu.RUnlock()
	for _, p := range ps {
		fn(p)
	}
}

// ActiveTrace is a started trace awaiting End.
type ActiveTrace struct {
	tr    *Tracing
	trace Trace
}

// Start begins a trace for group.
func (tr *Tracing) Start(group, name string) *ActiveTrace {
	t := Trace{
		ID:        NewTraceID(group),
		Name:      name,
		Group:     group,
		StartedAt: time.Now(),
	}
	tr.each(func(p TraceProcessor) { p.OnTraceStart(t) })
	return &ActiveTrace{tr: tr, trace: t}
}

// ID returns the trace ID.
func (a *ActiveTrace) ID() string {
	return a.trace.ID
}

// End finishes the trace with an optional error.
func (a *ActiveTrace) End(err error) {
	a.trace.EndedAt = time.Now()
	a.trace.Error = err
	t := a.trace
	a.tr.each(func(p TraceProcessor) { p.OnTraceEnd(t) })
}

// ActiveSpan is a started span awaiting End.
type ActiveSpan struct {
	tr   *Tracing
	span Span
}

// StartSpan begins a span of kind inside the trace.
func (a *ActiveTrace) StartSpan(kind, name string) *ActiveSpan {
	s := Span{
		ID:        "span_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		TraceID:   a.trace.ID,
		Group:     a.trace.Group,
		Kind:      kind,
		Name:      name,
		StartedAt: time.Now(),
	}
	a.tr.each(func(p TraceProcessor) { p.OnSpanStart(s) })
	return &ActiveSpan{tr: a.tr, span: s}
}

// End finishes the span with an optional error.
func (s *ActiveSpan) End(err error) {
	s.span.EndedAt = time.Now()
	s.span.Error = err
	sp := s.span
	s.tr.each(func(p TraceProcessor) { p.OnSpanEnd(sp) })
}

// NewTraceID returns "trace_<tag>0<random>", 32 characters after the prefix.
// The tag is the lowercased alphanumerics of group so the owner can be
// recovered with TraceGroup.
func NewTraceID(group string) string {
	var tag strings.Builder
	for _, r := range strings.ToLower(group) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) && r != '0' {
			tag.WriteRune(r)
		}
	}
	prefix := tag.String()
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	prefix += "0"

	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "trace_" + prefix + random[:32-len(prefix)]
}

// TraceGroup extracts the group tag from a trace ID created by NewTraceID.
func TraceGroup(traceID string) string {
	rest, ok := strings.CutPrefix(traceID, "trace_")
	if !ok {
		return ""
	}
	tag, _, _ := strings.Cut(rest, "0")
	return tag
}

// LogTracer writes trace events to the logs table, keyed by trader.
type LogTracer struct {
	store state.LogStore
}

// NewLogTracer creates a tracer writing to store.
func NewLogTracer(store state.LogStore) *LogTracer {
	return &LogTracer{store: store}
}

// logName is the logs-table key for an event: the group when known, else the
// tag embedded in the trace ID.
func logName(group, traceID string) string {
	if group != "" {
		return strings.ToLower(group)
	}
	return TraceGroup(traceID)
}

func (l *LogTracer) write(name, typ, msg string) {
	if name == "" {
		log.Printf("[tracer] dropping %s log without a trader: %s", typ, msg)
		return
	}
	if err := l.store.WriteLog(name, typ, msg); err != nil {
		log.Printf("[tracer] failed to write %s log for %s: %v", typ, name, err)
	}
}

// OnTraceStart implements TraceProcessor.
func (l *LogTracer) OnTraceStart(t Trace) {
	l.write(logName(t.Group, t.ID), "trace", fmt.Sprintf("Started: %s", t.Name))
}

// OnTraceEnd implements TraceProcessor.
func (l *LogTracer) OnTraceEnd(t Trace) {
	msg := fmt.Sprintf("Ended: %s", t.Name)
	if t.Error != nil {
		msg += fmt.Sprintf(" (error: %v)", t.Error)
	}
	l.write(logName(t.Group, t.ID), "trace", msg)
}

// OnSpanStart implements TraceProcessor.
func (l *LogTracer) OnSpanStart(s Span) {
	l.write(logName(s.Group, s.TraceID), s.Kind, fmt.Sprintf("Started %s", s.Name))
}

// OnSpanEnd implements TraceProcessor.
func (l *LogTracer) OnSpanEnd(s Span) {
	msg := fmt.Sprintf("Ended %s", s.Name)
	if s.Error != nil {
		msg += fmt.Sprintf(" (error: %v)", s.Error)
	}
	l.write(logName(s.Group, s.TraceID), s.Kind, msg)
}
