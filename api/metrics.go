package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "kanban/api"
	commandSpanName    = "kanban.api.request"
	commandEventName   = "kanban.api.request"
	commandEventDomain = "app"
	observabilityEvent = "observability.event"

	attrRoute         = "http.route"
	attrStatusCode    = "http.status_code"
	attrTotalMillis   = "kanban.request.total_ms"
	attrAuthMillis    = "kanban.request.auth_ms"
	attrApplyMillis   = "kanban.request.apply_ms"
	attrCommandType   = "kanban.command.type"
	attrCommandCount  = "kanban.command.count"
	attrDuplicates    = "kanban.command.duplicates"
	attrChanged       = "kanban.board.changed"
	attrTaskCount     = "kanban.board.tasks"
	attrPersistFailed = "kanban.board.persist_failed"
	attrErrorStage    = "kanban.request.error_stage"
	attrErrorMessage  = "error.message"
)

// requestMetrics collects timings of one API request and reports them as a
// log record plus a span when the request completes.
type requestMetrics struct {
	logger *log.Logger
	span   trace.Span
	route  string
	start  time.Time

	authDuration  time.Duration
	applyDuration time.Duration
	commandType   string
	commandCount  int
	duplicates    int
	changed       bool
	taskCount     int
	persistFailed bool
	errorStage    string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, commandSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String(attrRoute, route)),
	)
	return &requestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		start:  time.Now(),
	}, ctx
}

func (m *requestMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *requestMetrics) ObserveApply(d time.Duration) {
	if d > 0 {
		m.applyDuration += d
	}
}

func (m *requestMetrics) SetCommand(kind string) {
	m.commandType = kind
	m.commandCount++
}

func (m *requestMetrics) AddDuplicate() { m.duplicates++ }

func (m *requestMetrics) SetOutcome(changed bool, tasks int, warning string) {
	m.changed = m.changed || changed
	m.taskCount = tasks
	m.persistFailed = m.persistFailed || warning != ""
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

func (m *requestMetrics) attributes(status int, err error) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(attrRoute, m.route),
		attribute.Int(attrStatusCode, status),
		attribute.Float64(attrTotalMillis, durationToMillis(time.Since(m.start))),
		attribute.Int(attrCommandCount, m.commandCount),
		attribute.Bool(attrChanged, m.changed),
		attribute.Int(attrTaskCount, m.taskCount),
	}
	if m.authDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrAuthMillis, durationToMillis(m.authDuration)))
	}
	if m.applyDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrApplyMillis, durationToMillis(m.applyDuration)))
	}
	if m.commandType != "" {
		attrs = append(attrs, attribute.String(attrCommandType, m.commandType))
	}
	if m.duplicates > 0 {
		attrs = append(attrs, attribute.Int(attrDuplicates, m.duplicates))
	}
	if m.persistFailed {
		attrs = append(attrs, attribute.Bool(attrPersistFailed, true))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(attrErrorStage, m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorMessage, err.Error()))
	}
	return attrs
}

// Log ends the span and emits the observability event.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	attrs := m.attributes(status, err)
	sevText, sevNumber := severityForStatus(status, err)

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", commandEventName),
			attribute.String("event.domain", commandEventDomain),
			attribute.String("severity_text", sevText),
		}, attrs...)
		m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
		switch {
		case err != nil:
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      commandEventName,
		"event.domain":    commandEventDomain,
		"severity_text":   sevText,
		"severity_number": sevNumber,
		"attributes":      attrMap,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	entry := m.logger.WithFields(fields)
	switch sevText {
	case "ERROR":
		entry.Error(observabilityEvent)
	case "WARN":
		entry.Warn(observabilityEvent)
	default:
		entry.Info(observabilityEvent)
	}
}

// severityForStatus maps a response to OpenTelemetry severity text and number.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= http.StatusInternalServerError, status == 0 && err != nil:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
