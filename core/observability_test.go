package core

import (
	"context"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

func TestServiceObservability_ConnectSuccess(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	svc, err := newTestService(&fakeProvider{}, nil,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("%v", err)
	}

	if _, err := svc.Connect(context.Background(), ConnectRequest{}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if !hasCounter(metrics.counters, "quickbooks.connect.total", "success") {
		t.Fatalf("expected quickbooks.connect.total success counter")
	}
	if !hasHistogram(metrics.histograms, "quickbooks.connect.duration_ms", "success") {
		t.Fatalf("expected quickbooks.connect.duration_ms histogram")
	}
	if !hasLog(logger.snapshot(), "info", "connect succeeded", "connect") {
		t.Fatalf("expected connect succeeded structured log")
	}
}

func TestServiceObservability_CallbackFailureCarriesErrorFields(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	svc, err := newTestService(&fakeProvider{}, nil,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("%v", err)
	}

	if _, err := svc.CompleteCallback(context.Background(), CallbackRequest{RealmID: "999"}); err == nil {
		t.Fatalf("expected missing parameter error")
	}
	if !hasCounter(metrics.counters, "quickbooks.complete_callback.total", "failure") {
		t.Fatalf("expected complete_callback failure counter")
	}
	records := logger.snapshot()
	if !hasLog(records, "error", "complete_callback failed", "complete_callback") {
		t.Fatalf("expected complete_callback failure log")
	}
	last := records[len(records)-1]
	if last.fields["error_text_code"] != ServiceErrorBadInput {
		t.Fatalf("expected error_text_code %q, got %#v", ServiceErrorBadInput, last.fields["error_text_code"])
	}
	if last.fields["realm_id"] != "999" {
		t.Fatalf("expected realm_id field, got %#v", last.fields["realm_id"])
	}
}

func TestServiceObservability_NeverLogsTokens(t *testing.T) {
	logger := newCaptureLogger()
	svc, err := newTestService(&fakeProvider{}, nil,
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("%v", err)
	}

	svc.observeOperation(
		context.Background(),
		time.Now().UTC().Add(-100*time.Millisecond),
		"fetch_invoices",
		goerrors.New("provider timeout", goerrors.CategoryExternal).WithCode(502),
		map[string]any{
			"realm_id":      "999",
			"access_token":  "secret_access",
			"refresh_token": "secret_refresh",
		},
	)

	records := logger.snapshot()
	if len(records) == 0 {
		t.Fatalf("expected logs to be emitted")
	}
	last := records[len(records)-1]
	if _, ok := last.fields["access_token"]; ok {
		t.Fatalf("expected access_token to be dropped")
	}
	if _, ok := last.fields["refresh_token"]; ok {
		t.Fatalf("expected refresh_token to be dropped")
	}
	if last.fields["error_category"] != "external" {
		t.Fatalf("expected error_category external, got %#v", last.fields["error_category"])
	}
	if last.fields["error_code"] != 502 {
		t.Fatalf("expected error_code 502, got %#v", last.fields["error_code"])
	}
}

func hasCounter(items []capturedCounter, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasHistogram(items []capturedHistogram, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasLog(items []capturedLog, level string, message string, eventType string) bool {
	for _, item := range items {
		if item.level != level {
			continue
		}
		if item.msg != message {
			continue
		}
		if item.fields["event_type"] == eventType {
			return true
		}
	}
	return false
}
