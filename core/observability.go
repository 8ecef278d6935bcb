package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// NopMetricsRecorder drops every sample.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// log fields promoted to metric tags
var metricTagKeys = []string{"tenant_id", "service_type", "adapter_type", "stage", "did_method"}

type operationEvent struct {
	name     string
	failed   bool
	elapsed  time.Duration
	err      error
	metadata map[string]any
}

func newOperationEvent(operation string, startedAt time.Time, err error, fields map[string]any) operationEvent {
	name := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(operation)))
	if name == "" {
		name = "unknown"
	}
	return operationEvent{
		name:     name,
		failed:   err != nil,
		elapsed:  time.Since(startedAt),
		err:      err,
		metadata: RedactSensitiveMap(fields),
	}
}

func (e operationEvent) status() string {
	if e.failed {
		return "failure"
	}
	return "success"
}

func (e operationEvent) logFields() map[string]any {
	out := lo.Assign(e.metadata, map[string]any{
		"event_type":  e.name,
		"status":      e.status(),
		"duration_ms": e.elapsed.Milliseconds(),
	})
	if e.err != nil {
		out["error"] = e.err.Error()
		if stage := StageOf(e.err); stage != "" {
			out["stage"] = stage
		}
	}
	return out
}

func (e operationEvent) tags(fields map[string]any) map[string]string {
	tags := map[string]string{"operation": e.name, "status": e.status()}
	for _, key := range metricTagKeys {
		raw, ok := fields[key]
		if !ok || raw == nil {
			continue
		}
		if value := strings.TrimSpace(fmt.Sprint(raw)); value != "" {
			tags[key] = value
		}
	}
	return tags
}

// observeOperation emits one log line plus a counter and a latency histogram
// for a finished public operation.
func (s *Service) observeOperation(ctx context.Context, startedAt time.Time, operation string, err error, fields map[string]any) {
	if s == nil {
		return
	}
	event := newOperationEvent(operation, startedAt, err, fields)
	logFields := event.logFields()
	tags := event.tags(logFields)

	if s.metricsRecorder != nil {
		s.metricsRecorder.IncCounter(ctx, "services."+event.name+".total", 1, lo.Assign(tags))
		s.metricsRecorder.ObserveHistogram(ctx, "services."+event.name+".duration_ms", float64(event.elapsed.Milliseconds()), lo.Assign(tags))
	}

	if event.failed {
		s.logError(ctx, event.name+" failed", logFields)
		return
	}
	s.logInfo(ctx, event.name+" succeeded", logFields)
}

func (s *Service) logDebug(ctx context.Context, message string, fields map[string]any) {
	s.emit(ctx, "debug", message, fields)
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.emit(ctx, "info", message, fields)
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	s.emit(ctx, "error", message, fields)
}

func (s *Service) emit(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if withFields, ok := logger.(FieldsLogger); ok {
		logger = withFields.WithFields(lo.Assign(fields))
	}

	keys := lo.Keys(fields)
	slices.Sort(keys)
	args := lo.FlatMap(keys, func(key string, _ int) []any {
		return []any{key, fields[key]}
	})

	switch level {
	case "error":
		logger.Error(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}
