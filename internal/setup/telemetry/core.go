package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// ErrorCore exports error level log entries as OpenTelemetry spans so failures show
// up next to interaction traces.
type ErrorCore struct {
	zapcore.LevelEnabler
	tracer trace.Tracer
	fields []zapcore.Field
}

// NewErrorCore creates a core that only records entries at error level or above.
func NewErrorCore() zapcore.Core {
	return &ErrorCore{
		LevelEnabler: zapcore.ErrorLevel,
		tracer:       otel.Tracer("slashcore/logs"),
	}
}

func (c *ErrorCore) With(fields []zapcore.Field) zapcore.Core {
	return &ErrorCore{
		LevelEnabler: c.LevelEnabler,
		tracer:       c.tracer,
		fields:       append(c.fields[:len(c.fields):len(c.fields)], fields...),
	}
}

func (c *ErrorCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *ErrorCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	_, span := c.tracer.Start(context.Background(), "error."+errorCategory(ent))
	defer span.End()

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}

	attrs := make([]attribute.KeyValue, 0, len(enc.Fields)+3)
	attrs = append(attrs,
		attribute.String("log.message", ent.Message),
		attribute.String("log.level", ent.Level.String()),
		attribute.String("code.caller", ent.Caller.TrimmedPath()),
	)
	for key, value := range enc.Fields {
		attrs = append(attrs, attribute.String("log."+key, stringify(value)))
	}

	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, ent.Message)
	return nil
}

func (c *ErrorCore) Sync() error {
	return nil
}

// errorCategory names the span after the first segment of the logger name.
func errorCategory(ent zapcore.Entry) string {
	if ent.LoggerName == "" {
		return "application"
	}
	category, _, _ := strings.Cut(ent.LoggerName, ".")
	return category
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case interface{ String() string }:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
