package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

// LogBridge implements sdktrace.SpanProcessor to surface span completions
// through the application logger. It is installed when no external trace
// exporter is configured, so span timings still reach the operator.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart is called when a span starts.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Round(time.Microsecond)

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "span failed"
		}
		err := zerr.With(zerr.New(desc), "span", s.Name())
		b.logger.Error(zerr.With(err, "elapsed", elapsed.String()))
		return
	}

	b.logger.Info(fmt.Sprintf("%s (%s)", s.Name(), elapsed))
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}
