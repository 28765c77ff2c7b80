// Package telemetry collects hierarchical timings for proposal operations
// such as imports and document rendering.
//
// Collectors travel through a context so instrumented code does not need an
// extra parameter. Without a collector every call is a no-op:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.StartTimer(ctx, "render")
//	pdf := timer.Child("render.pdf")
//	pdf.End()
//	timer.End()
//
//	collector.Report(os.Stderr)
package telemetry

import (
	"context"
	"io"
)

type contextKey struct{}

// Collector receives timers and reports them.
type Collector interface {
	// Start begins timing an operation.
	Start(name string) Timer
	// Report writes the collected timings to w.
	Report(w io.Writer)
}

// Timer tracks one operation. Child timers nest under it.
type Timer interface {
	End()
	Child(name string) Timer
}

// WithCollector returns a context carrying collector.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, contextKey{}, collector)
}

// FromContext returns the collector in ctx, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(contextKey{}).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// StartTimer starts a timer on the collector in ctx.
func StartTimer(ctx context.Context, name string) Timer {
	return FromContext(ctx).Start(name)
}

type noOpCollector struct{}

func (noOpCollector) Start(string) Timer { return noOpTimer{} }
func (noOpCollector) Report(io.Writer)   {}

type noOpTimer struct{}

func (noOpTimer) End()               {}
func (noOpTimer) Child(string) Timer { return noOpTimer{} }
