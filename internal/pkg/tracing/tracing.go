package tracing

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "qp-hub"

// Setup installs the global tracer provider. With stdout disabled spans are
// still created but never exported.
func Setup(stdout bool) (func(context.Context) error, error) {
	opts := []sdktrace.TracerProviderOption{}
	if stdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Wrap(err, "create stdout exporter")
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
