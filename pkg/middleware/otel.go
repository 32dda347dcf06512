package middleware

import (
	"errors"

	"github.com/vango-dev/cveboard/pkg/nav"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "cveboard").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider

	// Filter decides whether to trace a navigation. Return false to skip.
	Filter func(*nav.Navigation) bool

	// AttributeExtractor adds custom attributes once the navigation finishes.
	AttributeExtractor func(*nav.Navigation) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithFilter sets a filter function.
func WithFilter(filter func(*nav.Navigation) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(*nav.Navigation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// Span attribute keys.
const (
	AttrNavID     = attribute.Key("cveboard.nav.id")
	AttrTarget    = attribute.Key("cveboard.nav.target")
	AttrAction    = attribute.Key("cveboard.nav.action")
	AttrLocation  = attribute.Key("cveboard.nav.location")
	AttrRoute     = attribute.Key("cveboard.route")
	AttrOutcome   = attribute.Key("cveboard.nav.outcome")
	AttrFromRoute = attribute.Key("cveboard.nav.from")
)

// OpenTelemetry creates a middleware that opens a span per navigation. The
// span context replaces the navigation context, so view loads started by the
// navigation become child spans.
func OpenTelemetry(opts ...OTelOption) nav.Middleware {
	config := OTelConfig{TracerName: "cveboard"}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return nav.MiddlewareFunc(func(n *nav.Navigation, next func() error) error {
		if config.Filter != nil && !config.Filter(n) {
			return next()
		}

		attrs := []attribute.KeyValue{
			AttrNavID.Int64(int64(n.ID)),
			AttrTarget.String(n.Target.String()),
			AttrAction.String(n.Action.String()),
		}
		if n.From != nil {
			attrs = append(attrs, AttrFromRoute.String(n.From.Name()))
		}

		ctx, span := tracer.Start(n.Context(), "navigate",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		n.WithContext(ctx)
		err := next()

		if route := n.RouteName(); route != "" {
			span.SetName("navigate " + route)
			span.SetAttributes(AttrRoute.String(route))
		}
		if n.Location != "" {
			span.SetAttributes(AttrLocation.String(n.Location))
		}
		span.SetAttributes(AttrOutcome.String(Outcome(err)))
		if config.AttributeExtractor != nil {
			span.SetAttributes(config.AttributeExtractor(n)...)
		}

		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(err, nav.ErrSuperseded):
			// A superseded navigation is expected, not a failure.
			span.SetStatus(codes.Unset, "")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
}
