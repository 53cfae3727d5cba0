package courier

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingTransport decorates a transport with an OpenTelemetry span per
// invocation. The span covers only the network exchange, not hook or cache
// work; a cache hit therefore produces no span.
func TracingTransport(base RoundTripper, tracer trace.Tracer) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		ctx, span := tracer.Start(req.Context(), "courier.transport",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.full", req.URL.String()),
			),
		)
		defer span.End()

		resp, err := base.RoundTrip(req.WithContext(ctx))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, resp.Status)
		}
		return resp, nil
	})
}
