package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// recorder remembers the first status code written through it.
type recorder struct {
	http.ResponseWriter

	code int
}

func (rec *recorder) WriteHeader(code int) {
	if rec.code == 0 {
		rec.code = code
	}

	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(buf []byte) (int, error) {
	if rec.code == 0 {
		rec.code = http.StatusOK
	}

	return rec.ResponseWriter.Write(buf)
}

func (rec *recorder) status() int {
	if rec.code == 0 {
		return http.StatusOK
	}

	return rec.code
}

// HTTPMiddleware opens a server span named "METHOD /path" for each request,
// continuing any W3C trace context in the headers, and records RED metrics
// under the same name. Only 5xx responses count as errors. red may be nil.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		op := hr.Method + " " + hr.URL.Path
		parent := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parent, op,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String("http.target", hr.URL.Path),
			),
		)
		defer span.End()

		if id := RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String(logKeyRequestID, id))
		}

		end := red.Begin(ctx, op)
		rec := &recorder{ResponseWriter: rw}

		next.ServeHTTP(rec, hr.WithContext(ctx))

		code := rec.status()
		span.SetAttributes(semconv.HTTPResponseStatusCode(code))

		failed := code >= http.StatusInternalServerError
		if failed {
			span.SetStatus(codes.Error, http.StatusText(code))
		}

		end(failed)
	})
}
