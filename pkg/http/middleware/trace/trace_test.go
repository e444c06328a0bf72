package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestNewTraceMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var inner oteltrace.SpanContext
	handler := NewTraceMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = oteltrace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/orders/7/status", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /api/orders/7/status", spans[0].Name())
	assert.Equal(t, oteltrace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}
