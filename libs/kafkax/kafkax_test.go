package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestEventMetaHeaders(t *testing.T) {
	headers := EventMeta{EventID: "e-1", EventType: "booking.confirmed.v1", AggregateID: "b-1"}.Headers()
	assert.Len(t, headers, 3)
	assert.Equal(t, "e-1", HeaderValue(headers, HeaderEventID))
	assert.Equal(t, "booking.confirmed.v1", HeaderValue(headers, HeaderEventType))
	assert.Equal(t, "b-1", HeaderValue(headers, HeaderAggregateID))

	assert.Len(t, EventMeta{EventID: "e-2"}.Headers(), 1)
	assert.Equal(t, "", HeaderValue(nil, HeaderEventID))
}

func TestTopicName(t *testing.T) {
	assert.Equal(t, "booking.requested.v1", TopicName("", "booking.requested.v1"))
	assert.Equal(t, "slotbook.booking.requested.v1", TopicName(" slotbook. ", "booking.requested.v1"))
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, SplitBrokers(""))
}

func TestTraceHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, []kafka.Header{{Key: HeaderEventID, Value: []byte("e-1")}})
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", HeaderValue(headers, "traceparent"))
	assert.Equal(t, "e-1", HeaderValue(headers, HeaderEventID))

	extracted := otel.GetTextMapPropagator().Extract(context.Background(), &headerCarrier{headers: headers})
	got := trace.SpanContextFromContext(extracted)
	assert.Equal(t, traceID, got.TraceID())
}
