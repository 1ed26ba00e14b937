package kafkax

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// InjectTrace writes the trace context of ctx into msg's headers, replacing
// any trace headers already present.
func InjectTrace(ctx context.Context, msg *kafka.Message) {
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
}

// ExtractTraceContext parents ctx on the trace carried by msg, if any.
func ExtractTraceContext(ctx context.Context, msg kafka.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, (*headerCarrier)(&msg))
}

// headerCarrier adapts a message's headers to propagation.TextMapCarrier.
type headerCarrier kafka.Message

func (c *headerCarrier) Get(key string) string {
	return HeaderValue(c.Headers, key)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(c.Headers))
	for i, h := range c.Headers {
		keys[i] = h.Key
	}
	return keys
}

func (c *headerCarrier) Set(key string, value string) {
	for i := range c.Headers {
		if c.Headers[i].Key == key {
			c.Headers[i].Value = []byte(value)
			return
		}
	}
	c.Headers = append(c.Headers, kafka.Header{Key: key, Value: []byte(value)})
}
