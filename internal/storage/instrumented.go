package storage

import (
	"context"
	"time"

	"nextfilm/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Instrumented wraps a BlobStore with metrics and client spans.
type Instrumented struct {
	next    BlobStore
	backend string
}

// Instrument decorates next; backend labels spans ("supabase", "local").
func Instrument(next BlobStore, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

// Unwrap returns the decorated store.
func (i *Instrumented) Unwrap() BlobStore {
	return i.next
}

func (i *Instrumented) observe(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := observability.StartClientSpan(ctx, "blob."+op,
		append(attrs, attribute.String("blob.backend", i.backend))...)
	start := time.Now()

	err := fn(ctx)

	observability.BlobLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.BlobOperations.WithLabelValues(op, result).Inc()
	observability.EndSpan(span, err)
	return err
}

func (i *Instrumented) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	return i.observe(ctx, "upload", []attribute.KeyValue{
		attribute.String("blob.path", path),
		attribute.Int("blob.size", len(data)),
	}, func(ctx context.Context) error {
		return i.next.Upload(ctx, path, data, contentType)
	})
}

func (i *Instrumented) CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	var signed string
	err := i.observe(ctx, "sign", []attribute.KeyValue{attribute.String("blob.path", path)},
		func(ctx context.Context) error {
			var err error
			signed, err = i.next.CreateSignedURL(ctx, path, ttl)
			return err
		})
	return signed, err
}

func (i *Instrumented) Remove(ctx context.Context, paths []string) error {
	return i.observe(ctx, "remove", []attribute.KeyValue{attribute.Int("blob.count", len(paths))},
		func(ctx context.Context) error {
			return i.next.Remove(ctx, paths)
		})
}
