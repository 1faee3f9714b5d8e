package orders

import "context"

type traceKey struct{}

// WithTrace menempelkan trace id (X-Request-Id atau trace_id envelope asal)
// ke context; dibaca saat publish supaya event downstream bawa trace sama.
func WithTrace(ctx context.Context, trace string) context.Context {
	if trace == "" {
		return ctx
	}
	return context.WithValue(ctx, traceKey{}, trace)
}

func TraceFrom(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}
