package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type clientCtxKey struct{}
type requestCtxKey struct{}
type sessionCtxKey struct{}
type methodCtxKey struct{}

// ContextFields extracts correlation data from context for every log line.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if clientID := ClientIDFromContext(ctx); clientID != "" {
		fields = append(fields, zap.String("client.id", clientID))
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.Any("request.id", requestID))
	}
	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		fields = append(fields, zap.String("session.id", sessionID))
	}
	if method := MethodFromContext(ctx); method != "" {
		fields = append(fields, zap.String("rpc.method", method))
	}

	return fields
}

// WithClientID attaches the per-connection client id to the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientCtxKey{}, clientID)
}

// ClientIDFromContext extracts the client id, if any.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID attaches the JSON-RPC request id (any JSON scalar) to the context.
func WithRequestID(ctx context.Context, requestID any) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RequestIDFromContext extracts the JSON-RPC request id, if any.
func RequestIDFromContext(ctx context.Context) any {
	return ctx.Value(requestCtxKey{})
}

// WithSessionID attaches a session id to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// SessionIDFromContext extracts the session id, if any.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// WithMethod attaches the dispatched "service.method" name to the context.
func WithMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodCtxKey{}, method)
}

// MethodFromContext extracts the dispatched method name, if any.
func MethodFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(methodCtxKey{}).(string); ok {
		return v
	}
	return ""
}

type loggerCtxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves the logger from context, falling back to a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}
