// Package log logs through the base logger, adding the key-values
// attached to a context with WithFields.
package log

import (
	"context"

	"github.com/vxgen/ProductCheck/pkg/logger"
	"go.uber.org/zap"
)

type fieldsKey struct{}

// WithFields returns a copy of ctx carrying kv in addition to the
// key-values already attached. A key that is already present is
// overwritten in place.
func WithFields(ctx context.Context, kv ...any) context.Context {
	current := Fields(ctx)
	merged := make([]any, len(current), len(current)+len(kv))
	copy(merged, current)

	for i := 0; i+1 < len(kv); i += 2 {
		replaced := false
		for j := 0; j+1 < len(merged); j += 2 {
			if merged[j] == kv[i] {
				merged[j+1] = kv[i+1]
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, kv[i], kv[i+1])
		}
	}
	if len(merged) == 0 {
		return ctx
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// Fields returns the key-values attached to ctx.
func Fields(ctx context.Context) []any {
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	return fields
}

func sugar(ctx context.Context) *zap.SugaredLogger {
	l := logger.Base().Sugar()
	if fields := Fields(ctx); len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

func Debugw(ctx context.Context, msg string, kv ...any) { sugar(ctx).Debugw(msg, kv...) }
func Infow(ctx context.Context, msg string, kv ...any)  { sugar(ctx).Infow(msg, kv...) }
func Warnw(ctx context.Context, msg string, kv ...any)  { sugar(ctx).Warnw(msg, kv...) }
func Errorw(ctx context.Context, msg string, kv ...any) { sugar(ctx).Errorw(msg, kv...) }

func Infof(ctx context.Context, template string, args ...any) { sugar(ctx).Infof(template, args...) }

// Logw logs at the given level.
func Logw(ctx context.Context, level logger.Level, msg string, kv ...any) {
	sugar(ctx).Logw(level, msg, kv...)
}

func Fatal(args ...any) {
	logger.Base().Sugar().Fatal(args...)
}
