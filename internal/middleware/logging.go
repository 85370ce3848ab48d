package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// chatScoped is implemented by request messages that target one chat.
type chatScoped interface {
	GetChatID() string
}

// LoggingInterceptor logs one line per RPC: procedure, bridge, chat and
// duration, plus the Connect code on failure. Client errors log at Warn,
// anything without a Connect code at Error.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"bridge", GetBridge(ctx), // empty if pre-auth
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if m, ok := req.Any().(chatScoped); ok {
				attrs = append(attrs, "chat_id", m.GetChatID())
			}

			var connectErr *connect.Error
			switch {
			case err == nil:
				slog.InfoContext(ctx, "RPC ok", attrs...)
			case errors.As(err, &connectErr):
				attrs = append(attrs, "code", connectErr.Code(), "error", connectErr.Message())
				slog.WarnContext(ctx, "RPC error", attrs...)
			default:
				attrs = append(attrs, "error", err)
				slog.ErrorContext(ctx, "RPC error", attrs...)
			}
			return resp, err
		}
	}
}
