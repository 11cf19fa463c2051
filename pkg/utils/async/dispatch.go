package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs handler in a new goroutine on a background context that
// keeps the caller's logger but not its cancellation: the handler must
// outlive the triggering request. Panics are recovered and logged, and a
// returned error is logged rather than propagated.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := ctxlog.With(context.Background(), ctxlog.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(newCtx).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := handler(newCtx); err != nil {
			ctxlog.From(newCtx).Error("error in async handler", "error", err)
		}
	}()
}
