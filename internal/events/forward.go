package events

import (
	"context"
	"time"

	applog "budget/internal/log"
	"budget/internal/store"
)

// Forward returns a store observer that publishes every change to p.
// Publishing is detached from the request that caused the change and bounded
// by timeout; failures are logged and never reach the caller.
func Forward(p Publisher, timeout time.Duration) func(context.Context, store.Change) {
	return func(ctx context.Context, c store.Change) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		e := NewEvent(c)
		if err := p.Publish(ctx, e); err != nil {
			applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Failed to publish change event", err,
				applog.ErrorTypeNetwork, applog.ComponentAMQP, applog.OpPublish,
				applog.NewFields().WithKind(string(e.Kind)).WithAccount(e.AccountID, e.TransactionID))
		}
	}
}
