package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"conatel.gouv.ht/web/internal/loader"
	"conatel.gouv.ht/web/internal/observability"
)

// retryRequested reports whether r came from the retry link of a failed section.
func retryRequested(r *http.Request) bool {
	return r.URL.Query().Get("retry") == "1"
}

// loadSection runs one page section through l and releases it. On a retry
// request a retryable failure gets one more attempt before the alert is shown
// again.
func loadSection[T any](ctx context.Context, resource, lang string, retry bool, l *loader.Loader[T]) loader.State[T] {
	defer l.Close()
	logger := observability.FromContext(ctx).With(zap.String("resource", resource))
	l.OnChange(func(st loader.State[T]) {
		logger.Debug("section state",
			zap.Stringer("phase", st.Phase),
			zap.String("locale", st.Locale),
		)
	})

	st, _ := l.Load(ctx, lang)
	if retry && st.Phase == loader.Failed && st.Failure().Retryable() {
		logger.Info("retrying section", zap.Error(st.Err))
		st, _ = l.Retry(ctx)
	}
	return st
}
