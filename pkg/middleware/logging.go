package middleware

import (
	"log/slog"
	"time"

	"github.com/vango-dev/cveboard/pkg/nav"
)

// Logger creates a middleware that logs each navigation outcome at info
// level, or warn for rejected and invalid navigations.
func Logger(logger *slog.Logger) nav.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nav.access")

	return nav.MiddlewareFunc(func(n *nav.Navigation, next func() error) error {
		start := time.Now()
		err := next()

		outcome := Outcome(err)
		attrs := []any{
			"id", n.ID,
			"action", n.Action.String(),
			"target", n.Target.String(),
			"route", n.RouteName(),
			"outcome", outcome,
			"duration", time.Since(start),
		}
		switch outcome {
		case OutcomeRejected, OutcomeInvalid, OutcomeError:
			logger.Warn("navigation", append(attrs, "error", err)...)
		default:
			logger.Info("navigation", attrs...)
		}
		return err
	})
}
