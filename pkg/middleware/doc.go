// Package middleware provides navigation middleware for the controller in
// package nav.
//
// This package includes:
//   - Prometheus metrics for navigations and navigation stream clients
//   - OpenTelemetry tracing, one span per navigation
//   - Structured logging of navigation outcomes
//
// # Prometheus Metrics
//
//	metrics := middleware.Prometheus(middleware.WithNamespace("cveboard"))
//	c := nav.New(table, nav.WithMiddleware(metrics))
//
//	http.Handle("/metrics", promhttp.Handler())
//
// Metrics collected:
//   - cveboard_navigations_total{route,outcome}
//   - cveboard_navigation_duration_seconds{route}
//   - cveboard_stream_clients
//
// # OpenTelemetry
//
// The tracer comes from the global provider unless one is given. The span
// context is attached to the navigation so lazy loads (for example S3
// fetches) inherit it.
//
//	c := nav.New(table, nav.WithMiddleware(
//	    middleware.OpenTelemetry(middleware.WithTracerName("cveboard")),
//	))
package middleware
