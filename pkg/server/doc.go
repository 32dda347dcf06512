// Package server serves the dashboard over HTTP.
//
// Every GET under the base path is matched against the route table and the
// matched view is rendered inside the page layout, so deep links such as
// /cve/CVE-2024-3094 work without client-side routing. Paths that match no
// route render the not-found page with status 404.
//
// The server also exposes:
//   - <base>/_routes: the route table as JSON
//   - <base>/_nav: a WebSocket navigation stream bound to the active controller
//   - /healthz: liveness
//   - the metrics handler, when one is configured
//
// # Navigation Stream
//
// Clients send JSON messages:
//
//	{"type": "navigate", "path": "/cve/CVE-2024-3094", "ref": "1"}
//	{"type": "navigate", "name": "CVEDetail", "params": {"id": "42"}}
//	{"type": "back"}
//	{"type": "forward"}
//
// and receive the current route whenever it changes:
//
//	{"type": "route", "route": {"name": "CVEDetail", "params": {"id": "42"}, ...}}
//
// Failed navigations are answered with an "error" message carrying the
// coded error.
package server
