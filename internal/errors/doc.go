// Package errors provides coded, actionable errors for cveboard.
//
// Library packages (router, nav, view) return plain sentinel errors so they
// stay usable on their own. The host wraps them here, attaching a stable
// code, a category and a hint for the operator:
//
//	r, err := ctrl.NavigateTo(ctx, "/cve/CVE-2024-3094")
//	if err != nil {
//	    ce := errors.Classify(err)
//	    fmt.Fprint(os.Stderr, ce.Format())
//	}
//
// # Error Codes
//
//   - E100-E119: routing and navigation
//   - E120-E129: configuration
//   - E130-E139: views and serving
//
// Coded errors unwrap to their cause, so errors.Is against the sentinel
// values in pkg/router and pkg/nav keeps working.
package errors
