package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Routing and navigation (E100-E119)
	// ============================================

	"E100": {
		Category:   CategoryRouting,
		Message:    "No route matches path",
		Detail:     "The path did not match any registered route pattern. The not-found page is shown instead.",
		Suggestion: "Check the path against `cveboard routes`.",
	},
	"E101": {
		Category:   CategoryNavigation,
		Message:    "Navigation rejected: view failed to load",
		Detail:     "A lazily loaded view could not be fetched. The failure is not cached; navigating again retries the load.",
		Suggestion: "Check the views source (directory or bucket) is reachable and contains the template.",
	},
	"E102": {
		Category: CategoryRouting,
		Message:  "Duplicate route name",
		Detail:   "Route names identify routes for named navigation and must be unique within a table.",
	},
	"E103": {
		Category:   CategoryRouting,
		Message:    "Invalid route",
		Detail:     "Route patterns are absolute paths of literal and :param segments. Wildcards and empty segments are not supported.",
		Suggestion: "Use a pattern like /cve/:id.",
	},
	"E104": {
		Category: CategoryRouting,
		Message:  "Cannot build route URL",
		Detail:   "The named route does not exist, or a parameter it needs was not provided.",
	},
	"E105": {
		Category: CategoryNavigation,
		Message:  "Navigation superseded",
		Detail:   "A newer navigation started before this one finished. Only the latest navigation is mounted.",
	},
	"E106": {
		Category:   CategoryNavigation,
		Message:    "Invalid navigation target",
		Detail:     "Navigation targets are application paths starting with a single slash. Absolute URLs are not followed.",
		Suggestion: "Navigate to a path such as /cve-list.",
	},
	"E107": {
		Category: CategoryNavigation,
		Message:  "Navigation controller closed",
	},
	"E199": {
		Category: CategoryNavigation,
		Message:  "Navigation failed",
	},

	// ============================================
	// Configuration (E120-E129)
	// ============================================

	"E120": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No cveboard.json was found in the given directory.",
		Suggestion: "Create cveboard.json or pass --config.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "cveboard.json could not be parsed as JSON.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// Views and serving (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryView,
		Message:  "View source unavailable",
		Detail:   "The configured view source could not be opened.",
	},
	"E131": {
		Category: CategoryServer,
		Message:  "Server failed",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
