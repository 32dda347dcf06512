// Package routepath normalizes navigation paths and maps them in and out of
// the application base path.
//
// Every path the navigation controller observes passes through Clean before it
// is matched against the route table, so "/cve-list/", "//cve-list" and
// "/analysis/../cve-list" all resolve to the same route.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Path errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in path segment")
	ErrOutsideBase           = errors.New("path is outside the base path")
)

// Result is a cleaned path with its query string split off.
type Result struct {
	// Path is the cleaned path, always starting with "/".
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether cleaning modified the path.
	Changed bool
}

// Clean normalizes a navigation path:
//   - a leading "/" is added when missing
//   - repeated slashes are collapsed
//   - "." segments are dropped and ".." segments resolved
//   - a trailing slash is removed (except for "/")
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above the root
// are rejected. The query string is preserved untouched.
func Clean(input string) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	path, query, _ := strings.Cut(input, "?")

	if strings.Contains(path, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validateEscapes(path); err != nil {
			return Result{}, err
		}
	}

	original := path
	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	path = "/" + strings.Join(out, "/")
	return Result{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// CleanNav validates a path handed to programmatic navigation. Absolute URLs
// and protocol-relative URLs are refused so a navigation can never leave the
// application.
func CleanNav(path string) (Result, error) {
	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//") ||
		!strings.HasPrefix(path, "/") {
		return Result{}, ErrInvalidPath
	}
	return Clean(path)
}

// Segments splits a cleaned path into decoded segments. "/" yields no
// segments. An encoded slash inside a segment is rejected.
func Segments(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}

	raw := strings.Split(path, "/")
	segs := make([]string, 0, len(raw))
	for _, seg := range raw {
		decoded, err := DecodeSegment(seg)
		if err != nil {
			return nil, err
		}
		segs = append(segs, decoded)
	}
	return segs, nil
}

// DecodeSegment percent-decodes a single path segment.
func DecodeSegment(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// NormalizeBase turns a configured base path into the canonical "/prefix"
// form. Empty, "/" and "./" all mean the root.
func NormalizeBase(base string) string {
	base = strings.TrimSpace(base)
	base = strings.TrimPrefix(base, ".")
	base = strings.Trim(base, "/")
	if base == "" {
		return "/"
	}
	return "/" + base
}

// Join prefixes an application path with the base path.
func Join(base, path string) string {
	base = NormalizeBase(base)
	if path == "" || path == "/" {
		if base == "/" {
			return "/"
		}
		return base + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if base == "/" {
		return path
	}
	return base + path
}

// Strip removes the base path from an observed URL path, returning the
// application path. Paths outside the base return ErrOutsideBase.
func Strip(base, path string) (string, error) {
	base = NormalizeBase(base)
	if base == "/" {
		return path, nil
	}
	if path == base {
		return "/", nil
	}
	rest, ok := strings.CutPrefix(path, base+"/")
	if !ok {
		return "", ErrOutsideBase
	}
	return "/" + rest, nil
}

func validateEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHex(path[i+1]) || !isHex(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
