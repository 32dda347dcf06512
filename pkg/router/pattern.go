package router

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// segment is one compiled pattern segment.
type segment struct {
	// literal is the static text for non-param segments
	literal string

	// param is the parameter name (without ':'), empty for literals
	param string

	// paramType constrains the captured value (string, int, uint, uuid)
	paramType string
}

// pattern is a compiled route path.
type pattern struct {
	raw      string
	segments []segment
}

// compilePattern parses a route path into segments.
func compilePattern(path string) (pattern, error) {
	if !strings.HasPrefix(path, "/") {
		return pattern{}, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, path)
	}

	p := pattern{raw: path}
	seen := make(map[string]bool)
	for _, seg := range splitPath(path) {
		switch {
		case seg == "":
			return pattern{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPattern, path)
		case strings.HasPrefix(seg, "*"):
			return pattern{}, fmt.Errorf("%w: %q: catch-all segments are not supported", ErrInvalidPattern, path)
		case strings.HasPrefix(seg, ":"):
			name, paramType := parseParamSegment(seg)
			if !validParamName(name) {
				return pattern{}, fmt.Errorf("%w: %q: bad parameter name %q", ErrInvalidPattern, path, name)
			}
			if !knownParamType(paramType) {
				return pattern{}, fmt.Errorf("%w: %q: unknown parameter type %q", ErrInvalidPattern, path, paramType)
			}
			if seen[name] {
				return pattern{}, fmt.Errorf("%w: %q: parameter %q repeated", ErrInvalidPattern, path, name)
			}
			seen[name] = true
			p.segments = append(p.segments, segment{param: name, paramType: paramType})
		default:
			p.segments = append(p.segments, segment{literal: seg})
		}
	}
	return p, nil
}

// match tests decoded path segments against the pattern and returns the
// captured parameters.
func (p pattern) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, s := range p.segments {
		if s.param == "" {
			if segs[i] != s.literal {
				return nil, false
			}
			continue
		}
		if segs[i] == "" || !utf8.ValidString(segs[i]) || ValidateParam(segs[i], s.paramType) != nil {
			return nil, false
		}
		if params == nil {
			params = make(map[string]string, len(p.segments))
		}
		params[s.param] = segs[i]
	}
	return params, true
}

// build substitutes params into the pattern, escaping each value.
func (p pattern) build(params map[string]string) (string, error) {
	if len(p.segments) == 0 {
		return "/", nil
	}

	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.param == "" {
			b.WriteString(s.literal)
			continue
		}
		v, ok := params[s.param]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: %q needs %q", ErrMissingParam, p.raw, s.param)
		}
		if err := ValidateParam(v, s.paramType); err != nil {
			return "", fmt.Errorf("param %q: %w", s.param, err)
		}
		b.WriteString(url.PathEscape(v))
	}
	return b.String(), nil
}

// paramNames returns the parameter names in pattern order.
func (p pattern) paramNames() []string {
	var names []string
	for _, s := range p.segments {
		if s.param != "" {
			names = append(names, s.param)
		}
	}
	return names
}

// splitPath splits a path into segments. "/" has no segments.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// parseParamSegment extracts name and type from a parameter segment.
// Input: ":id" or ":id:int" -> name="id", type="string" or "int"
func parseParamSegment(seg string) (name, paramType string) {
	seg = seg[1:]
	if idx := strings.Index(seg, ":"); idx != -1 {
		return seg[:idx], seg[idx+1:]
	}
	return seg, "string"
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
