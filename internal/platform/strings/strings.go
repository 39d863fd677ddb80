// Package strings provides small string helpers
package strings

import std "strings"

// MustString returns s if it has non whitespace content otherwise panics
// name is used in the panic message so you can tell what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes and asserts a root path like /actors or /collections
// ensures a single leading slash and no trailing slash except for the root itself
// panics if the input is empty after trimming
func MustPrefix(s string) string {
	s = std.TrimSpace(s)
	s = "/" + std.Trim(s, " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// Ptr returns a pointer to s, or nil if s is empty
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" if ps is nil, else *ps.
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// SQLNull returns nil if s is blank/whitespace, else the original string.
// Useful for query args where NULL is desired for blanks
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}
