// Package handle parses and canonicalizes fediverse handles
//
// A handle is [@]user[@domain]. A handle without a domain refers to a local
// actor. Canonicalization folds case and normalizes Unicode so that two
// spellings of the same handle hit the same store row.
package handle

import (
	"strings"

	perr "tidepool/internal/platform/errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Handle is a parsed [@]user[@domain]
type Handle struct {
	Username string
	Domain   string // empty for local handles
}

// IsLocal reports whether the handle names a local actor (no domain part)
func (h Handle) IsLocal() bool { return h.Domain == "" }

// String renders user@domain, or just user for local handles
func (h Handle) String() string {
	if h.Domain == "" {
		return h.Username
	}
	return h.Username + "@" + h.Domain
}

var folder = cases.Fold()

// canonical folds case and applies NFC so lookups are spelling-insensitive
func canonical(s string) string {
	return folder.String(norm.NFC.String(s))
}

// Parse splits and canonicalizes a raw handle
// fails with a MalformedHandle error before any network or store access
func Parse(raw string) (Handle, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return Handle{}, perr.MalformedHandlef("empty handle")
	}

	parts := strings.Split(s, "@")
	if len(parts) > 2 {
		return Handle{}, perr.MalformedHandlef("handle %q has too many @ separators", raw)
	}

	h := Handle{Username: canonical(parts[0])}
	if len(parts) == 2 {
		h.Domain = canonical(parts[1])
	}

	if !validUsername(h.Username) {
		return Handle{}, perr.MalformedHandlef("invalid username in handle %q", raw)
	}
	if len(parts) == 2 && !validDomain(h.Domain) {
		return Handle{}, perr.MalformedHandlef("invalid domain in handle %q", raw)
	}
	return h, nil
}

func validUsername(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

func validDomain(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == ':':
		default:
			return false
		}
	}
	return true
}
