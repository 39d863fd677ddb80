// Package fed holds the federation context for this instance
//
// The context is an explicitly constructed value owned by main and passed
// through module deps; there is no process-wide federation singleton
package fed

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Signer adds authentication to an outbound federation request before it is
// sent. Delivery installs an HTTP signature signer here; fetches go unsigned
type Signer interface {
	Sign(req *http.Request) error
}

// Context carries the identity of this instance on the fediverse
type Context struct {
	// Origin is the canonical base URL, e.g. https://tidepool.example (no trailing slash)
	Origin string

	// Domain is the hostname of Origin, used in handles
	Domain string

	// KeyID names the signing key handed to the delivery transport
	// signing itself is provided by the federation runtime, not this core
	KeyID string
}

// New builds a Context from an origin URL and key id
func New(origin, keyID string) (Context, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Context{}, fmt.Errorf("fed: invalid origin %q", origin)
	}
	return Context{
		Origin: strings.TrimRight(origin, "/"),
		Domain: u.Host,
		KeyID:  keyID,
	}, nil
}

// ActorURI derives the canonical actor URI for a local username
func (c Context) ActorURI(username string) string {
	return c.Origin + "/" + username
}

// InboxURI derives the inbox URI for a local username
func (c Context) InboxURI(username string) string {
	return c.ActorURI(username) + "/inbox"
}

// CollectionURI derives the followers/following/outbox URI for a local username
func (c Context) CollectionURI(username, kind string) string {
	return c.ActorURI(username) + "/" + kind
}

// Handle derives the user@domain handle for a local username
func (c Context) Handle(username string) string {
	return username + "@" + c.Domain
}
