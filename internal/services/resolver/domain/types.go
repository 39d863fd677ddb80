// Package domain defines the core types and interfaces for the resolver service
package domain

import (
	"net/url"

	"tidepool/internal/core/ap"
)

// Source records where a descriptor came from
type Source string

const (
	// SourceLocal marks actors homed on this instance
	SourceLocal Source = "local"

	// SourceRemote marks actors discovered over WebFinger
	SourceRemote Source = "remote"
)

// ActorDescriptor is the resolved view of an actor, local or remote
type ActorDescriptor struct {
	// ID is the canonical actor URI and the identity of the row
	ID string `json:"id"`

	// Handle is the canonical user@domain form
	Handle string `json:"handle"`

	InboxURL       string  `json:"inbox_url"`
	SharedInboxURL *string `json:"shared_inbox_url,omitempty"`
	DisplayName    *string `json:"display_name,omitempty"`
	Summary        *string `json:"summary,omitempty"`
	IconURL        *string `json:"icon_url,omitempty"`
	PublicKeyPEM   *string `json:"public_key_pem,omitempty"`

	Source Source `json:"source"`
}

// DeliveryInbox prefers the shared inbox when the profile advertises one
func (d ActorDescriptor) DeliveryInbox() string {
	if d.SharedInboxURL != nil && *d.SharedInboxURL != "" {
		return *d.SharedInboxURL
	}
	return d.InboxURL
}

// DescriptorFromActor maps a fetched profile document to a remote descriptor.
// The handle domain comes from the hostname of the profile's own id, not from
// whatever domain the caller typed; the id is the authority on where an actor lives
func DescriptorFromActor(a ap.Actor) (ActorDescriptor, bool) {
	u, err := url.Parse(a.ID)
	if err != nil || u.Host == "" || a.PreferredUsername == "" || a.Inbox == "" {
		return ActorDescriptor{}, false
	}
	d := ActorDescriptor{
		ID:       a.ID,
		Handle:   a.PreferredUsername + "@" + u.Host,
		InboxURL: a.Inbox,
		Source:   SourceRemote,
	}
	if a.Endpoints != nil && a.Endpoints.SharedInbox != "" {
		d.SharedInboxURL = &a.Endpoints.SharedInbox
	}
	if a.Name != "" {
		d.DisplayName = &a.Name
	}
	if a.Summary != "" {
		d.Summary = &a.Summary
	}
	if a.Icon != nil && a.Icon.URL != "" {
		d.IconURL = &a.Icon.URL
	}
	if a.PublicKey != nil && a.PublicKey.PublicKeyPem != "" {
		d.PublicKeyPEM = &a.PublicKey.PublicKeyPem
	}
	return d, true
}
