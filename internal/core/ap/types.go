// Package ap defines the ActivityPub and WebFinger wire vocabulary this core
// speaks, plus deterministic activity identifier derivation
package ap

import "encoding/json"

// Context is the ActivityStreams JSON-LD context every outbound document carries
const Context = "https://www.w3.org/ns/activitystreams"

// Activity type tags
const (
	TypeFollow = "Follow"
	TypeUndo   = "Undo"
	TypeAccept = "Accept"
)

// Collection type tags
const (
	TypeOrderedCollection     = "OrderedCollection"
	TypeOrderedCollectionPage = "OrderedCollectionPage"
)

// WebFingerLink is one entry in a JRD links array
type WebFingerLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

// WebFingerResponse is the JRD document returned by /.well-known/webfinger
type WebFingerResponse struct {
	Subject string          `json:"subject"`
	Links   []WebFingerLink `json:"links"`
}

// ActivityJSONLink finds the link pointing at the actor profile document
func (w WebFingerResponse) ActivityJSONLink() (string, bool) {
	for _, l := range w.Links {
		if l.Type == "application/activity+json" && l.Href != "" {
			return l.Href, true
		}
	}
	return "", false
}

// Image is an actor icon or banner
type Image struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// PublicKey is the signing key block on an actor profile
type PublicKey struct {
	ID           string `json:"id,omitempty"`
	Owner        string `json:"owner,omitempty"`
	PublicKeyPem string `json:"publicKeyPem,omitempty"`
}

// Endpoints carries optional shared endpoints on an actor profile
type Endpoints struct {
	SharedInbox string `json:"sharedInbox,omitempty"`
}

// Actor is the profile document served at an actor's id URI
type Actor struct {
	AtContext         any        `json:"@context,omitempty"`
	ID                string     `json:"id"`
	Type              string     `json:"type,omitempty"`
	PreferredUsername string     `json:"preferredUsername"`
	Name              string     `json:"name,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	Inbox             string     `json:"inbox"`
	Outbox            string     `json:"outbox,omitempty"`
	Followers         string     `json:"followers,omitempty"`
	Following         string     `json:"following,omitempty"`
	Icon              *Image     `json:"icon,omitempty"`
	Endpoints         *Endpoints `json:"endpoints,omitempty"`
	PublicKey         *PublicKey `json:"publicKey,omitempty"`
}

// Collection is a loose view over OrderedCollection and OrderedCollectionPage
// documents; remote servers disagree on details so items stay raw until coerced
type Collection struct {
	AtContext    any               `json:"@context,omitempty"`
	ID           string            `json:"id,omitempty"`
	Type         string            `json:"type,omitempty"`
	TotalItems   *int              `json:"totalItems,omitempty"`
	First        json.RawMessage   `json:"first,omitempty"`
	Next         json.RawMessage   `json:"next,omitempty"`
	OrderedItems []json.RawMessage `json:"orderedItems,omitempty"`
}

// FirstURL returns the first-page link, tolerating both string and object forms
func (c Collection) FirstURL() string { return linkURL(c.First) }

// NextURL returns the next-page link, tolerating both string and object forms
func (c Collection) NextURL() string { return linkURL(c.Next) }

// ItemURIs coerces orderedItems into URIs: plain strings pass through,
// embedded objects contribute their id
func (c Collection) ItemURIs() []string {
	out := make([]string, 0, len(c.OrderedItems))
	for _, raw := range c.OrderedItems {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
			out = append(out, obj.ID)
		}
	}
	return out
}

// linkURL unwraps a link that may be a bare string or an object with id/href
func linkURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		ID   string `json:"id"`
		Href string `json:"href"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.ID != "" {
			return obj.ID
		}
		return obj.Href
	}
	return ""
}

// Activity is an outbound Follow/Undo document
type Activity struct {
	AtContext any    `json:"@context"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Actor     string `json:"actor"`
	Object    any    `json:"object,omitempty"`
	To        []string `json:"to,omitempty"`
}

// ActivityIn is an inbound activity as received on an inbox
type ActivityIn struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Actor  string          `json:"actor"`
	Object json.RawMessage `json:"object,omitempty"`
}

// ObjectURI unwraps the object as a URI: bare string or embedded object id
func (a ActivityIn) ObjectURI() string { return linkURL(a.Object) }
