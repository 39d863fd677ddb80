package fediverse

import (
	"context"
	"net/url"

	"tidepool/internal/core/ap"
)

// WebFinger queries domain's /.well-known/webfinger for acct:username@domain
func (c *Client) WebFinger(ctx context.Context, username, domain string) (ap.WebFingerResponse, error) {
	u := "https://" + domain + "/.well-known/webfinger?resource=" +
		url.QueryEscape("acct:"+username+"@"+domain)
	var wf ap.WebFingerResponse
	err := c.GetJSON(ctx, u, AcceptJRD, &wf)
	return wf, err
}

// Actor fetches the profile document at an actor URI
func (c *Client) Actor(ctx context.Context, uri string) (ap.Actor, error) {
	var a ap.Actor
	err := c.GetJSON(ctx, uri, AcceptActivityJSON, &a)
	return a, err
}

// Collection fetches an OrderedCollection or OrderedCollectionPage document
func (c *Client) Collection(ctx context.Context, uri string) (ap.Collection, error) {
	var col ap.Collection
	err := c.GetJSON(ctx, uri, AcceptActivityJSON, &col)
	return col, err
}
