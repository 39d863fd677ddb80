// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "tidepool/internal/platform/net/http"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope

	// Response is the HTTP response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// Accepted returns a 202 response
func Accepted(data any) Response { return phttp.Accepted(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// URLParam returns a chi route parameter by name
func URLParam(r *http.Request, key string) string { return phttp.URLParam(r, key) }

// JSON wraps a JSON handler with bind + validation
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler {
	return phttp.JSONHandler(fn)
}

// Call adapts a handler that takes no JSON body
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.JSONHandlerNoBody(fn)
}

// Handle lets you directly adapt a Response-returning function if you prefer
func Handle(fn func(*http.Request) Response) Handler {
	return phttp.Handle(fn)
}
