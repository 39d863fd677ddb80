package httpkit

import "net/http"

// Get registers a no-body handler and uses the envelope adapter
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// Post registers a no-body handler and uses the envelope adapter
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, Call(h))
}

// PostJSON mounts a bound-and-validated JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, JSON(h))
}

// PostRaw mounts a plain Response handler under POST (no bind, body read by handler)
func PostRaw(r Router, path string, h func(*http.Request) Response) {
	r.Post(path, Handle(h))
}
