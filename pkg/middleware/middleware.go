// Package middleware provides the HTTP middleware stack shared by the
// service's mounted modules, along with CORS and request logging.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// System manages an ordered stack of middleware.
type System interface {
	// Use appends a middleware to the stack.
	Use(mw Middleware)
	// Apply wraps handler with the stack; the first middleware registered
	// is the outermost wrapper.
	Apply(handler http.Handler) http.Handler
}

type system struct {
	stack []Middleware
}

// New creates an empty middleware System.
func New() System {
	return &system{}
}

func (s *system) Use(mw Middleware) {
	s.stack = append(s.stack, mw)
}

func (s *system) Apply(handler http.Handler) http.Handler {
	for i := len(s.stack) - 1; i >= 0; i-- {
		handler = s.stack[i](handler)
	}
	return handler
}
