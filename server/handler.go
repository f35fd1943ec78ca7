package server

import "net/http"

// RequestHandler binds a named handler to a path and set of methods.
type RequestHandler struct {
	Name    string
	Path    string
	Methods []string
	Handler http.Handler
}

func NewRequestHandler(name string, handler http.Handler, path string, methods []string) RequestHandler {
	return RequestHandler{
		Name:    name,
		Path:    path,
		Methods: methods,
		Handler: handler,
	}
}
