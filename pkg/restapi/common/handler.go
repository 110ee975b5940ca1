/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"net/http"

	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

var logger = log.New("sidetree-core-restapi-common")

// HTTPRequestHandler is an HTTP handler
type HTTPRequestHandler func(http.ResponseWriter, *http.Request)

// HTTPHandler is a HTTP handler descriptor containing the context path, method, and request handler
type HTTPHandler interface {
	Path() string
	Method() string
	Handler() HTTPRequestHandler
}

type handler struct {
	path       string
	method     string
	reqHandler HTTPRequestHandler
}

// NewHTTPHandler returns a handler descriptor for the given path and method.
func NewHTTPHandler(path, method string, reqHandler HTTPRequestHandler) HTTPHandler {
	return &handler{
		path:       path,
		method:     method,
		reqHandler: reqHandler,
	}
}

// Path returns the context path
func (h *handler) Path() string {
	return h.path
}

// Method returns the HTTP method
func (h *handler) Method() string {
	return h.method
}

// Handler returns the handler
func (h *handler) Handler() HTTPRequestHandler {
	return h.reqHandler
}
