/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package diddochandler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trustbloc/sidetree-node-go/pkg/restapi/common"
)

// NewRouter registers the given handlers on a new router.
func NewRouter(handlers ...common.HTTPHandler) *mux.Router {
	router := mux.NewRouter()

	for _, h := range handlers {
		router.HandleFunc(h.Path(), h.Handler()).Methods(h.Method())
	}

	return router
}

// NewMetricsHandler returns a handler descriptor that serves the given metrics handler.
func NewMetricsHandler(path string, h http.Handler) common.HTTPHandler {
	return common.NewHTTPHandler(path, http.MethodGet, h.ServeHTTP)
}
