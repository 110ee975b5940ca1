/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"encoding/json"
	"net/http"

	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/restapi/model"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const internalServerError = "internal server error"

// WriteResponse writes a response to the response writer
func WriteResponse(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/did+ld+json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logger.Error("Unable to write response", log.WithError(err))
	}
}

// WriteError writes an error to the response writer. Typed errors carry their code. The details of
// server errors are not returned to the client.
func WriteError(rw http.ResponseWriter, status int, err error) {
	e := &model.Error{Message: err.Error()}

	if code, ok := sidetreeerr.CodeOf(err); ok {
		e.Code = string(code)
	}

	if status >= http.StatusInternalServerError {
		e = &model.Error{Message: internalServerError}
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(e); err != nil {
		logger.Error("Unable to write response", log.WithError(err))
	}
}

// StatusFromError maps an error to an HTTP status: typed errors are client errors, a missing document is
// not found and anything else is a server error.
func StatusFromError(err error) int {
	code, ok := sidetreeerr.CodeOf(err)

	switch {
	case !ok:
		return http.StatusInternalServerError
	case code == sidetreeerr.NotFound:
		return http.StatusNotFound
	case code == sidetreeerr.VersionNotFound:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
