/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dochandler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/restapi/common"
)

var logger = log.New("sidetree-core-restapi-dochandler")

// Resolver resolves documents.
type Resolver interface {
	ResolveDocument(ctx context.Context, did string) (*document.ResolutionResult, error)
}

// ResolveHandler resolves generic documents.
type ResolveHandler struct {
	resolver Resolver
}

// NewResolveHandler returns a new document resolve handler.
func NewResolveHandler(resolver Resolver) *ResolveHandler {
	return &ResolveHandler{
		resolver: resolver,
	}
}

// Resolve resolves a document. A deactivated document is returned with 410 Gone.
func (o *ResolveHandler) Resolve(rw http.ResponseWriter, req *http.Request) {
	id := getID(req)

	logger.Debug("Resolving DID document", log.WithAddress(id))

	response, err := o.resolver.ResolveDocument(req.Context(), id)
	if err != nil {
		status := common.StatusFromError(err)

		if status >= http.StatusInternalServerError {
			logger.Error("Failed to resolve DID document", log.WithAddress(id), log.WithError(err))
		}

		common.WriteError(rw, status, err)

		return
	}

	if isDeactivated(response) {
		logger.Debug("Resolved deactivated DID document", log.WithAddress(id))

		common.WriteResponse(rw, http.StatusGone, response)

		return
	}

	common.WriteResponse(rw, http.StatusOK, response)
}

func isDeactivated(resolutionResult *document.ResolutionResult) bool {
	deactivated, ok := resolutionResult.DocumentMetadata[document.DeactivatedProperty].(bool)

	return ok && deactivated
}

var getID = func(req *http.Request) string {
	return mux.Vars(req)["id"]
}
