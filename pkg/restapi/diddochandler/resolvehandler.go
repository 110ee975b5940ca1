/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package diddochandler

import (
	"fmt"
	"net/http"

	"github.com/trustbloc/sidetree-node-go/pkg/restapi/common"
	"github.com/trustbloc/sidetree-node-go/pkg/restapi/dochandler"
)

// ResolveHandler resolves DID documents.
type ResolveHandler struct {
	common.HTTPHandler
}

// NewResolveHandler returns a new DID document resolve handler.
func NewResolveHandler(basePath string, resolver dochandler.Resolver) *ResolveHandler {
	return &ResolveHandler{
		HTTPHandler: common.NewHTTPHandler(
			fmt.Sprintf("%s/identifiers/{id}", basePath),
			http.MethodGet,
			dochandler.NewResolveHandler(resolver).Resolve,
		),
	}
}
