/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package diddochandler DID document API.
//
//
// Terms Of Service:
//
//     Schemes: http, https
//     Host: 127.0.0.1:48326
//     Version: 1.0.0
//     License: SPDX-License-Identifier: Apache-2.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/did+ld+json
//
// swagger:meta
package diddochandler

import (
	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/restapi/model"
)

// swagger:route POST /sidetree/v1/operations submit-operation request
// Submits a create, update, recover or deactivate operation.
// Responses:
//    default: error
//        200: response

// Resolve swagger:route GET /sidetree/v1/identifiers/{id} resolve-did-document resolveDocParams
// Resolves a DID document by short-form or long-form DID.
// Responses:
//    default: error
//        200: response
//        410: response

// Contains the operation request.
//swagger:parameters request
//nolint:deadcode,unused
type requestWrapper struct {
	// The operation request.
	//
	// required: true
	// in: body
	Body map[string]interface{}
}

// Contains the resolution result.
//swagger:response response
//nolint:deadcode,unused
type responseWrapper struct {
	// The body of the response.
	//
	// required: true
	// in: body
	Body document.ResolutionResult
}

// Contains the error.
//swagger:response error
//nolint:deadcode,unused
type errorWrapper struct {
	// The error.
	//
	// required: true
	// in: body
	Body model.Error
}

// resolveDocumentParams model
// This is used for getting specific DID document
//
//swagger:parameters resolveDocParams
//nolint:deadcode,unused
type resolveDocumentParams struct {
	// The short-form DID or the long-form DID that embeds the create request.
	//
	// in: path
	// required: true
	ID string `json:"id"`
}
