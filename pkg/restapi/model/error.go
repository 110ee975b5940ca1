/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

// Error contains the error message
// swagger:response error
type Error struct {
	// code of a typed error (empty for unexpected errors)
	Code string `json:"code,omitempty"`

	// message
	// Required: true
	Message string `json:"message"`
}
