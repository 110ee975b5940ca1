/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patchvalidator

import (
	"errors"
	"fmt"

	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/patch"
)

// NewAddPublicKeysValidator creates new validator.
func NewAddPublicKeysValidator() *AddPublicKeysValidator {
	return &AddPublicKeysValidator{}
}

// AddPublicKeysValidator implements validator for "add-public-keys" patch.
type AddPublicKeysValidator struct {
}

// Validate validates patch.
func (v *AddPublicKeysValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	arr, err := getRequiredArray(value)
	if err != nil {
		return fmt.Errorf("invalid add public keys value: %s", err.Error())
	}

	publicKeys := document.ParsePublicKeys(value)
	if len(publicKeys) != len(arr) {
		return errors.New("invalid add public keys value: entries must be objects")
	}

	return document.ValidatePublicKeys(publicKeys)
}
