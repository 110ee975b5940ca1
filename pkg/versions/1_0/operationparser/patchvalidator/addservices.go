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

// NewAddServicesValidator creates new validator.
func NewAddServicesValidator() *AddServicesValidator {
	return &AddServicesValidator{}
}

// AddServicesValidator implements validator for "add-services" patch.
type AddServicesValidator struct {
}

// Validate validates patch.
func (v *AddServicesValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	arr, err := getRequiredArray(value)
	if err != nil {
		return fmt.Errorf("invalid add services value: %s", err.Error())
	}

	services := document.ParseServices(value)
	if len(services) != len(arr) {
		return errors.New("invalid add services value: entries must be objects")
	}

	return document.ValidateServices(services)
}
