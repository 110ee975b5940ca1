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

// NewReplaceValidator creates new validator.
func NewReplaceValidator() *ReplaceValidator {
	return &ReplaceValidator{}
}

// ReplaceValidator implements validator for "replace" patch.
type ReplaceValidator struct {
}

// Validate validates patch.
func (v *ReplaceValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	entry, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid replace document value: expected object, got %T", value)
	}

	doc := document.ReplaceDocumentFromJSONLDObject(entry)

	allowed := map[string]bool{
		document.ReplacePublicKeyProperty: true,
		document.ReplaceServiceProperty:   true,
	}

	for key := range doc {
		if !allowed[key] {
			return fmt.Errorf("key '%s' is not allowed in replace document", key)
		}
	}

	if err := validateOptionalArray(doc[document.ReplacePublicKeyProperty], len(doc.PublicKeys())); err != nil {
		return fmt.Errorf("invalid replace public keys: %s", err.Error())
	}

	if err := document.ValidatePublicKeys(doc.PublicKeys()); err != nil {
		return err
	}

	if err := validateOptionalArray(doc[document.ReplaceServiceProperty], len(doc.Services())); err != nil {
		return fmt.Errorf("invalid replace services: %s", err.Error())
	}

	return document.ValidateServices(doc.Services())
}

// validateOptionalArray allows a missing entry, otherwise it must be an array of parsed objects.
func validateOptionalArray(entry interface{}, parsed int) error {
	if entry == nil {
		return nil
	}

	arr, ok := entry.([]interface{})
	if !ok {
		return fmt.Errorf("expected array, got %T", entry)
	}

	if len(arr) != parsed {
		return errors.New("entries must be objects")
	}

	return nil
}
