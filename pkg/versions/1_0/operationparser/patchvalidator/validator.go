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

// Validate validates patch.
func Validate(p patch.Patch) error {
	action, err := p.GetAction()
	if err != nil {
		return err
	}

	switch action {
	case patch.Replace:
		return NewReplaceValidator().Validate(p)
	case patch.JSONPatch:
		return NewJSONValidator().Validate(p)
	case patch.AddPublicKeys:
		return NewAddPublicKeysValidator().Validate(p)
	case patch.RemovePublicKeys:
		return NewRemovePublicKeysValidator().Validate(p)
	case patch.AddServiceEndpoints:
		return NewAddServicesValidator().Validate(p)
	case patch.RemoveServiceEndpoints:
		return NewRemoveServicesValidator().Validate(p)
	}

	return fmt.Errorf("action '%s' is not supported", action)
}

func getRequiredArray(entry interface{}) ([]interface{}, error) {
	arr, ok := entry.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array of interfaces, got %T", entry)
	}

	if len(arr) == 0 {
		return nil, errors.New("required array is empty")
	}

	return arr, nil
}

func validateIds(entries []interface{}) error {
	ids := make(map[string]bool)

	for _, entry := range entries {
		id, ok := entry.(string)
		if !ok {
			return fmt.Errorf("id must be a string, got %T", entry)
		}

		if err := document.ValidateID(id); err != nil {
			return err
		}

		if ids[id] {
			return fmt.Errorf("duplicate id: %s", id)
		}

		ids[id] = true
	}

	return nil
}
