/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patch

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
)

// Action defines action of document patch.
type Action string

const (
	// Replace captures enum value "replace".
	Replace Action = "replace"

	// AddPublicKeys captures enum value "add-public-keys".
	AddPublicKeys Action = "add-public-keys"

	// RemovePublicKeys captures enum value "remove-public-keys".
	RemovePublicKeys Action = "remove-public-keys"

	// AddServiceEndpoints captures "add-services".
	AddServiceEndpoints Action = "add-services"

	// RemoveServiceEndpoints captures "remove-services".
	RemoveServiceEndpoints Action = "remove-services"

	// JSONPatch captures enum value "json-patch".
	JSONPatch Action = "ietf-json-patch"
)

// Key defines key that will be used to get document patch information.
type Key string

const (
	// DocumentKey captures "document" key.
	DocumentKey Key = "document"

	// PatchesKey captures "patches" key.
	PatchesKey Key = "patches"

	// PublicKeys captures "publicKeys" key.
	PublicKeys Key = "publicKeys"

	// ServicesKey captures "services" key.
	ServicesKey Key = "services"

	// IdsKey captures "ids" key.
	IdsKey Key = "ids"

	// ActionKey captures "action" key.
	ActionKey Key = "action"
)

var actionConfig = map[Action]Key{
	Replace:                DocumentKey,
	JSONPatch:              PatchesKey,
	AddPublicKeys:          PublicKeys,
	RemovePublicKeys:       IdsKey,
	AddServiceEndpoints:    ServicesKey,
	RemoveServiceEndpoints: IdsKey,
}

// Patch defines generic patch structure.
type Patch map[Key]interface{}

// PatchesFromDocument creates patches from opaque document.
func PatchesFromDocument(doc string) ([]Patch, error) {
	parsed, err := document.FromBytes([]byte(doc))
	if err != nil {
		return nil, err
	}

	if err := validateDocument(parsed); err != nil {
		return nil, err
	}

	var docPatches []Patch

	if len(parsed.PublicKeys()) > 0 {
		publicKeys, err := json.Marshal(parsed[document.PublicKeyProperty])
		if err != nil {
			return nil, err
		}

		p, err := NewAddPublicKeysPatch(string(publicKeys))
		if err != nil {
			return nil, err
		}

		docPatches = append(docPatches, p)
	}

	if len(parsed.Services()) > 0 {
		services, err := json.Marshal(parsed[document.ServiceProperty])
		if err != nil {
			return nil, err
		}

		p, err := NewAddServiceEndpointsPatch(string(services))
		if err != nil {
			return nil, err
		}

		docPatches = append(docPatches, p)
	}

	return docPatches, nil
}

// NewReplacePatch creates new replace patch.
func NewReplacePatch(doc string) (Patch, error) {
	parsed, err := document.ReplaceDocumentFromBytes([]byte(doc))
	if err != nil {
		return nil, err
	}

	p := make(Patch)
	p[ActionKey] = Replace
	p[DocumentKey] = parsed.JSONLdObject()

	return p, nil
}

// NewJSONPatch creates new generic update patch (will be used for generic updates).
func NewJSONPatch(patches string) (Patch, error) {
	var generic []interface{}

	err := json.Unmarshal([]byte(patches), &generic)
	if err != nil {
		return nil, err
	}

	p := make(Patch)
	p[ActionKey] = JSONPatch
	p[PatchesKey] = generic

	return p, nil
}

// NewAddPublicKeysPatch creates new patch for adding public keys.
func NewAddPublicKeysPatch(publicKeys string) (Patch, error) {
	pubKeys, err := getPublicKeys(publicKeys)
	if err != nil {
		return nil, err
	}

	p := make(Patch)
	p[ActionKey] = AddPublicKeys
	p[PublicKeys] = pubKeys

	return p, nil
}

// NewRemovePublicKeysPatch creates new patch for removing public keys.
func NewRemovePublicKeysPatch(publicKeyIds string) (Patch, error) {
	ids, err := getStringArray(publicKeyIds)
	if err != nil {
		return nil, fmt.Errorf("public key ids not string array: %s", err.Error())
	}

	if len(ids) == 0 {
		return nil, errors.New("missing public key ids")
	}

	p := make(Patch)
	p[ActionKey] = RemovePublicKeys
	p[IdsKey] = getGenericArray(ids)

	return p, nil
}

// NewAddServiceEndpointsPatch creates new patch for adding service endpoints.
func NewAddServiceEndpointsPatch(serviceEndpoints string) (Patch, error) {
	services, err := getServices(serviceEndpoints)
	if err != nil {
		return nil, err
	}

	p := make(Patch)
	p[ActionKey] = AddServiceEndpoints
	p[ServicesKey] = services

	return p, nil
}

// NewRemoveServiceEndpointsPatch creates new patch for removing service endpoints.
func NewRemoveServiceEndpointsPatch(serviceEndpointIds string) (Patch, error) {
	ids, err := getStringArray(serviceEndpointIds)
	if err != nil {
		return nil, fmt.Errorf("service ids not string array: %s", err.Error())
	}

	if len(ids) == 0 {
		return nil, errors.New("missing service ids")
	}

	p := make(Patch)
	p[ActionKey] = RemoveServiceEndpoints
	p[IdsKey] = getGenericArray(ids)

	return p, nil
}

// GetValue returns value for the patch action or an error if the value is missing.
func (p Patch) GetValue() (interface{}, error) {
	action, err := p.GetAction()
	if err != nil {
		return nil, err
	}

	valueKey, ok := actionConfig[action]
	if !ok {
		return nil, fmt.Errorf("action '%s' is not supported", action)
	}

	entry, ok := p[valueKey]
	if !ok {
		return nil, fmt.Errorf("%s patch is missing key: %s", action, valueKey)
	}

	return entry, nil
}

// GetAction returns patch action.
func (p Patch) GetAction() (Action, error) {
	entry, ok := p[ActionKey]
	if !ok {
		return "", fmt.Errorf("patch is missing %s key", ActionKey)
	}

	switch v := entry.(type) {
	case Action:
		return v, nil
	case string:
		return Action(v), nil
	}

	return "", fmt.Errorf("action type not supported: %T", entry)
}

// Bytes returns the canonical byte representation of patch.
func (p Patch) Bytes() ([]byte, error) {
	return canonicalizer.MarshalCanonical(p)
}

// JSONLdObject returns map that represents JSON LD Object.
func (p Patch) JSONLdObject() map[Key]interface{} {
	return p
}

// FromBytes parses provided data into document patch.
func FromBytes(data []byte) (Patch, error) {
	p := make(Patch)

	err := json.Unmarshal(data, &p)
	if err != nil {
		return nil, err
	}

	_, err = p.GetAction()
	if err != nil {
		return nil, err
	}

	_, err = p.GetValue()
	if err != nil {
		return nil, err
	}

	return p, nil
}

func validateDocument(doc document.Document) error {
	if doc.ID() != "" {
		return errors.New("document must NOT have the id property")
	}

	return nil
}

func getPublicKeys(publicKeys string) (interface{}, error) {
	var pubKeys []interface{}

	err := json.Unmarshal([]byte(publicKeys), &pubKeys)
	if err != nil {
		return nil, errors.Wrap(err, "public keys invalid")
	}

	return pubKeys, nil
}

func getServices(serviceEndpoints string) (interface{}, error) {
	var services []interface{}

	err := json.Unmarshal([]byte(serviceEndpoints), &services)
	if err != nil {
		return nil, errors.Wrap(err, "services invalid")
	}

	return services, nil
}

func getStringArray(arr string) ([]string, error) {
	var values []string

	err := json.Unmarshal([]byte(arr), &values)
	if err != nil {
		return nil, err
	}

	return values, nil
}

func getGenericArray(arr []string) []interface{} {
	var values []interface{}
	for _, v := range arr {
		values = append(values, v)
	}

	return values
}
