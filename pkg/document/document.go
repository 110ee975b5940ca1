/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
)

const (
	// IDProperty describes id key.
	IDProperty = "id"

	// PublicKeyProperty describes the internal public keys property.
	PublicKeyProperty = "publicKeys"

	// ServiceProperty describes the internal services property.
	ServiceProperty = "services"

	// NamespaceDelimiter separates the namespace from the unique suffix in a DID.
	NamespaceDelimiter = ":"
)

// Document defines the internal (pre-rendering) document: the state that patches operate on.
type Document map[string]interface{}

// FromBytes creates an instance of Document by reading a JSON document from bytes.
func FromBytes(data []byte) (Document, error) {
	doc := make(Document)

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// FromJSONLDObject creates an instance of Document from json ld object.
func FromJSONLDObject(jsonldObject map[string]interface{}) Document {
	return jsonldObject
}

// ID is document identifier.
func (doc Document) ID() string {
	return stringEntry(doc[IDProperty])
}

// PublicKeys returns the document public keys.
func (doc Document) PublicKeys() []PublicKey {
	return ParsePublicKeys(doc[PublicKeyProperty])
}

// Services returns the document services.
func (doc Document) Services() []Service {
	return ParseServices(doc[ServiceProperty])
}

// GetStringValue returns string value for specified key or "" if not found or wrong type.
func (doc Document) GetStringValue(key string) string {
	return stringEntry(doc[key])
}

// Bytes returns the canonical byte representation of the document.
func (doc Document) Bytes() ([]byte, error) {
	return canonicalizer.MarshalCanonical(doc)
}

// JSONLdObject returns map that represents JSON LD Object.
func (doc Document) JSONLdObject() map[string]interface{} {
	return doc
}

// ParsePublicKeys is helper function for parsing public keys.
func ParsePublicKeys(entry interface{}) []PublicKey {
	var result []PublicKey

	for _, e := range interfaceArray(entry) {
		emap, ok := e.(map[string]interface{})
		if !ok {
			continue
		}

		result = append(result, NewPublicKey(emap))
	}

	return result
}

// ParseServices is utility for parsing array of service endpoints.
func ParseServices(entry interface{}) []Service {
	var result []Service

	for _, e := range interfaceArray(entry) {
		emap, ok := e.(map[string]interface{})
		if !ok {
			continue
		}

		result = append(result, NewService(emap))
	}

	return result
}

// StringArray is utility function to return string array from interface.
func StringArray(entry interface{}) []string {
	var result []string

	for _, e := range interfaceArray(entry) {
		val, ok := e.(string)
		if !ok {
			continue
		}

		result = append(result, val)
	}

	return result
}

func stringEntry(entry interface{}) string {
	if entry == nil {
		return ""
	}

	id, ok := entry.(string)
	if !ok {
		return ""
	}

	return id
}

func interfaceArray(entry interface{}) []interface{} {
	if entry == nil {
		return nil
	}

	entries, ok := entry.([]interface{})
	if !ok {
		return nil
	}

	return entries
}
