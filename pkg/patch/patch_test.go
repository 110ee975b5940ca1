/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/document"
)

func TestFromBytes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p, err := FromBytes([]byte(replacePatch))
		require.NoError(t, err)
		require.NotNil(t, p)

		action, err := p.GetAction()
		require.NoError(t, err)
		require.Equal(t, Replace, action)

		bytes, err := p.Bytes()
		require.NoError(t, err)
		require.NotEmpty(t, bytes)

		require.NotNil(t, p.JSONLdObject())
	})

	t.Run("error - replace patch is missing document", func(t *testing.T) {
		p, err := FromBytes([]byte(`{"action": "replace"}`))
		require.Error(t, err)
		require.Nil(t, p)
		require.Contains(t, err.Error(), "replace patch is missing key: document")
	})

	t.Run("error - invalid character", func(t *testing.T) {
		p, err := FromBytes([]byte("[test : 123]"))
		require.Error(t, err)
		require.Nil(t, p)
		require.Contains(t, err.Error(), "invalid character")
	})

	t.Run("error - missing action", func(t *testing.T) {
		p, err := FromBytes([]byte(`{}`))
		require.Error(t, err)
		require.Nil(t, p)
		require.Contains(t, err.Error(), "patch is missing action key")
	})

	t.Run("error - action is not a string", func(t *testing.T) {
		p, err := FromBytes([]byte(`{"action": 10}`))
		require.Error(t, err)
		require.Nil(t, p)
		require.Contains(t, err.Error(), "action type not supported")
	})

	t.Run("error - action not supported", func(t *testing.T) {
		p, err := FromBytes([]byte(`{"action": "invalid"}`))
		require.Error(t, err)
		require.Nil(t, p)
		require.Contains(t, err.Error(), "action 'invalid' is not supported")
	})
}

func TestPatchesFromDocument(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		patches, err := PatchesFromDocument(testDoc)
		require.NoError(t, err)
		require.Len(t, patches, 2)

		action, err := patches[0].GetAction()
		require.NoError(t, err)
		require.Equal(t, AddPublicKeys, action)

		action, err = patches[1].GetAction()
		require.NoError(t, err)
		require.Equal(t, AddServiceEndpoints, action)
	})

	t.Run("success - empty document", func(t *testing.T) {
		patches, err := PatchesFromDocument(`{}`)
		require.NoError(t, err)
		require.Empty(t, patches)
	})

	t.Run("error - document has id", func(t *testing.T) {
		patches, err := PatchesFromDocument(`{"id": "abc"}`)
		require.Error(t, err)
		require.Nil(t, patches)
		require.Contains(t, err.Error(), "document must NOT have the id property")
	})

	t.Run("error - not json", func(t *testing.T) {
		patches, err := PatchesFromDocument(`invalid`)
		require.Error(t, err)
		require.Nil(t, patches)
	})
}

func TestNewPatches(t *testing.T) {
	t.Run("replace", func(t *testing.T) {
		p, err := NewReplacePatch(testDoc)
		require.NoError(t, err)

		value, err := p.GetValue()
		require.NoError(t, err)

		doc := document.ReplaceDocumentFromJSONLDObject(value.(map[string]interface{}))
		require.Len(t, doc.PublicKeys(), 1)
		require.Len(t, doc.Services(), 1)

		_, err = NewReplacePatch("invalid")
		require.Error(t, err)
	})

	t.Run("ietf-json-patch", func(t *testing.T) {
		p, err := NewJSONPatch(`[{"op": "replace", "path": "/name", "value": "Jane"}]`)
		require.NoError(t, err)

		value, err := p.GetValue()
		require.NoError(t, err)
		require.Len(t, value, 1)

		_, err = NewJSONPatch(`{}`)
		require.Error(t, err)
	})

	t.Run("add public keys", func(t *testing.T) {
		p, err := NewAddPublicKeysPatch(`[{"id": "key1"}]`)
		require.NoError(t, err)

		value, err := p.GetValue()
		require.NoError(t, err)
		require.Len(t, document.ParsePublicKeys(value), 1)

		_, err = NewAddPublicKeysPatch(`invalid`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "public keys invalid")
	})

	t.Run("remove public keys", func(t *testing.T) {
		p, err := NewRemovePublicKeysPatch(`["key1", "key2"]`)
		require.NoError(t, err)

		value, err := p.GetValue()
		require.NoError(t, err)
		require.Equal(t, []string{"key1", "key2"}, document.StringArray(value))

		_, err = NewRemovePublicKeysPatch(`[]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing public key ids")

		_, err = NewRemovePublicKeysPatch(`[1]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "public key ids not string array")
	})

	t.Run("add services", func(t *testing.T) {
		p, err := NewAddServiceEndpointsPatch(`[{"id": "svc1"}]`)
		require.NoError(t, err)

		value, err := p.GetValue()
		require.NoError(t, err)
		require.Len(t, document.ParseServices(value), 1)

		_, err = NewAddServiceEndpointsPatch(`{}`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "services invalid")
	})

	t.Run("remove services", func(t *testing.T) {
		p, err := NewRemoveServiceEndpointsPatch(`["svc1"]`)
		require.NoError(t, err)

		action, err := p.GetAction()
		require.NoError(t, err)
		require.Equal(t, RemoveServiceEndpoints, action)

		_, err = NewRemoveServiceEndpointsPatch(`[]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing service ids")

		_, err = NewRemoveServiceEndpointsPatch(`"svc1"`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "service ids not string array")
	})
}

const replacePatch = `{
	"action": "replace",
	"document": {
		"publicKeys": [],
		"services": []
	}
}`

const testDoc = `{
	"publicKeys": [{
		"id": "key1",
		"type": "JsonWebKey2020",
		"purposes": ["authentication"],
		"publicKeyJwk": {
			"kty": "EC",
			"crv": "P-256",
			"x": "PUymIqdtF_qxaAqPABSw-C-owT1KYYQbsMKFM-L9fJA",
			"y": "nM84jDHCMOTGTh_ZdHq4dBBdo4Z5PkEOW9jA8z8IsGc"
		}
	}],
	"services": [{
		"id": "svc1",
		"type": "LinkedDomains",
		"serviceEndpoint": "https://example.com"
	}]
}`
