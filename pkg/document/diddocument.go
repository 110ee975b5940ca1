/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

const (
	// ContextProperty defines key for context property.
	ContextProperty = "@context"

	// DIDServiceProperty defines key for the rendered service property.
	DIDServiceProperty = "service"

	// VerificationMethodProperty defines key for verification method.
	VerificationMethodProperty = "verificationMethod"

	// AuthenticationProperty defines key for authentication property.
	AuthenticationProperty = "authentication"

	// AssertionMethodProperty defines key for assertion method property.
	AssertionMethodProperty = "assertionMethod"

	// KeyAgreementProperty defines key for key agreement property.
	KeyAgreementProperty = "keyAgreement"

	// DelegationKeyProperty defines key for delegation key property.
	DelegationKeyProperty = "capabilityDelegation"

	// InvocationKeyProperty defines key for invocation key property.
	InvocationKeyProperty = "capabilityInvocation"
)

// DIDDocument is the rendered, externally visible form of a Document.
type DIDDocument map[string]interface{}

// DidDocumentFromJSONLDObject creates an instance of DIDDocument from json ld object.
func DidDocumentFromJSONLDObject(jsonldObject map[string]interface{}) DIDDocument {
	return jsonldObject
}

// ID is identifier for DID subject (what DID Document is about).
func (doc DIDDocument) ID() string {
	return stringEntry(doc[IDProperty])
}

// Context is the context of did document.
func (doc DIDDocument) Context() []interface{} {
	return interfaceArray(doc[ContextProperty])
}

// VerificationMethods are used for digital signatures, encryption and other cryptographic operations.
func (doc DIDDocument) VerificationMethods() []PublicKey {
	return ParsePublicKeys(doc[VerificationMethodProperty])
}

// Services is an array of service endpoints.
func (doc DIDDocument) Services() []Service {
	return ParseServices(doc[DIDServiceProperty])
}

// Authentications returns authentication array (mixture of strings and objects).
func (doc DIDDocument) Authentications() []interface{} {
	return interfaceArray(doc[AuthenticationProperty])
}

// AssertionMethods returns assertion method array (mixture of strings and objects).
func (doc DIDDocument) AssertionMethods() []interface{} {
	return interfaceArray(doc[AssertionMethodProperty])
}

// AgreementKeys returns agreement method array (mixture of strings and objects).
func (doc DIDDocument) AgreementKeys() []interface{} {
	return interfaceArray(doc[KeyAgreementProperty])
}

// DelegationKeys returns delegation method array (mixture of strings and objects).
func (doc DIDDocument) DelegationKeys() []interface{} {
	return interfaceArray(doc[DelegationKeyProperty])
}

// InvocationKeys returns invocation method array (mixture of strings and objects).
func (doc DIDDocument) InvocationKeys() []interface{} {
	return interfaceArray(doc[InvocationKeyProperty])
}

// JSONLdObject returns map that represents JSON LD Object.
func (doc DIDDocument) JSONLdObject() map[string]interface{} {
	return doc
}
