/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/pkg/errors"
)

var asciiRegex = regexp.MustCompile("^[A-Za-z0-9_-]+$")

const (
	// KeyPurposeAuthentication defines key purpose as authentication key.
	KeyPurposeAuthentication = "authentication"
	// KeyPurposeAssertionMethod defines key purpose as assertion key.
	KeyPurposeAssertionMethod = "assertionMethod"
	// KeyPurposeKeyAgreement defines key purpose as agreement key.
	KeyPurposeKeyAgreement = "keyAgreement"
	// KeyPurposeCapabilityDelegation defines key purpose as delegation key.
	KeyPurposeCapabilityDelegation = "capabilityDelegation"
	// KeyPurposeCapabilityInvocation defines key purpose as invocation key.
	KeyPurposeCapabilityInvocation = "capabilityInvocation"

	// MaxIDLength is the maximum length of public key and service ids.
	MaxIDLength = 50

	maxServiceTypeLength     = 30
	maxServiceEndpointLength = 100
)

var allowedPurposes = map[string]bool{
	KeyPurposeAuthentication:       true,
	KeyPurposeAssertionMethod:      true,
	KeyPurposeKeyAgreement:         true,
	KeyPurposeCapabilityDelegation: true,
	KeyPurposeCapabilityInvocation: true,
}

var allowedPublicKeyProperties = map[string]bool{
	IDProperty:           true,
	TypeProperty:         true,
	PurposesProperty:     true,
	PublicKeyJwkProperty: true,
}

var allowedServiceProperties = map[string]bool{
	IDProperty:              true,
	TypeProperty:            true,
	ServiceEndpointProperty: true,
}

// ValidatePublicKeys validates public keys.
func ValidatePublicKeys(pubKeys []PublicKey) error {
	ids := make(map[string]bool)

	for _, pubKey := range pubKeys {
		for key := range pubKey {
			if !allowedPublicKeyProperties[key] {
				return fmt.Errorf("key '%s' is not allowed in public key", key)
			}
		}

		kid := pubKey.ID()
		if err := ValidateID(kid); err != nil {
			return errors.Wrap(err, "public key")
		}

		if ids[kid] {
			return fmt.Errorf("duplicate public key id: %s", kid)
		}

		ids[kid] = true

		if pubKey.Type() == "" {
			return fmt.Errorf("public key '%s' is missing type", kid)
		}

		if err := validateKeyPurposes(pubKey); err != nil {
			return err
		}

		if err := ValidateJWK(pubKey.PublicKeyJwk()); err != nil {
			return err
		}
	}

	return nil
}

// ValidateID validates id.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id is missing")
	}

	if len(id) > MaxIDLength {
		return fmt.Errorf("id exceeds maximum length: %d", MaxIDLength)
	}

	if !asciiRegex.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateServices validates services.
func ValidateServices(services []Service) error {
	ids := make(map[string]bool)

	for _, service := range services {
		if err := validateService(service); err != nil {
			return err
		}

		if ids[service.ID()] {
			return fmt.Errorf("duplicate service id: %s", service.ID())
		}

		ids[service.ID()] = true
	}

	return nil
}

func validateService(service Service) error {
	for key := range service {
		if !allowedServiceProperties[key] {
			return fmt.Errorf("key '%s' is not allowed in service", key)
		}
	}

	if err := ValidateID(service.ID()); err != nil {
		return errors.Wrap(err, "service")
	}

	if err := validateServiceType(service.Type()); err != nil {
		return err
	}

	return validateServiceEndpoint(service.Endpoint())
}

func validateServiceType(serviceType interface{}) error {
	str, ok := serviceType.(string)
	if !ok || str == "" {
		return errors.New("service type is missing or not a string")
	}

	if len(str) > maxServiceTypeLength {
		return fmt.Errorf("service type exceeds maximum length: %d", maxServiceTypeLength)
	}

	return nil
}

func validateServiceEndpoint(serviceEndpoint interface{}) error {
	switch endpoint := serviceEndpoint.(type) {
	case nil:
		return errors.New("service endpoint is missing")
	case map[string]interface{}:
		if len(endpoint) == 0 {
			return errors.New("service endpoint object is empty")
		}

		return nil
	case string:
		if len(endpoint) > maxServiceEndpointLength {
			return fmt.Errorf("service endpoint exceeds maximum length: %d", maxServiceEndpointLength)
		}

		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return fmt.Errorf("service endpoint is not valid URI: %s", err.Error())
		}

		return nil
	default:
		return fmt.Errorf("service endpoint type %T is not supported", serviceEndpoint)
	}
}

// ValidateJWK validates JWK.
func ValidateJWK(jwk JWK) error {
	if jwk == nil {
		return errors.New("key has to be in JWK format")
	}

	if jwk.Kty() == "" {
		return errors.New("JWK kty is missing")
	}

	if jwk.Crv() == "" {
		return errors.New("JWK crv is missing")
	}

	if jwk.X() == "" {
		return errors.New("JWK x is missing")
	}

	return nil
}

func validateKeyPurposes(pubKey PublicKey) error {
	raw, ok := pubKey[PurposesProperty]
	if !ok {
		return nil
	}

	arr, isArray := raw.([]interface{})
	if !isArray {
		return fmt.Errorf("public key '%s' purposes must be an array", pubKey.ID())
	}

	purposes := pubKey.Purpose()
	if len(purposes) == 0 || len(purposes) != len(arr) {
		return fmt.Errorf("public key '%s' purposes must be a non-empty array of strings", pubKey.ID())
	}

	seen := make(map[string]bool)

	for _, purpose := range purposes {
		if !allowedPurposes[purpose] {
			return fmt.Errorf("invalid purpose: %s", purpose)
		}

		if seen[purpose] {
			return fmt.Errorf("duplicate purpose: %s", purpose)
		}

		seen[purpose] = true
	}

	return nil
}
