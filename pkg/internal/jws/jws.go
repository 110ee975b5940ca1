/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/square/go-jose/v3/json"

	"github.com/trustbloc/sidetree-node-go/pkg/jws"
)

const (
	jwsPartsCount    = 3
	jwsHeaderPart    = 0
	jwsPayloadPart   = 1
	jwsSignaturePart = 2
)

// JSONWebSignature defines JSON Web Signature (https://tools.ietf.org/html/rfc7515)
type JSONWebSignature struct {
	ProtectedHeaders jws.Headers
	Payload          []byte

	// the protected header segment exactly as it was received, required to rebuild the signing input
	rawHeaders string
	signature  []byte
}

// Signer defines JWS Signer interface. It makes signing of data and provides custom JWS headers relevant to the signer.
type Signer interface {
	// Sign signs.
	Sign(data []byte) ([]byte, error)

	// Headers provides JWS headers. "alg" header must be provided (see https://tools.ietf.org/html/rfc7515#section-4.1)
	Headers() jws.Headers
}

// NewJWS creates JSON Web Signature.
func NewJWS(protectedHeaders jws.Headers, payload []byte, signer Signer) (*JSONWebSignature, error) {
	headers := mergeHeaders(protectedHeaders, signer.Headers())

	if err := checkJWSHeaders(headers); err != nil {
		return nil, fmt.Errorf("check JOSE headers: %w", err)
	}

	headersBytes, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("serialize JWS headers: %w", err)
	}

	rawHeaders := base64.RawURLEncoding.EncodeToString(headersBytes)

	signature, err := signer.Sign(signingInput(rawHeaders, payload))
	if err != nil {
		return nil, fmt.Errorf("sign JWS verification data: %w", err)
	}

	return &JSONWebSignature{
		ProtectedHeaders: headers,
		Payload:          payload,
		rawHeaders:       rawHeaders,
		signature:        signature,
	}, nil
}

// SerializeCompact makes JWS Compact Serialization (https://tools.ietf.org/html/rfc7515#section-7.1)
func (s JSONWebSignature) SerializeCompact() string {
	return fmt.Sprintf("%s.%s.%s",
		s.rawHeaders,
		base64.RawURLEncoding.EncodeToString(s.Payload),
		base64.RawURLEncoding.EncodeToString(s.signature))
}

// Signature returns a copy of JWS signature.
func (s JSONWebSignature) Signature() []byte {
	if s.signature == nil {
		return nil
	}

	sCopy := make([]byte, len(s.signature))
	copy(sCopy, s.signature)

	return sCopy
}

// ParseJWS parses a JWS in compact serialization. The JSON serialization is not supported.
func ParseJWS(jwsCompact string) (*JSONWebSignature, error) {
	if strings.HasPrefix(jwsCompact, "{") {
		return nil, errors.New("JWS JSON serialization is not supported")
	}

	parts := strings.Split(jwsCompact, ".")
	if len(parts) != jwsPartsCount {
		return nil, errors.New("invalid JWS compact format")
	}

	headers, err := parseCompactedHeaders(parts[jwsHeaderPart])
	if err != nil {
		return nil, err
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[jwsPayloadPart])
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}

	if len(payload) == 0 {
		return nil, errors.New("compact jws payload is empty")
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[jwsSignaturePart])
	if err != nil {
		return nil, fmt.Errorf("decode base64 signature: %w", err)
	}

	if len(signature) == 0 {
		return nil, errors.New("compact jws signature is empty")
	}

	return &JSONWebSignature{
		ProtectedHeaders: headers,
		Payload:          payload,
		rawHeaders:       parts[jwsHeaderPart],
		signature:        signature,
	}, nil
}

// VerifyJWS parses the compact JWS and verifies its signature with the given public key.
func VerifyJWS(jwsCompact string, jwk *jws.JWK) (*JSONWebSignature, error) {
	parsedJWS, err := ParseJWS(jwsCompact)
	if err != nil {
		return nil, err
	}

	if err := parsedJWS.Verify(jwk); err != nil {
		return nil, err
	}

	return parsedJWS, nil
}

// Verify verifies the signature with the given public key.
func (s *JSONWebSignature) Verify(jwk *jws.JWK) error {
	if jwk == nil {
		return errors.New("public key is required for signature verification")
	}

	return VerifySignature(jwk, s.signature, signingInput(s.rawHeaders, s.Payload))
}

// IsCompactJWS checks weather input is a compact JWS (based on https://tools.ietf.org/html/rfc7516#section-9)
func IsCompactJWS(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == jwsPartsCount
}

func mergeHeaders(h1, h2 jws.Headers) jws.Headers {
	h := make(jws.Headers, len(h1)+len(h2))

	for k, v := range h2 {
		h[k] = v
	}

	for k, v := range h1 {
		h[k] = v
	}

	return h
}

func parseCompactedHeaders(rawHeaders string) (jws.Headers, error) {
	headersBytes, err := base64.RawURLEncoding.DecodeString(rawHeaders)
	if err != nil {
		return nil, fmt.Errorf("decode base64 header: %w", err)
	}

	var joseHeaders jws.Headers

	err = json.Unmarshal(headersBytes, &joseHeaders)
	if err != nil {
		return nil, fmt.Errorf("unmarshal JSON headers: %w", err)
	}

	err = checkJWSHeaders(joseHeaders)
	if err != nil {
		return nil, err
	}

	return joseHeaders, nil
}

func signingInput(rawHeaders string, payload []byte) []byte {
	return []byte(fmt.Sprintf("%s.%s", rawHeaders, base64.RawURLEncoding.EncodeToString(payload)))
}

func checkJWSHeaders(headers jws.Headers) error {
	if _, ok := headers.Algorithm(); !ok {
		return fmt.Errorf("%s JWS header is not defined", jws.HeaderAlgorithm)
	}

	return nil
}
