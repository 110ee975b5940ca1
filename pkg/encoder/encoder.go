/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package encoder

import (
	"encoding/base64"
	"regexp"

	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

var base64URLAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

// EncodeToString encodes the bytes to string.
func EncodeToString(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeString decodes the encoded content to bytes. The content must only contain
// characters of the URL-safe base64 alphabet without padding.
func DecodeString(encodedContent string) ([]byte, error) {
	if !IsBase64URLString(encodedContent) {
		return nil, sidetreeerr.Newf(sidetreeerr.EncodedStringIncorrectEncoding,
			"'%s' is not a base64url string", encodedContent)
	}

	data, err := base64.RawURLEncoding.DecodeString(encodedContent)
	if err != nil {
		return nil, sidetreeerr.New(sidetreeerr.EncodedStringIncorrectEncoding, err.Error())
	}

	return data, nil
}

// IsBase64URLString returns true if the string only contains URL-safe base64 characters.
func IsBase64URLString(s string) bool {
	return base64URLAlphabet.MatchString(s)
}
