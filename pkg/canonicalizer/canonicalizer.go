/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package canonicalizer produces the JCS (RFC 8785) form of JSON values. Hashes over operation data,
// commitments and batch files are always computed over this form.
package canonicalizer

import (
	"encoding/json"

	"github.com/gowebpki/jcs"
	"github.com/pkg/errors"
)

// MarshalCanonical returns the canonical JSON of value. A []byte value is taken to be JSON already.
func MarshalCanonical(value interface{}) ([]byte, error) {
	raw, ok := value.([]byte)
	if !ok {
		var err error

		if raw, err = json.Marshal(value); err != nil {
			return nil, errors.Wrap(err, "marshal JSON")
		}
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, errors.Wrap(err, "canonicalize JSON")
	}

	return canonical, nil
}
