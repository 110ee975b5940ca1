/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signer

import (
	"errors"

	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	internaljws "github.com/trustbloc/sidetree-node-go/pkg/internal/jws"
)

// SignModel canonicalizes the model and signs it, returning a compact JWS.
func SignModel(model interface{}, signer internaljws.Signer) (string, error) {
	payload, err := canonicalizer.MarshalCanonical(model)
	if err != nil {
		return "", err
	}

	alg, ok := signer.Headers().Algorithm()
	if !ok || alg == "" {
		return "", errors.New("signing algorithm is required")
	}

	jws, err := internaljws.NewJWS(signer.Headers(), payload, signer)
	if err != nil {
		return "", err
	}

	return jws.SerializeCompact(), nil
}
