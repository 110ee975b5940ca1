/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

// SortedOperations stores operations per type.
type SortedOperations struct {
	Create     []*model.Operation
	Update     []*model.Operation
	Recover    []*model.Operation
	Deactivate []*model.Operation
}

// Size returns the length of all operations(combined).
func (o *SortedOperations) Size() int {
	return len(o.Create) + len(o.Recover) + len(o.Deactivate) + len(o.Update)
}

// OperationReference contains minimum proving data.
type OperationReference struct {
	// DidSuffix is the suffix of the DID
	DidSuffix string `json:"didSuffix"`

	// RevealValue is multihash of JWK
	RevealValue string `json:"revealValue"`
}

func getOperationReferences(ops []*model.Operation) []OperationReference {
	var result []OperationReference

	for _, op := range ops {
		upd := OperationReference{
			DidSuffix:   op.UniqueSuffix,
			RevealValue: op.RevealValue,
		}

		result = append(result, upd)
	}

	return result
}

func getSignedData(ops []*model.Operation) []string {
	var result []string
	for _, op := range ops {
		result = append(result, op.SignedData)
	}

	return result
}

// decodeStrict unmarshals content into v rejecting any property that v does not declare.
// Syntax errors are reported as FileNotJSON and schema errors with the given code.
func decodeStrict(content []byte, v interface{}, code sidetreeerr.Code) error {
	d := json.NewDecoder(bytes.NewReader(content))
	d.DisallowUnknownFields()

	if err := d.Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return sidetreeerr.Newf(sidetreeerr.FileNotJSON, "%s", err.Error())
		}

		return sidetreeerr.Newf(code, "%s", err.Error())
	}

	if d.More() {
		return sidetreeerr.New(sidetreeerr.FileNotJSON, "unexpected content after JSON object")
	}

	return nil
}
