/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"bytes"
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

// ChunkFile defines chunk file schema.
type ChunkFile struct {
	// Deltas included in this chunk file, ordered create, recover, update
	Deltas []*model.DeltaModel `json:"deltas"`
}

// CreateChunkFile will combine all operation deltas into chunk file.
// Nil is returned if there are no create, recover or update operations.
func CreateChunkFile(ops *SortedOperations) *ChunkFile {
	var deltas []*model.DeltaModel

	deltas = append(deltas, getDeltas(ops.Create)...)
	deltas = append(deltas, getDeltas(ops.Recover)...)
	deltas = append(deltas, getDeltas(ops.Update)...)

	if len(deltas) == 0 {
		return nil
	}

	return &ChunkFile{Deltas: deltas}
}

// ParseChunkFile will parse chunk file model from content. Only the top level of the file is checked
// strictly. A delta that does not decode is kept as a nil entry so that it voids only its own operation.
func ParseChunkFile(content []byte) (*ChunkFile, error) {
	raw := &struct {
		Deltas []json.RawMessage `json:"deltas"`
	}{}

	if err := decodeStrict(content, raw, sidetreeerr.ChunkFileInvalid); err != nil {
		return nil, err
	}

	if len(raw.Deltas) == 0 {
		return nil, sidetreeerr.New(sidetreeerr.ChunkFileInvalid, "chunk file has no deltas")
	}

	file := &ChunkFile{Deltas: make([]*model.DeltaModel, len(raw.Deltas))}

	for i, d := range raw.Deltas {
		file.Deltas[i] = parseDelta(d)
	}

	return file, nil
}

func parseDelta(content json.RawMessage) *model.DeltaModel {
	if bytes.Equal(bytes.TrimSpace(content), []byte("null")) {
		return nil
	}

	delta := &model.DeltaModel{}

	if err := decodeStrict(content, delta, sidetreeerr.DeltaInvalid); err != nil {
		return nil
	}

	return delta
}

// IsEmpty returns true if the file has nothing to write.
func (f *ChunkFile) IsEmpty() bool {
	return f == nil || len(f.Deltas) == 0
}

func getDeltas(ops []*model.Operation) []*model.DeltaModel {
	var deltas []*model.DeltaModel

	for _, op := range ops {
		deltas = append(deltas, op.Delta)
	}

	return deltas
}
