/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const suffix = "EiDahaOGH-liLLdDtTxEAdc8i-cfCz-WUcQdRJheMVNn3A"

func TestOperationStore_Put(t *testing.T) {
	s := NewOperationStore(newTestDB(t))

	t.Run("success", func(t *testing.T) {
		require.NoError(t, s.Put([]*operation.AnchoredOperation{
			newAnchoredOp(operation.TypeUpdate, 2, 0),
			newAnchoredOp(operation.TypeCreate, 1, 0),
		}))

		ops, err := s.Get(suffix)
		require.NoError(t, err)
		require.Len(t, ops, 2)
		require.Equal(t, operation.TypeCreate, ops[0].Type)
		require.Equal(t, operation.TypeUpdate, ops[1].Type)
		require.Equal(t, []byte(`{"type":"create"}`), ops[0].OperationRequest)
		require.Equal(t, uint64(10), ops[0].TransactionTime)
		require.Equal(t, uint64(1), ops[0].ProtocolVersion)
	})

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, s.Put([]*operation.AnchoredOperation{newAnchoredOp(operation.TypeUpdate, 2, 0)}))

		ops, err := s.Get(suffix)
		require.NoError(t, err)
		require.Len(t, ops, 2)
	})

	t.Run("empty batch", func(t *testing.T) {
		require.NoError(t, s.Put(nil))
	})
}

func TestOperationStore_Get(t *testing.T) {
	s := NewOperationStore(newTestDB(t))

	t.Run("not found", func(t *testing.T) {
		ops, err := s.Get("unknown")
		require.Error(t, err)
		require.Nil(t, ops)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.NotFound))
	})

	t.Run("ordered by transaction number and operation index", func(t *testing.T) {
		require.NoError(t, s.Put([]*operation.AnchoredOperation{
			newAnchoredOp(operation.TypeUpdate, 3, 1),
			newAnchoredOp(operation.TypeUpdate, 3, 0),
			newAnchoredOp(operation.TypeCreate, 1, 5),
		}))

		ops, err := s.Get(suffix)
		require.NoError(t, err)
		require.Len(t, ops, 3)
		require.Equal(t, uint64(1), ops[0].TransactionNumber)
		require.Equal(t, uint(0), ops[1].OperationIndex)
		require.Equal(t, uint(1), ops[2].OperationIndex)
	})
}

func TestOperationStore_Delete(t *testing.T) {
	t.Run("after transaction number", func(t *testing.T) {
		s := NewOperationStore(newTestDB(t))

		require.NoError(t, s.Put([]*operation.AnchoredOperation{
			newAnchoredOp(operation.TypeCreate, 1, 0),
			newAnchoredOp(operation.TypeUpdate, 2, 0),
			newAnchoredOp(operation.TypeUpdate, 3, 0),
		}))

		require.NoError(t, s.Delete(uint64Ptr(1)))

		ops, err := s.Get(suffix)
		require.NoError(t, err)
		require.Len(t, ops, 1)
		require.Equal(t, operation.TypeCreate, ops[0].Type)
	})

	t.Run("all", func(t *testing.T) {
		s := NewOperationStore(newTestDB(t))

		require.NoError(t, s.Put([]*operation.AnchoredOperation{newAnchoredOp(operation.TypeCreate, 1, 0)}))
		require.NoError(t, s.Delete(nil))

		_, err := s.Get(suffix)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.NotFound))
	})
}

func TestOperationStore_DeleteUpdatesEarlierThan(t *testing.T) {
	s := NewOperationStore(newTestDB(t))

	require.NoError(t, s.Put([]*operation.AnchoredOperation{
		newAnchoredOp(operation.TypeCreate, 1, 0),
		newAnchoredOp(operation.TypeUpdate, 2, 0),
		newAnchoredOp(operation.TypeUpdate, 3, 0),
		newAnchoredOp(operation.TypeUpdate, 3, 2),
		newAnchoredOp(operation.TypeUpdate, 4, 0),
	}))

	require.NoError(t, s.DeleteUpdatesEarlierThan(suffix, 3, 2))

	ops, err := s.Get(suffix)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	require.Equal(t, operation.TypeCreate, ops[0].Type)
	require.Equal(t, uint64(3), ops[1].TransactionNumber)
	require.Equal(t, uint(2), ops[1].OperationIndex)
	require.Equal(t, uint64(4), ops[2].TransactionNumber)
}

func TestOperationStore_Closed(t *testing.T) {
	db := newTestDB(t)
	s := NewOperationStore(db)

	require.NoError(t, db.db.Close())

	require.Error(t, s.Put([]*operation.AnchoredOperation{newAnchoredOp(operation.TypeCreate, 1, 0)}))

	_, err := s.Get(suffix)
	require.Error(t, err)
	require.False(t, sidetreeerr.Is(err, sidetreeerr.NotFound))

	require.Error(t, s.Delete(nil))
	require.Error(t, s.DeleteUpdatesEarlierThan(suffix, 1, 0))
}

func newAnchoredOp(opType operation.Type, txnNumber uint64, index uint) *operation.AnchoredOperation {
	return &operation.AnchoredOperation{
		Type:              opType,
		UniqueSuffix:      suffix,
		OperationRequest:  []byte(`{"type":"` + string(opType) + `"}`),
		TransactionTime:   txnNumber * 10,
		TransactionNumber: txnNumber,
		OperationIndex:    index,
		ProtocolVersion:   1,
	}
}
