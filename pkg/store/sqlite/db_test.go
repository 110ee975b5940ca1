/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "node.db")

		db, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		// reopening an existing database keeps the schema
		db, err = Open(path)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})

	t.Run("error - invalid path", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "missing", "node.db"))
		require.Error(t, err)
		require.Nil(t, db)
	})
}

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "node.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}
