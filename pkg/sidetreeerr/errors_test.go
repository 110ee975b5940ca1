/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sidetreeerr

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := New(NotFound, "document not found")
		require.EqualError(t, err, "not_found: document not found")

		err = Newf(CasFileNotFound, "uri %s", "abc")
		require.EqualError(t, err, "cas_file_not_found: uri abc")

		require.EqualError(t, New(NotFound, ""), "not_found")
	})

	t.Run("code through pkg/errors wrapping", func(t *testing.T) {
		err := errors.Wrap(New(UnsupportedHashAlgorithm, "code 99"), "compute multihash")

		require.True(t, Is(err, UnsupportedHashAlgorithm))
		require.False(t, Is(err, NotFound))

		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, UnsupportedHashAlgorithm, code)
	})

	t.Run("code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("read: %w", New(CasNotReachable, "timeout"))

		require.True(t, Is(err, CasNotReachable))
	})

	t.Run("untyped error", func(t *testing.T) {
		_, ok := CodeOf(errors.New("other"))
		require.False(t, ok)
		require.False(t, Is(nil, NotFound))
	})
}
