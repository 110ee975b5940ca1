/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/restapi/model"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

func TestWriteResponse(t *testing.T) {
	rw := httptest.NewRecorder()
	WriteResponse(rw, http.StatusOK, "content")
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "application/did+ld+json", rw.Header().Get("Content-Type"))
	require.Equal(t, "\"content\"\n", rw.Body.String())
}

func TestWriteError(t *testing.T) {
	t.Run("typed error", func(t *testing.T) {
		rw := httptest.NewRecorder()
		WriteError(rw, http.StatusBadRequest, sidetreeerr.New(sidetreeerr.DeltaInvalid, "missing patches"))
		require.Equal(t, http.StatusBadRequest, rw.Code)

		e := &model.Error{}
		require.NoError(t, json.Unmarshal(rw.Body.Bytes(), e))
		require.Equal(t, string(sidetreeerr.DeltaInvalid), e.Code)
		require.Contains(t, e.Message, "missing patches")
	})

	t.Run("plain error", func(t *testing.T) {
		rw := httptest.NewRecorder()
		WriteError(rw, http.StatusTooManyRequests, errors.New("too many requests"))
		require.Equal(t, http.StatusTooManyRequests, rw.Code)

		e := &model.Error{}
		require.NoError(t, json.Unmarshal(rw.Body.Bytes(), e))
		require.Empty(t, e.Code)
		require.Equal(t, "too many requests", e.Message)
	})

	t.Run("server error details are hidden", func(t *testing.T) {
		rw := httptest.NewRecorder()
		WriteError(rw, http.StatusInternalServerError, errors.New("database password is wrong"))
		require.Equal(t, http.StatusInternalServerError, rw.Code)
		require.NotContains(t, rw.Body.String(), "password")
		require.Contains(t, rw.Body.String(), internalServerError)
	})
}

func TestStatusFromError(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, StatusFromError(errors.New("some error")))
	require.Equal(t, http.StatusNotFound, StatusFromError(sidetreeerr.New(sidetreeerr.NotFound, "not found")))
	require.Equal(t, http.StatusInternalServerError,
		StatusFromError(sidetreeerr.New(sidetreeerr.VersionNotFound, "no version")))
	require.Equal(t, http.StatusBadRequest,
		StatusFromError(pkgerrors.Wrap(sidetreeerr.New(sidetreeerr.OperationNotJSON, "bad"), "parse")))
}

func TestNewHTTPHandler(t *testing.T) {
	called := false

	h := NewHTTPHandler("/path", http.MethodGet, func(http.ResponseWriter, *http.Request) { called = true })
	require.Equal(t, "/path", h.Path())
	require.Equal(t, http.MethodGet, h.Method())

	h.Handler()(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/path", nil))
	require.True(t, called)
}
