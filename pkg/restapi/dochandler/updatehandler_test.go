/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dochandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/restapi/model"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const (
	namespace = "did:sidetree"
	request   = `{"type":"create"}`
)

func TestUpdateHandler_Update(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		processor := &mockProcessor{result: &document.ResolutionResult{
			Document: document.Document{"id": namespace + ":abc"},
		}}

		rw := httptest.NewRecorder()
		NewUpdateHandler(processor).Update(rw, httptest.NewRequest(http.MethodPost, "/operations",
			bytes.NewReader([]byte(request))))

		require.Equal(t, http.StatusOK, rw.Code)
		require.Equal(t, "application/did+ld+json", rw.Header().Get("Content-Type"))
		require.Equal(t, []byte(request), processor.request)

		result := &document.ResolutionResult{}
		require.NoError(t, json.Unmarshal(rw.Body.Bytes(), result))
		require.Equal(t, namespace+":abc", result.Document.ID())
	})

	t.Run("update", func(t *testing.T) {
		rw := httptest.NewRecorder()
		NewUpdateHandler(&mockProcessor{}).Update(rw, httptest.NewRequest(http.MethodPost, "/operations",
			bytes.NewReader([]byte(request))))

		require.Equal(t, http.StatusOK, rw.Code)
		require.Empty(t, rw.Body.String())
	})

	t.Run("bad request", func(t *testing.T) {
		processor := &mockProcessor{err: sidetreeerr.New(sidetreeerr.OperationNotJSON, "not json")}

		rw := httptest.NewRecorder()
		NewUpdateHandler(processor).Update(rw, httptest.NewRequest(http.MethodPost, "/operations",
			bytes.NewReader([]byte("bad"))))

		require.Equal(t, http.StatusBadRequest, rw.Code)

		e := &model.Error{}
		require.NoError(t, json.Unmarshal(rw.Body.Bytes(), e))
		require.Equal(t, string(sidetreeerr.OperationNotJSON), e.Code)
	})

	t.Run("internal error", func(t *testing.T) {
		processor := &mockProcessor{err: errors.New("queue is full")}

		rw := httptest.NewRecorder()
		NewUpdateHandler(processor).Update(rw, httptest.NewRequest(http.MethodPost, "/operations",
			bytes.NewReader([]byte(request))))

		require.Equal(t, http.StatusInternalServerError, rw.Code)
		require.NotContains(t, rw.Body.String(), "queue is full")
	})

	t.Run("request too large", func(t *testing.T) {
		processor := &mockProcessor{}

		rw := httptest.NewRecorder()
		NewUpdateHandler(processor, WithMaxRequestSize(5)).Update(rw,
			httptest.NewRequest(http.MethodPost, "/operations", bytes.NewReader([]byte(request))))

		require.Equal(t, http.StatusRequestEntityTooLarge, rw.Code)
		require.Nil(t, processor.request)
	})

	t.Run("rate limit", func(t *testing.T) {
		h := NewUpdateHandler(&mockProcessor{}, WithRateLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))

		rw := httptest.NewRecorder()
		h.Update(rw, httptest.NewRequest(http.MethodPost, "/operations", bytes.NewReader([]byte(request))))
		require.Equal(t, http.StatusOK, rw.Code)

		rw = httptest.NewRecorder()
		h.Update(rw, httptest.NewRequest(http.MethodPost, "/operations", bytes.NewReader([]byte(request))))
		require.Equal(t, http.StatusTooManyRequests, rw.Code)
	})

	t.Run("read error", func(t *testing.T) {
		rw := httptest.NewRecorder()
		NewUpdateHandler(&mockProcessor{}).Update(rw,
			httptest.NewRequest(http.MethodPost, "/operations", &failingReader{}))

		require.Equal(t, http.StatusBadRequest, rw.Code)
	})
}

type mockProcessor struct {
	request []byte
	result  *document.ResolutionResult
	err     error
}

func (m *mockProcessor) Namespace() string {
	return namespace
}

func (m *mockProcessor) ProcessOperation(operationBuffer []byte) (*document.ResolutionResult, error) {
	m.request = operationBuffer

	return m.result, m.err
}

type mockResolver struct {
	result *document.ResolutionResult
	err    error
}

func (m *mockResolver) ResolveDocument(_ context.Context, _ string) (*document.ResolutionResult, error) {
	return m.result, m.err
}

type failingReader struct{}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read error")
}
