/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dochandler

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/restapi/common"
)

// Processor processes document operations
type Processor interface {
	Namespace() string
	ProcessOperation(operationBuffer []byte) (*document.ResolutionResult, error)
}

// UpdateHandler handles the creation and update of documents
type UpdateHandler struct {
	processor      Processor
	limiter        *rate.Limiter
	maxRequestSize int64
	logger         *log.Log
}

// UpdateOption is an update handler option.
type UpdateOption func(h *UpdateHandler)

// WithRateLimiter limits the rate of accepted operations. Requests over the limit are rejected with
// 429 Too Many Requests.
func WithRateLimiter(limiter *rate.Limiter) UpdateOption {
	return func(h *UpdateHandler) {
		h.limiter = limiter
	}
}

// WithMaxRequestSize sets the maximum size of the request body.
func WithMaxRequestSize(size int64) UpdateOption {
	return func(h *UpdateHandler) {
		if size > 0 {
			h.maxRequestSize = size
		}
	}
}

// NewUpdateHandler returns a new document update handler
func NewUpdateHandler(processor Processor, opts ...UpdateOption) *UpdateHandler {
	h := &UpdateHandler{
		processor:      processor,
		maxRequestSize: defaultMaxRequestSize,
		logger:         logger,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

const defaultMaxRequestSize = 1 << 20

// Update creates or updates a document
func (h *UpdateHandler) Update(rw http.ResponseWriter, req *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		common.WriteError(rw, http.StatusTooManyRequests, errors.New("operation rate limit exceeded"))

		return
	}

	request, err := io.ReadAll(io.LimitReader(req.Body, h.maxRequestSize+1))
	if err != nil {
		common.WriteError(rw, http.StatusBadRequest, err)

		return
	}

	if int64(len(request)) > h.maxRequestSize {
		common.WriteError(rw, http.StatusRequestEntityTooLarge,
			errors.Errorf("request exceeds maximum size %d", h.maxRequestSize))

		return
	}

	response, err := h.doUpdate(request)
	if err != nil {
		var httpErr *common.HTTPError
		if errors.As(err, &httpErr) {
			common.WriteError(rw, httpErr.Status(), httpErr.Cause())

			return
		}

		common.WriteError(rw, http.StatusInternalServerError, err)

		return
	}

	if response == nil {
		rw.WriteHeader(http.StatusOK)

		return
	}

	common.WriteResponse(rw, http.StatusOK, response)
}

func (h *UpdateHandler) doUpdate(request []byte) (*document.ResolutionResult, error) {
	result, err := h.processor.ProcessOperation(request)
	if err != nil {
		status := common.StatusFromError(err)

		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to process operation", log.WithNamespace(h.processor.Namespace()),
				log.WithError(err))
		} else {
			h.logger.Debug("Operation rejected", log.WithNamespace(h.processor.Namespace()), log.WithError(err))
		}

		return nil, common.NewHTTPError(status, err)
	}

	return result, nil
}
