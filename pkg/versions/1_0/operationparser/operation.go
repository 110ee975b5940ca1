/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

const loggerModule = "sidetree-core-parser"

// Parser is an operation parser.
type Parser struct {
	protocol.Protocol
	logger *log.Log
}

// Option is a parser instance option.
type Option func(opts *Parser)

// WithLogger sets the logger used by the parser.
func WithLogger(l *log.Log) Option {
	return func(opts *Parser) {
		if l != nil {
			opts.logger = l
		}
	}
}

// New returns a new operation parser.
func New(p protocol.Protocol, opts ...Option) *Parser {
	parser := &Parser{
		Protocol: p,
		logger:   log.New(loggerModule),
	}

	for _, opt := range opts {
		opt(parser)
	}

	return parser
}

// Parse parses and validates a client request.
func (p *Parser) Parse(namespace string, operationBuffer []byte) (*operation.Operation, error) {
	internal, err := p.ParseOperation(namespace, operationBuffer, false)
	if err != nil {
		return nil, err
	}

	return &operation.Operation{
		Type:             internal.Type,
		UniqueSuffix:     internal.UniqueSuffix,
		ID:               internal.ID,
		OperationRequest: operationBuffer,
	}, nil
}

// ParseOperation parses and validates operation. In batch mode the operation was assembled from anchored
// batch files: a missing or invalid delta is tolerated and left for the applier to reject.
func (p *Parser) ParseOperation(namespace string, operationBuffer []byte, batch bool) (*model.Operation, error) {
	if !batch && p.MaxOperationSize > 0 && len(operationBuffer) > int(p.MaxOperationSize) {
		return nil, sidetreeerr.Newf(sidetreeerr.OperationExceedsMaximumSize,
			"operation size[%d] exceeds maximum operation size[%d]", len(operationBuffer), p.MaxOperationSize)
	}

	obj, err := decodeObject(operationBuffer)
	if err != nil {
		return nil, err
	}

	opType, err := getOperationType(obj)
	if err != nil {
		return nil, err
	}

	var op *model.Operation

	switch opType {
	case operation.TypeCreate:
		op, err = p.parseCreateObject(obj, operationBuffer, batch)
	case operation.TypeUpdate:
		op, err = p.parseUpdateObject(obj, operationBuffer, batch)
	case operation.TypeDeactivate:
		op, err = p.parseDeactivateObject(obj, operationBuffer)
	case operation.TypeRecover:
		op, err = p.parseRecoverObject(obj, operationBuffer, batch)
	default:
		return nil, sidetreeerr.Newf(sidetreeerr.OperationTypeUnknown, "operation type [%s] not supported", opType)
	}

	if err != nil {
		p.logger.Debug("Failed to parse operation", log.WithOperationType(string(opType)),
			log.WithNamespace(namespace), log.WithError(err))

		return nil, err
	}

	op.Namespace = namespace
	op.ID = namespace + document.NamespaceDelimiter + op.UniqueSuffix

	return op, nil
}

func decodeObject(buf []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage

	if err := json.Unmarshal(buf, &obj); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.OperationNotJSON, "failed to unmarshal operation: %s", err.Error())
	}

	if obj == nil {
		return nil, sidetreeerr.New(sidetreeerr.OperationNotJSON, "operation is not a JSON object")
	}

	return obj, nil
}

func getOperationType(obj map[string]json.RawMessage) (operation.Type, error) {
	raw, ok := obj[model.TypeProperty]
	if !ok {
		return "", sidetreeerr.New(sidetreeerr.OperationMissingOrUnknownProperty, "missing operation type")
	}

	var opType operation.Type

	if err := json.Unmarshal(raw, &opType); err != nil {
		return "", sidetreeerr.Newf(sidetreeerr.OperationTypeUnknown, "operation type is not a string: %s", err.Error())
	}

	return opType, nil
}

// checkProperties rejects an object with a missing required property or any property outside the allow-list.
func checkProperties(obj map[string]json.RawMessage, required []string, optional ...string) error {
	allowed := make(map[string]bool, len(required)+len(optional))

	for _, key := range required {
		if _, ok := obj[key]; !ok {
			return sidetreeerr.Newf(sidetreeerr.OperationMissingOrUnknownProperty, "missing property: %s", key)
		}

		allowed[key] = true
	}

	for _, key := range optional {
		allowed[key] = true
	}

	for key := range obj {
		if !allowed[key] {
			return sidetreeerr.Newf(sidetreeerr.OperationMissingOrUnknownProperty, "property not allowed: %s", key)
		}
	}

	return nil
}

func unmarshalString(obj map[string]json.RawMessage, key string) (string, error) {
	var value string

	if err := json.Unmarshal(obj[key], &value); err != nil {
		return "", sidetreeerr.Newf(sidetreeerr.OperationMissingOrUnknownProperty, "property %s must be a string", key)
	}

	return value, nil
}
