/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package doccomposer

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/trustbloc/sidetree-node-go/pkg/document"
	log "github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/patch"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/operationparser/patchvalidator"
)

const loggerModule = "sidetree-core-composer"

// DocumentComposer applies patches to the document.
type DocumentComposer struct {
	logger *log.Log
}

// Option is a document composer option.
type Option func(c *DocumentComposer)

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(c *DocumentComposer) {
		c.logger = l
	}
}

// New creates new document composer.
func New(opts ...Option) *DocumentComposer {
	c := &DocumentComposer{logger: log.New(loggerModule)}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ApplyPatches applies patches to a copy of the document. The original document is never modified.
func (c *DocumentComposer) ApplyPatches(doc document.Document, patches []patch.Patch) (document.Document, error) {
	result, err := deepCopy(doc)
	if err != nil {
		return nil, err
	}

	for _, p := range patches {
		result, err = c.applyPatch(result, p)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (c *DocumentComposer) applyPatch(doc document.Document, p patch.Patch) (document.Document, error) {
	if err := patchvalidator.Validate(p); err != nil {
		return nil, err
	}

	action, err := p.GetAction()
	if err != nil {
		return nil, err
	}

	value, err := p.GetValue()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Applying patch", log.WithOperationType(string(action)))

	switch action {
	case patch.Replace:
		return applyReplace(value)
	case patch.JSONPatch:
		return applyJSON(doc, value)
	case patch.AddPublicKeys:
		return applyAddPublicKeys(doc, value), nil
	case patch.RemovePublicKeys:
		return applyRemovePublicKeys(doc, value), nil
	case patch.AddServiceEndpoints:
		return applyAddServiceEndpoints(doc, value), nil
	case patch.RemoveServiceEndpoints:
		return applyRemoveServiceEndpoints(doc, value), nil
	}

	return nil, fmt.Errorf("action '%s' is not supported", action)
}

// applyReplace discards the current document: the result holds only the replacement keys and services.
func applyReplace(replace interface{}) (document.Document, error) {
	replaceDoc, ok := replace.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("replace document must be an object, got %T", replace)
	}

	doc := make(document.Document)

	if keys, ok := replaceDoc[document.ReplacePublicKeyProperty]; ok {
		doc[document.PublicKeyProperty] = keys
	}

	if services, ok := replaceDoc[document.ReplaceServiceProperty]; ok {
		doc[document.ServiceProperty] = services
	}

	return deepCopy(doc)
}

func applyJSON(doc document.Document, entry interface{}) (document.Document, error) {
	patchBytes, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	jsonPatches, err := jsonpatch.DecodePatch(patchBytes)
	if err != nil {
		return nil, err
	}

	docBytes, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	docBytes, err = jsonPatches.Apply(docBytes)
	if err != nil {
		return nil, err
	}

	return document.FromBytes(docBytes)
}

// applyAddPublicKeys replaces keys with matching ids in place and appends the rest in patch order.
func applyAddPublicKeys(doc document.Document, entry interface{}) document.Document {
	var added []identified

	for _, key := range document.ParsePublicKeys(entry) {
		added = append(added, identified{id: key.ID(), obj: key.JSONLdObject()})
	}

	var existing []identified

	for _, key := range doc.PublicKeys() {
		existing = append(existing, identified{id: key.ID(), obj: key.JSONLdObject()})
	}

	doc[document.PublicKeyProperty] = merge(existing, added)

	return doc
}

func applyRemovePublicKeys(doc document.Document, entry interface{}) document.Document {
	remove := toSet(document.StringArray(entry))

	var keys []interface{}

	for _, key := range doc.PublicKeys() {
		if !remove[key.ID()] {
			keys = append(keys, key.JSONLdObject())
		}
	}

	setOrDelete(doc, document.PublicKeyProperty, keys)

	return doc
}

func applyAddServiceEndpoints(doc document.Document, entry interface{}) document.Document {
	var added []identified

	for _, svc := range document.ParseServices(entry) {
		added = append(added, identified{id: svc.ID(), obj: svc.JSONLdObject()})
	}

	var existing []identified

	for _, svc := range doc.Services() {
		existing = append(existing, identified{id: svc.ID(), obj: svc.JSONLdObject()})
	}

	doc[document.ServiceProperty] = merge(existing, added)

	return doc
}

func applyRemoveServiceEndpoints(doc document.Document, entry interface{}) document.Document {
	remove := toSet(document.StringArray(entry))

	var services []interface{}

	for _, svc := range doc.Services() {
		if !remove[svc.ID()] {
			services = append(services, svc.JSONLdObject())
		}
	}

	setOrDelete(doc, document.ServiceProperty, services)

	return doc
}

type identified struct {
	id  string
	obj map[string]interface{}
}

func merge(existing, added []identified) []interface{} {
	addedByID := make(map[string]map[string]interface{})
	for _, a := range added {
		addedByID[a.id] = a.obj
	}

	used := make(map[string]bool)

	var result []interface{}

	for _, e := range existing {
		if obj, ok := addedByID[e.id]; ok {
			result = append(result, obj)
			used[e.id] = true

			continue
		}

		result = append(result, e.obj)
	}

	for _, a := range added {
		if used[a.id] {
			continue
		}

		result = append(result, addedByID[a.id])
		used[a.id] = true
	}

	return result
}

func setOrDelete(doc document.Document, key string, values []interface{}) {
	if len(values) == 0 {
		delete(doc, key)

		return
	}

	doc[key] = values
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool)
	for _, v := range values {
		set[v] = true
	}

	return set
}

// deepCopy round-trips the document through JSON so that patches never alias the caller's maps.
func deepCopy(doc document.Document) (document.Document, error) {
	if doc == nil {
		return make(document.Document), nil
	}

	bytes, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var result document.Document

	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}

	if result == nil {
		result = make(document.Document)
	}

	return result, nil
}
