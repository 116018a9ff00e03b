package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrConflictingUpdate = errors.New("document was changed by another writer")
	ErrDuplicateDocument = errors.New("document with this id already exists")
)

// Filter selects documents by JSON containment: every key must be present in
// the document with a value that contains the filter value. An empty filter
// matches every document of the collection.
type Filter map[string]any

// Patch is merged into the top level of a matching document.
type Patch map[string]any

// DocumentStore is the persistence boundary of the engine. It promises
// atomic read-modify-write per document and nothing across documents, so
// Update doubles as a conditional update: the filter is the precondition.
type DocumentStore interface {
	// Find decodes every matching document, in insertion order, into out,
	// which must point to a slice.
	Find(ctx context.Context, collection string, filter Filter, out any) error
	// FindOne decodes the first matching document into out or returns
	// ErrDocumentNotFound.
	FindOne(ctx context.Context, collection string, filter Filter, out any) error
	Insert(ctx context.Context, collection, id string, doc any) error
	// Update applies patch to every matching document and reports how many
	// matched. Zero means the precondition failed.
	Update(ctx context.Context, collection string, filter Filter, patch Patch) (int64, error)
	Delete(ctx context.Context, collection string, filter Filter) (int64, error)
}

// normalize round-trips v through JSON so filters and documents compare in
// the same representation the Postgres store sees.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// toObject marshals a document into its top-level JSON object.
func toObject(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("document must encode to a JSON object: %w", err)
	}
	return obj, nil
}

// contains mirrors the jsonb @> operator: objects match key by key, arrays
// match when every filter element is contained in some document element,
// scalars must be equal.
func contains(doc, sub any) bool {
	switch s := sub.(type) {
	case map[string]any:
		d, ok := doc.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range s {
			dv, ok := d[k]
			if !ok || !contains(dv, v) {
				return false
			}
		}
		return true
	case []any:
		d, ok := doc.([]any)
		if !ok {
			return false
		}
		for _, v := range s {
			found := false
			for _, dv := range d {
				if contains(dv, v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(doc, sub)
}

// decodeList writes raw documents into out, a pointer to a slice.
func decodeList(bodies []json.RawMessage, out any) error {
	if bodies == nil {
		bodies = []json.RawMessage{}
	}
	raw, err := json.Marshal(bodies)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
