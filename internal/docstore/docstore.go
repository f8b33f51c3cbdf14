// Package docstore holds the document store backends used to persist finished games.
// Every backend supports the same two operations: single-document inserts and
// equality-filtered reads on a top-level field.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotObject  = errors.New("document must encode to a JSON object")
	ErrNotIndexed = errors.New("field is not indexed")
)

// Document - a stored document with the ID assigned by the store.
type Document struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Store - QueryWhere fails with ErrNotIndexed when a backend keeps no index for the field.
type Store interface {
	Insert(ctx context.Context, collection string, record any) (string, error)
	QueryWhere(ctx context.Context, collection, field string, value any) ([]Document, error)
}

// encodeDocument - turns a record into raw JSON plus its top-level fields.
func encodeDocument(record any) (json.RawMessage, map[string]any, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var fields map[string]any
	if err = json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, nil, ErrNotObject
	}

	return data, fields, nil
}

// indexValue - the textual form equality filters compare on.
// Objects and arrays are not indexed.
func indexValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case fmt.Stringer:
		return v.String(), true
	}

	// named string types such as entity.Mark
	data, err := json.Marshal(value)
	if err != nil {
		return "", false
	}

	var s string
	if err = json.Unmarshal(data, &s); err != nil {
		return "", false
	}

	return s, true
}
