package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryDocument struct {
	id     string
	data   []byte
	fields map[string]any
}

// Memory - a process-local store for development and tests.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]memoryDocument
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]memoryDocument),
	}
}

func (that *Memory) Insert(ctx context.Context, collection string, record any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, fields, err := encodeDocument(record)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	that.mu.Lock()
	defer that.mu.Unlock()

	that.collections[collection] = append(that.collections[collection], memoryDocument{
		id:     id,
		data:   data,
		fields: fields,
	})

	return id, nil
}

func (that *Memory) QueryWhere(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want, ok := indexValue(value)
	if !ok {
		return []Document{}, nil
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	docs := make([]Document, 0)
	for _, doc := range that.collections[collection] {
		got, ok := indexValue(doc.fields[field])
		if !ok || got != want {
			continue
		}

		docs = append(docs, Document{ID: doc.id, Data: append([]byte(nil), doc.data...)})
	}

	return docs, nil
}
