package docstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Indexes - the fields each collection is queried by. A collection left out
// gets every scalar top-level field indexed.
type Indexes map[string][]string

func (that Indexes) covers(collection, field string) bool {
	fields, ok := that[collection]
	if !ok {
		return true
	}
	return slices.Contains(fields, field)
}

// Redis - documents are JSON strings under doc:<collection>:<id>; indexed
// fields get a set idx:<collection>:<field>:<value> of IDs.
type Redis struct {
	client  *redis.Client
	indexes Indexes
}

func NewRedis(client *redis.Client, indexes Indexes) *Redis {
	return &Redis{
		client:  client,
		indexes: indexes,
	}
}

func documentKey(collection, id string) string {
	return "doc:" + collection + ":" + id
}

func indexKey(collection, field, value string) string {
	return "idx:" + collection + ":" + field + ":" + value
}

func (that *Redis) Insert(ctx context.Context, collection string, record any) (string, error) {
	data, fields, err := encodeDocument(record)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, documentKey(collection, id), []byte(data), 0)

		for field, value := range fields {
			if !that.indexes.covers(collection, field) {
				continue
			}
			if indexed, ok := indexValue(value); ok {
				pipe.SAdd(ctx, indexKey(collection, field, indexed), id)
			}
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

func (that *Redis) QueryWhere(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if !that.indexes.covers(collection, field) {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotIndexed, collection, field)
	}

	want, ok := indexValue(value)
	if !ok {
		return []Document{}, nil
	}

	ids, err := that.client.SMembers(ctx, indexKey(collection, field, want)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	if len(ids) == 0 {
		return []Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = documentKey(collection, id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	docs := make([]Document, 0, len(values))
	for i, value := range values {
		// a missing document is skipped, the index may outlive it
		data, ok := value.(string)
		if !ok {
			continue
		}

		docs = append(docs, Document{ID: ids[i], Data: []byte(data)})
	}

	return docs, nil
}
