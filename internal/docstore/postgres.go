package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Postgres - documents live in a single jsonb table, see storage/migrations.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		db: db,
	}
}

func (that *Postgres) Insert(ctx context.Context, collection string, record any) (string, error) {
	data, _, err := encodeDocument(record)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	_, err = that.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, data, created_at) VALUES ($1, $2, $3, $4)`,
		id, collection, []byte(data), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

func (that *Postgres) QueryWhere(ctx context.Context, collection, field string, value any) ([]Document, error) {
	want, ok := indexValue(value)
	if !ok {
		return []Document{}, nil
	}

	rows, err := that.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 AND data->>$2 = $3`,
		collection, field, want,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var (
			doc  Document
			data []byte
		)

		if err = rows.Scan(&doc.ID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc.Data = data
		docs = append(docs, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}
