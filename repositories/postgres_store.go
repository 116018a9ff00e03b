package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresDocumentStore keeps every collection in one JSONB table created by
// db.EnsureSchema. A filter becomes "body @> filter" and a patch becomes
// "body || patch", so a conditional update is a single atomic statement.
type PostgresDocumentStore struct {
	db SQLExecutor
}

func NewPostgresDocumentStore(db SQLExecutor) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

func (s *PostgresDocumentStore) Find(ctx context.Context, collection string, filter Filter, out any) error {
	query := `
		SELECT body
		FROM documents
		WHERE collection = $1 AND body @> $2::jsonb
		ORDER BY seq ASC`

	f, err := encodeJSON(filter)
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, query, collection, f)
	if err != nil {
		return fmt.Errorf("failed to query %s documents: %w", collection, err)
	}
	defer rows.Close()

	bodies := make([]json.RawMessage, 0)
	for rows.Next() {
		var body []byte
		if scanErr := rows.Scan(&body); scanErr != nil {
			return fmt.Errorf("failed to scan %s document: %w", collection, scanErr)
		}
		bodies = append(bodies, json.RawMessage(body))
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error during %s rows iteration: %w", collection, err)
	}
	return decodeList(bodies, out)
}

func (s *PostgresDocumentStore) FindOne(ctx context.Context, collection string, filter Filter, out any) error {
	query := `
		SELECT body
		FROM documents
		WHERE collection = $1 AND body @> $2::jsonb
		ORDER BY seq ASC
		LIMIT 1`

	f, err := encodeJSON(filter)
	if err != nil {
		return err
	}
	var body []byte
	err = s.db.QueryRowContext(ctx, query, collection, f).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to scan %s document: %w", collection, err)
	}
	return json.Unmarshal(body, out)
}

func (s *PostgresDocumentStore) Insert(ctx context.Context, collection, id string, doc any) error {
	query := `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)`

	obj, err := toObject(doc)
	if err != nil {
		return err
	}
	body, err := encodeJSON(obj)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, collection, id, body)
	return handleDocumentError(err, collection, id)
}

func (s *PostgresDocumentStore) Update(ctx context.Context, collection string, filter Filter, patch Patch) (int64, error) {
	query := `
		UPDATE documents
		SET body = body || $3::jsonb
		WHERE collection = $1 AND body @> $2::jsonb`

	f, err := encodeJSON(filter)
	if err != nil {
		return 0, err
	}
	p, err := encodeJSON(patch)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, query, collection, f, p)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s documents: %w", collection, err)
	}
	return affectedRows(result)
}

func (s *PostgresDocumentStore) Delete(ctx context.Context, collection string, filter Filter) (int64, error) {
	query := `DELETE FROM documents WHERE collection = $1 AND body @> $2::jsonb`

	f, err := encodeJSON(filter)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, query, collection, f)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s documents: %w", collection, err)
	}
	return affectedRows(result)
}

func encodeJSON(v any) (string, error) {
	if m, ok := v.(Filter); ok && m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode document json: %w", err)
	}
	return string(raw), nil
}

func handleDocumentError(err error, collection, id string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateDocument, collection, id)
	}
	return fmt.Errorf("failed to insert %s document %s: %w", collection, id, err)
}
