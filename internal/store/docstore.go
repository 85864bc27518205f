package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BatchLimit is the maximum number of refs deleted per commit.
const BatchLimit = 500

// Doc is one keyed document in a collection.
type Doc struct {
	ID     string
	Fields map[string]any
}

func (d Doc) String(field string) string {
	if s, ok := d.Fields[field].(string); ok {
		return s
	}
	return ""
}

func (d Doc) Int(field string) int {
	switch v := d.Fields[field].(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (d Doc) Bool(field string) bool {
	b, _ := d.Fields[field].(bool)
	return b
}

// Time parses an RFC3339 field; returns zero time when absent or malformed.
func (d Doc) Time(field string) time.Time {
	s := d.String(field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d *DB) Get(ctx context.Context, collection, id string) (Doc, bool, error) {
	var raw string
	err := d.Pool.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?;`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Doc{}, false, nil
	}
	if err != nil {
		return Doc{}, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	doc := Doc{ID: id}
	if err := json.Unmarshal([]byte(raw), &doc.Fields); err != nil {
		return Doc{}, false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return doc, true, nil
}

// Set writes fields to collection/id. With merge=true existing fields not named
// in the patch are left intact (json_patch), so concurrent writers touching
// different fields never clobber each other.
func (d *DB) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	b, err := json.Marshal(Sanitize(fields))
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	var q string
	if merge {
		q = `
INSERT INTO documents (collection, id, fields, updated_at)
VALUES (?, ?, json(?), ?)
ON CONFLICT (collection, id) DO UPDATE SET
  fields = json_patch(fields, excluded.fields),
  updated_at = excluded.updated_at;`
	} else {
		q = `
INSERT INTO documents (collection, id, fields, updated_at)
VALUES (?, ?, json(?), ?)
ON CONFLICT (collection, id) DO UPDATE SET
  fields = excluded.fields,
  updated_at = excluded.updated_at;`
	}

	if _, err := d.Pool.ExecContext(ctx, q, collection, id, string(b), now); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, collection, id string) error {
	_, err := d.Pool.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?;`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query returns documents matching every equality filter, newest first.
// limit <= 0 means no limit.
func (d *DB) Query(ctx context.Context, collection string, filters map[string]any, limit int) ([]Doc, error) {
	q := `SELECT id, fields FROM documents WHERE collection = ?`
	args := []any{collection}
	for field, val := range filters {
		q += ` AND json_extract(fields, ?) = ?`
		args = append(args, "$."+field, val)
	}
	q += ` ORDER BY updated_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.Pool.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Doc
	for rows.Next() {
		var doc Doc
		var raw string
		if err := rows.Scan(&doc.ID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.ID, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DeleteBatch removes ids in chunks of at most BatchLimit per commit.
// On a failing chunk it stops and returns the count already deleted alongside
// the error; earlier chunks stay deleted.
func (d *DB) DeleteBatch(ctx context.Context, collection string, ids []string) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += BatchLimit {
		end := min(start+BatchLimit, len(ids))
		chunk := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, 0, len(chunk)+1)
		args = append(args, collection)
		for _, id := range chunk {
			args = append(args, id)
		}

		res, err := d.Pool.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id IN (`+placeholders+`);`, args...)
		if err != nil {
			return deleted, fmt.Errorf("delete batch %s [%d:%d]: %w", collection, start, end, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		} else {
			deleted += len(chunk)
		}
	}
	return deleted, nil
}

// Increment bumps a numeric field atomically in a single UPDATE. A missing
// field counts from zero. This is the one write that must never be a
// read-then-write; concurrent vote submissions would lose updates.
func (d *DB) Increment(ctx context.Context, collection, id, field string, delta int) error {
	res, err := d.Pool.ExecContext(ctx, `
UPDATE documents
SET fields = json_set(fields, ?, COALESCE(json_extract(fields, ?), 0) + ?),
    updated_at = ?
WHERE collection = ? AND id = ?;`,
		"$."+field, "$."+field, delta,
		time.Now().UTC().Format(time.RFC3339),
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("increment %s/%s.%s: %w", collection, id, field, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("increment %s/%s: no such document", collection, id)
	}
	return nil
}
