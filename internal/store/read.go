package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/qppconv/internal/failure"
)

const conversionColumns = `id, seq, source, scopes, status, error_kind, output_hash, errors, converter_version`

// GetConversion retrieves a single record by ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) GetConversion(ctx context.Context, id string) (Conversion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+conversionColumns+`
		FROM conversions
		WHERE id = ?
	`, id)

	c, err := scanConversion(row)
	if err != nil {
		return Conversion{}, fmt.Errorf("get conversion %s: %w", id, err)
	}
	return c, nil
}

// ListConversions returns matching records ordered by seq ASC, id ASC.
// With a positive Limit only the most recent records are returned, still
// in ascending order.
func (s *Store) ListConversions(ctx context.Context, f Filter) ([]Conversion, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Source != "" {
		where = append(where, `(source = ? OR substr(source, -(length(?) + 1)) = '/' || ?)`)
		args = append(args, f.Source, f.Source, f.Source)
	}

	query := `SELECT ` + conversionColumns + ` FROM conversions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC LIMIT ?)`
		args = append(args, f.Limit)
	}
	query += ` ORDER BY seq ASC, id ASC COLLATE BINARY`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("list conversions: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	return out, nil
}

// Details returns the recorded top-level details of a conversion in their
// original order.
func (s *Store) Details(ctx context.Context, id string) ([]failure.Detail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message, path
		FROM conversion_details
		WHERE conversion_id = ?
		ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read details: %w", err)
	}
	defer rows.Close()

	var out []failure.Detail
	for rows.Next() {
		var d failure.Detail
		if err := rows.Scan(&d.Message, &d.Path); err != nil {
			return nil, fmt.Errorf("scan detail: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MessageCounts returns how often each detail message was recorded, most
// frequent first. A positive limit keeps the top entries.
func (s *Store) MessageCounts(ctx context.Context, limit int) ([]MessageCount, error) {
	query := `
		SELECT message, COUNT(*) AS n
		FROM conversion_details
		GROUP BY message
		ORDER BY n DESC, message ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("message counts: %w", err)
	}
	defer rows.Close()

	var out []MessageCount
	for rows.Next() {
		var mc MessageCount
		if err := rows.Scan(&mc.Message, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan message count: %w", err)
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(row scanner) (Conversion, error) {
	var (
		c                      Conversion
		scopesJSON, errorsJSON string
		status, kind           string
	)
	err := row.Scan(
		&c.ID,
		&c.Seq,
		&c.Source,
		&scopesJSON,
		&status,
		&kind,
		&c.OutputHash,
		&errorsJSON,
		&c.ConverterVersion,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Conversion{}, err
		}
		return Conversion{}, fmt.Errorf("scan conversion: %w", err)
	}
	c.Status = Status(status)
	c.ErrorKind = failure.Kind(kind)

	if c.Scopes, err = unmarshalScopes(scopesJSON); err != nil {
		return Conversion{}, err
	}
	if c.Errors, err = unmarshalErrors(errorsJSON); err != nil {
		return Conversion{}, err
	}
	return c, nil
}
