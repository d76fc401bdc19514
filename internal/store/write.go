package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidRecord is returned for records missing required fields.
var ErrInvalidRecord = errors.New("invalid conversion record")

// RecordConversion appends c to the log and returns it with its seq set.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: recording the same ID
// twice keeps the first record, returns it, and reports inserted=false.
// The record and its detail rows are written in one transaction.
func (s *Store) RecordConversion(ctx context.Context, c Conversion) (rec Conversion, inserted bool, err error) {
	if c.ID == "" || c.Source == "" {
		return Conversion{}, false, fmt.Errorf("record conversion: %w: id and source are required", ErrInvalidRecord)
	}
	if c.Status != StatusSuccess && c.Status != StatusFailed {
		return Conversion{}, false, fmt.Errorf("record conversion: %w: status %q", ErrInvalidRecord, c.Status)
	}

	scopesJSON, err := marshalScopes(c.Scopes)
	if err != nil {
		return Conversion{}, false, fmt.Errorf("record conversion: %w", err)
	}
	errorsJSON, err := marshalErrors(c.Errors)
	if err != nil {
		return Conversion{}, false, fmt.Errorf("record conversion: %w", err)
	}
	if c.Seq == 0 {
		c.Seq = s.clock.Next()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Conversion{}, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversions
		(id, seq, source, scopes, status, error_kind, output_hash, error_count, errors, converter_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.Seq,
		c.Source,
		scopesJSON,
		string(c.Status),
		string(c.ErrorKind),
		c.OutputHash,
		c.ErrorCount(),
		errorsJSON,
		c.ConverterVersion,
	)
	if err != nil {
		return Conversion{}, false, fmt.Errorf("record conversion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Conversion{}, false, fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		if err := tx.Rollback(); err != nil {
			return Conversion{}, false, fmt.Errorf("rollback: %w", err)
		}
		existing, err := s.GetConversion(ctx, c.ID)
		if err != nil {
			return Conversion{}, false, err
		}
		return existing, false, nil
	}

	ordinal := 0
	for _, group := range c.Errors.Errors {
		for _, d := range group.Details {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO conversion_details (conversion_id, ordinal, message, path)
				VALUES (?, ?, ?, ?)
			`, c.ID, ordinal, d.Message, d.Path)
			if err != nil {
				return Conversion{}, false, fmt.Errorf("record detail %d: %w", ordinal, err)
			}
			ordinal++
		}
	}

	if err := tx.Commit(); err != nil {
		return Conversion{}, false, fmt.Errorf("commit: %w", err)
	}
	return c, true, nil
}

// DeleteConversion removes a record and its details. Deleting an unknown ID
// is not an error.
func (s *Store) DeleteConversion(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversion: %w", err)
	}
	return nil
}
