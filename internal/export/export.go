// Package export writes a record store in formats other consumers read:
// indented JSON, MessagePack, or a SQLite database with one row per record.
//
// Every format is written to a temporary file next to the destination and
// renamed into place, so an existing export is replaced atomically.
package export

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"mxguide/internal/fsutil"
	"mxguide/internal/logging"
	"mxguide/internal/record"
)

// Format is an export format.
type Format string

const (
	JSON    Format = "json"
	MsgPack Format = "msgpack"
	SQLite  Format = "sqlite"
)

// Formats lists the supported formats.
var Formats = []Format{JSON, MsgPack, SQLite}

//go:embed schema.sql
var sqliteSchema string

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "msgpack", "mpk":
		return MsgPack, nil
	case "sqlite", "sqlite3", "db":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, msgpack or sqlite)", s)
}

// Options configures an export.
type Options struct {
	Format Format

	// Path is the destination file. Its directory must exist.
	Path string

	// FileMode for the written file. Zero uses fsutil.DefaultFileMode.
	FileMode os.FileMode

	Logger *slog.Logger
}

// Result describes a finished export.
type Result struct {
	Path    string
	Records int
	Bytes   int64
}

// Export writes doc to opts.Path in opts.Format.
func Export(ctx context.Context, doc *record.Document, opts Options) (Result, error) {
	if opts.Path == "" {
		return Result{}, fmt.Errorf("export: output path is required")
	}
	logger := logging.Default(opts.Logger).With("component", "export", "format", string(opts.Format))

	var err error
	switch opts.Format {
	case JSON:
		_, err = fsutil.WriteJSON(opts.Path, doc, opts.FileMode)
	case MsgPack:
		err = writeMsgPack(opts.Path, doc, opts.FileMode)
	case SQLite:
		err = writeSQLite(ctx, opts.Path, doc, opts.FileMode)
	default:
		return Result{}, fmt.Errorf("unknown export format %q", opts.Format)
	}
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", opts.Format, err)
	}

	res := Result{Path: opts.Path, Records: len(doc.Errors)}
	if info, err := os.Stat(opts.Path); err == nil {
		res.Bytes = info.Size()
	}
	logger.Info("export written", "path", res.Path, "records", res.Records, "bytes", res.Bytes)
	return res, nil
}

// EncodeMsgPack encodes doc as {"errors": [ {...}, ... ]} with map keys sorted,
// so identical stores always produce identical bytes.
func EncodeMsgPack(doc *record.Document) ([]byte, error) {
	errs := make([]map[string]any, 0, len(doc.Errors))
	for i, r := range doc.Errors {
		fields, err := r.Fields()
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		errs = append(errs, fields)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(map[string]any{"errors": errs}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeMsgPack(path string, doc *record.Document, mode os.FileMode) error {
	data, err := EncodeMsgPack(doc)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, mode)
}

func writeSQLite(ctx context.Context, path string, doc *record.Document, mode os.FileMode) error {
	if mode == 0 {
		mode = fsutil.DefaultFileMode
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := fillDatabase(ctx, tmpPath, doc); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func fillDatabase(ctx context.Context, path string, doc *record.Document) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO errors
		(position, code, name, category, severity, description, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range doc.Errors {
		_, err := stmt.ExecContext(ctx, i,
			column(r, record.FieldCode),
			column(r, record.FieldName),
			column(r, record.FieldCategory),
			column(r, record.FieldSeverity),
			column(r, record.FieldDescription),
			string(r.Raw()),
		)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// column returns a field as a nullable text value.
func column(r record.Record, field string) sql.NullString {
	s, ok := r.String(field)
	return sql.NullString{String: s, Valid: ok}
}
