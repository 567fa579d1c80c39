package dbschema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteExtractor reads schemas through SQLite PRAGMAs.
type SQLiteExtractor struct {
	db *sql.DB
}

// OpenSQLite opens the database file at path and checks the connection.
func OpenSQLite(ctx context.Context, path string) (*SQLiteExtractor, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewSQLiteExtractor(db), nil
}

// NewSQLiteExtractor wraps an open SQLite handle.
func NewSQLiteExtractor(db *sql.DB) *SQLiteExtractor {
	return &SQLiteExtractor{db: db}
}

// Close closes the database handle.
func (e *SQLiteExtractor) Close() error {
	return e.db.Close()
}

// ExtractSchema implements Extractor.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*Schema, error) {
	names, err := e.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	s := &Schema{}
	for _, name := range names {
		t, err := e.extractTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", name, err)
		}
		s.Tables = append(s.Tables, *t)
	}
	return s, nil
}

func (e *SQLiteExtractor) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (e *SQLiteExtractor) extractTable(ctx context.Context, name string) (*Table, error) {
	t := &Table{Name: name}

	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLite(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	defer rows.Close()

	type pkColumn struct {
		name  string
		order int
	}
	var pks []pkColumn
	for rows.Next() {
		var (
			cid, notNull, pk int
			colName, colType string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, Column{Name: colName, Type: colType, Nullable: notNull == 0 && pk == 0})
		if pk > 0 {
			pks = append(pks, pkColumn{colName, pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("no such table")
	}

	t.PrimaryKey = make([]string, len(pks))
	for _, p := range pks {
		if p.order-1 < len(t.PrimaryKey) {
			t.PrimaryKey[p.order-1] = p.name
		}
	}

	fks, err := e.foreignKeys(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	t.ForeignKeys = fks
	return t, nil
}

func (e *SQLiteExtractor) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteSQLite(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var (
			id, seq                                 int
			target, from, onUpdate, onDelete, match string
			to                                      sql.NullString
		)
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fks = append(fks, ForeignKey{Column: from, RefTable: target, RefColumn: to.String})
	}
	return fks, rows.Err()
}

// quoteSQLite quotes an identifier for use inside a PRAGMA.
func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
