package dbschema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLExtractor reads schemas from MySQL's information_schema.
type MySQLExtractor struct {
	db     *sql.DB
	schema string
}

// OpenMySQL connects with a go-sql-driver DSN such as
// "user:pass@tcp(host:3306)/shop". Tables are read from the DSN's database.
func OpenMySQL(ctx context.Context, dsn string) (*MySQLExtractor, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("MySQL DSN names no database")
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &MySQLExtractor{db: db, schema: cfg.DBName}, nil
}

// Close closes the database handle.
func (e *MySQLExtractor) Close() error {
	return e.db.Close()
}

// ExtractSchema implements Extractor.
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, tables []string) (*Schema, error) {
	names, err := e.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	s := &Schema{}
	for _, name := range names {
		t := Table{Name: name}
		if t.Columns, t.PrimaryKey, err = e.columns(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract columns of %s: %w", name, err)
		}
		if t.ForeignKeys, err = e.foreignKeys(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract foreign keys of %s: %w", name, err)
		}
		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

func (e *MySQLExtractor) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, e.schema)
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

// columns returns the table's columns and, from COLUMN_KEY, its primary key.
func (e *MySQLExtractor) columns(ctx context.Context, table string) ([]Column, []string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT column_name, column_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, e.schema, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		cols []Column
		pk   []string
	)
	for rows.Next() {
		var name, typ, nullable, key string
		if err := rows.Scan(&name, &typ, &nullable, &key); err != nil {
			return nil, nil, err
		}
		cols = append(cols, Column{Name: name, Type: typ, Nullable: nullable == "YES"})
		if key == "PRI" {
			pk = append(pk, name)
		}
	}
	return cols, pk, rows.Err()
}

func (e *MySQLExtractor) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ?
			AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position
	`, e.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
