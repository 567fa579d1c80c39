package dbschema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresExtractor reads schemas from information_schema over a pgx
// connection.
type PostgresExtractor struct {
	conn   *pgx.Conn
	schema string
}

// OpenPostgres connects to connString and reads tables from schemaName,
// "public" when empty.
func OpenPostgres(ctx context.Context, connString, schemaName string) (*PostgresExtractor, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresExtractor{conn: conn, schema: schemaName}, nil
}

// Close closes the connection.
func (e *PostgresExtractor) Close() error {
	return e.conn.Close(context.Background())
}

// ExtractSchema implements Extractor.
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*Schema, error) {
	names, err := e.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	s := &Schema{}
	for _, name := range names {
		t := Table{Name: name}
		if t.Columns, err = e.columns(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract columns of %s: %w", name, err)
		}
		if t.PrimaryKey, err = e.primaryKey(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract primary key of %s: %w", name, err)
		}
		if t.ForeignKeys, err = e.foreignKeys(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract foreign keys of %s: %w", name, err)
		}
		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

func (e *PostgresExtractor) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, e.schema)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (e *PostgresExtractor) columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT column_name, data_type, udt_name, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, e.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var name, dataType, udtName, nullable string
		if err := rows.Scan(&name, &dataType, &udtName, &nullable); err != nil {
			return nil, err
		}
		typ := dataType
		if dataType == "USER-DEFINED" || dataType == "ARRAY" {
			typ = udtName
		}
		cols = append(cols, Column{Name: name, Type: typ, Nullable: nullable == "YES"})
	}
	return cols, rows.Err()
}

func (e *PostgresExtractor) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`, e.schema, table)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (e *PostgresExtractor) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
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
