// Command import converts a database schema or a diagram file into an erd
// diagram document.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"erd/config"
	"erd/dbschema"
	"erd/diagram"
	"erd/export"
	"erd/geometry"
	"erd/importer"
	"erd/layout"
)

type options struct {
	input       string
	inputFormat string
	sqlitePath  string
	postgresURL string
	mysqlDSN    string
	schema      string
	tables      []string
	output      string
	format      string
	layout      bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert a database schema or diagram file to an erd diagram",
		Long: `Reads tables, columns and foreign keys from a live database, or a
diagram from a file, and writes an erd diagram document. Tables become
entities, columns become attributes and foreign keys become relationships.

Examples:
  import --sqlite shop.db -o shop.json
  import --db-url postgres://localhost/shop --schema public --layout
  import --mysql-url 'user:pass@tcp(localhost:3306)/shop' --tables orders,customers
  import -i shop.mmd -f yaml`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "diagram file to convert (- for stdin)")
	f.StringVar(&opts.inputFormat, "input-format", "", "diagram file format (detected when empty)")
	f.StringVar(&opts.sqlitePath, "sqlite", "", "SQLite database file")
	f.StringVar(&opts.postgresURL, "db-url", "", "PostgreSQL connection string")
	f.StringVar(&opts.mysqlDSN, "mysql-url", "", "MySQL DSN")
	f.StringVar(&opts.schema, "schema", "public", "PostgreSQL schema")
	f.StringSliceVar(&opts.tables, "tables", nil, "tables to import (default: all)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVarP(&opts.format, "format", "f", "json", "output format: json, yaml, mermaid, dot")
	f.BoolVar(&opts.layout, "layout", false, "lay the imported diagram out")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.MarkFlagsMutuallyExclusive("input", "sqlite", "db-url", "mysql-url")
	cmd.MarkFlagsOneRequired("input", "sqlite", "db-url", "mysql-url")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg := config.Default()
	logger, err := cfg.Log.NewLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	d, err := load(cmd, opts)
	if err != nil {
		return err
	}
	logger.Info("imported diagram",
		zap.Int("entities", len(d.Entities)),
		zap.Int("relationships", len(d.Relationships)),
		zap.Int("attributes", d.AttributeCount()))

	if opts.layout {
		eng := layout.NewEngine(cfg.Layout, layout.WithLogger(logger))
		d = layout.Apply(d, eng.AutoLayout(d, geometry.Point{}))
	}

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	exp, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	out, err := exp.Export(d)
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", exp.GetFormatName(), err)
	}

	if opts.output == "" || opts.output == "-" {
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Successfully imported diagram to %s\n", opts.output)
	return nil
}

func load(cmd *cobra.Command, opts *options) (*diagram.Diagram, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		ex  dbschema.Extractor
		err error
	)
	switch {
	case opts.sqlitePath != "":
		ex, err = dbschema.OpenSQLite(ctx, opts.sqlitePath)
	case opts.postgresURL != "":
		ex, err = dbschema.OpenPostgres(ctx, opts.postgresURL, opts.schema)
	case opts.mysqlDSN != "":
		ex, err = dbschema.OpenMySQL(ctx, opts.mysqlDSN)
	default:
		return loadFile(cmd, opts)
	}
	if err != nil {
		return nil, err
	}
	defer ex.Close()

	s, err := ex.ExtractSchema(ctx, opts.tables)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	return dbschema.ToDiagram(s), nil
}

func loadFile(cmd *cobra.Command, opts *options) (*diagram.Diagram, error) {
	var (
		data []byte
		err  error
	)
	if opts.input == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(opts.input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	registry := importer.NewImporterRegistry()
	if opts.inputFormat != "" {
		return registry.ImportWithFormat(string(data), opts.inputFormat)
	}
	return registry.Import(string(data))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
