// Command erd lays out, checks and previews entity-relationship diagrams.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"erd/config"
	"erd/diagram"
	"erd/export"
	"erd/geometry"
	"erd/importer"
	"erd/layout"
	"erd/metrics"
)

// app holds the state shared by every subcommand.
type app struct {
	configPath  string
	verbose     bool
	metricsPath string

	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "erd",
		Short: "Lay out entity-relationship diagrams",
		Long: `erd places the entities, relationship markers and attributes of an
ER diagram so that nothing overlaps, then writes the positioned diagram
as JSON, YAML, Mermaid or Graphviz.

Input may be JSON, YAML, Mermaid erDiagram or Graphviz DOT; the format is
detected from the content unless --input-format is given.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML file overriding layout constants")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log layout decisions at debug level")
	flags.StringVar(&a.metricsPath, "metrics", "", "write Prometheus metrics to this file after the run (- for stderr)")

	root.AddCommand(newLayoutCmd(a), newCheckCmd(a), newPreviewCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg, a.logger = cfg, logger
	a.metrics = metrics.NewRegistry()
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.metricsPath == "" || a.metrics == nil {
		return nil
	}

	if a.metricsPath == "-" {
		return a.metrics.WriteText(cmd.ErrOrStderr())
	}
	f, err := os.Create(a.metricsPath)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer f.Close()
	return a.metrics.WriteText(f)
}

func (a *app) engine() *layout.Engine {
	return layout.NewEngine(a.cfg.Layout,
		layout.WithLogger(a.logger),
		layout.WithRecorder(a.metrics))
}

// readInput reads path, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readDiagram loads path in the given format or the detected one.
func readDiagram(cmd *cobra.Command, path, format string) (*diagram.Diagram, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}

	registry := importer.NewImporterRegistry()
	if format == "" {
		return registry.Import(string(data))
	}
	return registry.ImportWithFormat(string(data), format)
}

// render exports d in format.
func render(d *diagram.Diagram, format string) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	exp, err := export.NewExporter(f)
	if err != nil {
		return "", err
	}
	out, err := exp.Export(d)
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", exp.GetFormatName(), err)
	}
	return out, nil
}

// writeOutput writes content to path, or to stdout when path is empty or "-".
func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// writeDiagram exports d to path. An empty format is taken from the
// extension of path, else JSON.
func writeDiagram(cmd *cobra.Command, d *diagram.Diagram, path, format string) error {
	if format == "" {
		format = string(export.FormatJSON)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			format = ext
		}
	}
	out, err := render(d, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd, path, out)
}

// parseCenter parses "x,y".
func parseCenter(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("invalid center %q: want x,y", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return geometry.Point{}, fmt.Errorf("invalid center %q: want x,y", s)
	}
	p := geometry.Point{X: x, Y: y}
	if !p.IsFinite() {
		return geometry.Point{}, fmt.Errorf("invalid center %q: not finite", s)
	}
	return p, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
