package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"erd/diagram"
	"erd/geometry"
	"erd/importer"
	"erd/layout"
	"erd/markdown"
)

type layoutOptions struct {
	inputFormat string
	format      string
	output      string
	center      string
	view        string
	attributes  bool
	markdown    bool
	block       int
}

func newLayoutCmd(a *app) *cobra.Command {
	opts := &layoutOptions{}

	cmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Place every entity, relationship marker and attribute",
		Long: `Places the entities of FILE on a spiral around the viewport center,
then puts each relationship marker between its entities. With --attributes
the diagram is expanded and attributes are arranged around their entity.
With --view table the tables are stacked in a diagonal cascade instead.

With --markdown, FILE is a Markdown document: the --block'th mermaid or dot
block is laid out and the document is written back with that block replaced.

Examples:
  erd layout shop.json
  erd layout --attributes -o shop.dot shop.mmd
  erd layout --view table --center 640,360 shop.yaml
  erd layout --markdown --block 2 -o README.md README.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.markdown {
				return a.runMarkdownLayout(cmd, args[0], opts)
			}
			return a.runLayout(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.inputFormat, "input-format", "", "input format: json, yaml, mermaid, dot (detected when empty)")
	f.StringVarP(&opts.format, "format", "f", "", "output format: json, yaml, mermaid, dot (default from -o, else json)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&opts.center, "center", "0,0", "viewport center as x,y")
	f.StringVar(&opts.view, "view", "", "er or table (default: the diagram's own view)")
	f.BoolVar(&opts.attributes, "attributes", false, "expand the diagram and lay out attributes")
	f.BoolVar(&opts.markdown, "markdown", false, "treat FILE as Markdown and lay out one diagram block")
	f.IntVar(&opts.block, "block", 1, "diagram block to lay out with --markdown (1-based)")
	cmd.MarkFlagsMutuallyExclusive("markdown", "input-format")
	cmd.MarkFlagsMutuallyExclusive("markdown", "format")
	return cmd
}

func (a *app) runLayout(cmd *cobra.Command, path string, opts *layoutOptions) error {
	center, err := parseCenter(opts.center)
	if err != nil {
		return err
	}
	d, err := readDiagram(cmd, path, opts.inputFormat)
	if err != nil {
		return err
	}

	out, err := a.layoutDiagram(d, center, opts)
	if err != nil {
		return err
	}
	a.logger.Info("layout complete",
		zap.String("file", path),
		zap.String("view", viewName(out.View)),
		zap.Int("entities", len(out.Entities)),
		zap.Int("relationships", len(out.Relationships)),
		zap.Int("attributes", out.AttributeCount()))

	return writeDiagram(cmd, out, opts.output, opts.format)
}

func (a *app) runMarkdownLayout(cmd *cobra.Command, path string, opts *layoutOptions) error {
	center, err := parseCenter(opts.center)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	scanner := markdown.NewScanner(string(data))
	block, err := scanner.Block(opts.block)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	format := block.Lang
	if format == "graphviz" {
		format = "dot"
	}
	d, err := importer.NewImporterRegistry().ImportWithFormat(block.Content, format)
	if err != nil {
		return fmt.Errorf("%s block %d: %w", path, opts.block, err)
	}

	out, err := a.layoutDiagram(d, center, opts)
	if err != nil {
		return err
	}
	text, err := render(out, format)
	if err != nil {
		return err
	}
	doc, err := scanner.ReplaceBlock(block, text)
	if err != nil {
		return err
	}

	a.logger.Info("markdown block laid out",
		zap.String("file", path),
		zap.String("block", markdown.FormatBlockInfo(block, opts.block)),
		zap.Int("entities", len(out.Entities)))
	return writeOutput(cmd, opts.output, doc)
}

// layoutDiagram applies the view's layout to a copy of d.
func (a *app) layoutDiagram(d *diagram.Diagram, center geometry.Point, opts *layoutOptions) (*diagram.Diagram, error) {
	view := d.View
	switch opts.view {
	case "":
	case "er":
		view = diagram.ViewER
	case string(diagram.ViewTable):
		view = diagram.ViewTable
	default:
		return nil, fmt.Errorf("unknown view %q: want er or table", opts.view)
	}

	eng := a.engine()
	var out *diagram.Diagram
	if view == diagram.ViewTable {
		out = layout.Apply(d, layout.Result{Entities: eng.StackTables(d.Entities, center)})
	} else {
		out = layout.Apply(d, eng.AutoLayout(d, center))
		if opts.attributes {
			out, _ = eng.ShowAttributes(out, center)
		}
	}
	out.View = view
	return out, nil
}

func viewName(v diagram.ViewMode) string {
	if v == diagram.ViewER {
		return "er"
	}
	return string(v)
}
