package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"erd/layout"
	"erd/preview"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		inputFormat string
		relayout    bool
		attributes  bool
		center      string
	)

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show a diagram in the terminal",
		Long: `Draws FILE in the terminal. Arrow keys or hjkl pan, + and - zoom,
0 refits, a toggles attributes and q quits. With --layout the diagram is
laid out first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseCenter(center)
			if err != nil {
				return err
			}
			d, err := readDiagram(cmd, args[0], inputFormat)
			if err != nil {
				return err
			}
			if relayout {
				eng := a.engine()
				d = layout.Apply(d, eng.AutoLayout(d, c))
				if attributes {
					d, _ = eng.ShowAttributes(d, c)
				}
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialize screen: %w", err)
			}
			defer screen.Fini()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = preview.Run(ctx, screen, d, a.cfg.Layout, attributes)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&inputFormat, "input-format", "", "input format (detected when empty)")
	f.BoolVar(&relayout, "layout", false, "lay the diagram out before showing it")
	f.BoolVar(&attributes, "attributes", false, "show attributes")
	f.StringVar(&center, "center", "0,0", "viewport center used with --layout")
	return cmd
}
