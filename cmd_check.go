package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"erd/diagram"
	"erd/validation"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		inputFormat string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Report overlapping nodes in a laid-out diagram",
		Long: `Checks every entity, relationship marker and attribute of FILE against
the engine's collision rules. Overlaps the engine accepts as best effort are
warnings unless --strict is given. The command fails when any error is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDiagram(cmd, args[0], inputFormat)
			if err != nil {
				return err
			}
			if err := diagram.Validate(d); err != nil {
				return err
			}

			v := validation.NewLayoutValidator(a.cfg.Layout)
			v.SetStrictMode(strict)
			issues := v.Validate(d)
			printIssues(cmd, issues)

			if validation.HasErrors(issues) {
				return fmt.Errorf("%s: layout has errors", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format (detected when empty)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat best-effort overlaps as errors")
	return cmd
}

func printIssues(cmd *cobra.Command, issues []validation.Issue) {
	w := cmd.OutOrStdout()
	if len(issues) == 0 {
		color.New(color.FgGreen).Fprintln(w, "OK: no overlaps")
		return
	}

	errStyle := color.New(color.FgRed, color.Bold)
	warnStyle := color.New(color.FgYellow)
	nErr, nWarn := 0, 0
	for _, i := range issues {
		if i.Severity == validation.SeverityError {
			nErr++
			errStyle.Fprintln(w, i.String())
		} else {
			nWarn++
			warnStyle.Fprintln(w, i.String())
		}
	}
	fmt.Fprintf(w, "%d error(s), %d warning(s)\n", nErr, nWarn)
}
