package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/render"
)

type formatOptions struct {
	asJSON         bool
	nonInteractive bool
	disambiguate   bool
	showShape      bool
}

func newRootCmd() *cobra.Command {
	opts := &formatOptions{}

	cmd := &cobra.Command{
		Use:   "clarityfmt [text...]",
		Short: "Format a calendar reply for display",
		Long: `Interprets a calendar assistant reply (markdown day headers, a flat
"You have N events" sentence, or free text) and renders it grouped by day.
Text is read from the arguments, or from stdin when none are given.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), cmd.ErrOrStderr(), text, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.asJSON, "json", false, "print the structured document as JSON")
	flags.BoolVar(&opts.nonInteractive, "non-interactive", false, "pass text through without interpretation")
	flags.BoolVar(&opts.disambiguate, "disambiguate", false, "number repeated day headers instead of replacing them")
	flags.BoolVar(&opts.showShape, "shape", false, "print the detected reply shape to stderr")

	cmd.AddCommand(newAskCmd(opts))

	return cmd
}

func readInput(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func writeFormatted(out, errOut io.Writer, text string, opts *formatOptions) error {
	formatter := calformat.New(calformat.Options{DisambiguateDuplicateDays: opts.disambiguate})
	resp := formatter.FormatFor(text, !opts.nonInteractive)

	if opts.showShape {
		fmt.Fprintf(errOut, "shape: %s\n", calformat.Shape(text))
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	_, err := io.WriteString(out, render.New(out).Render(resp))
	return err
}
