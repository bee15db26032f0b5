package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/variantforge/internal/catalog"
	"github.com/roach88/variantforge/internal/document"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Text int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <document>",
		Short: "List component sets available for generation",
		Long: `List the public component sets in a document with the number of
instances generating each would produce.

Component sets whose names start with "." or "_" are private and skipped,
as are sets whose properties cannot be read.

Examples:
  variantforge list library.yaml
  variantforge list library.cue --text 2
  variantforge list library.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Text, "text", 0, "samples per TEXT property (default generation.text_samples)")

	return cmd
}

func runList(cmd *cobra.Command, opts *ListOptions, path string) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}

	host, err := document.LoadMemory(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load document", err)
	}

	text := intFlag(cmd, "text", opts.Text, e.cfg.Generation.TextSamples)
	cat := catalog.New(catalog.WithTextSamples(text), catalog.WithLogger(e.log))
	summaries, err := cat.Discover(cmd.Context(), host)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to discover components", err)
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.Name,
			string(s.ID),
			strconv.Itoa(s.Properties),
			strconv.Itoa(s.Combinations),
			fmt.Sprintf("%d/%d", s.NestedCombinations, s.NestedInstances),
			strconv.Itoa(s.TextCount),
		}
	}
	return opts.formatter(cmd).Table(
		[]string{"NAME", "ID", "PROPERTIES", "COMBINATIONS", "NESTED", "TEXT"},
		rows, summaries)
}
