package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCursorCommand creates the cursor command group.
func NewCursorCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Inspect or reset persisted placement cursors",
		Long: `Every page keeps the position where the next generated instance goes.
Resetting a page's cursor makes the next run start again at the origin.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List the cursor of every page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCursorShow(cmd, rootOpts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset <page>",
		Short: "Move a page's cursor back to the origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCursorReset(cmd, rootOpts, args[0])
		},
	})

	return cmd
}

func runCursorShow(cmd *cobra.Command, opts *RootOptions) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cursors, err := st.ListCursors(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list cursors", err)
	}

	rows := make([][]string, len(cursors))
	for i, c := range cursors {
		x, y := c.Cursor.Strings()
		rows[i] = []string{c.Surface, x, y, c.UpdatedAt}
	}
	return opts.formatter(cmd).Table([]string{"PAGE", "X", "Y", "UPDATED"}, rows, cursors)
}

func runCursorReset(cmd *cobra.Command, opts *RootOptions, surface string) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ResetCursor(cmd.Context(), surface); err != nil {
		return WrapExitError(ExitCommandError, "failed to reset cursor", err)
	}
	return opts.formatter(cmd).Success(fmt.Sprintf("Cursor reset for %q", surface))
}
