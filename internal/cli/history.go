package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/variantforge/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	Key   string
}

// RunDetail is the JSON payload of history <run-id>.
type RunDetail struct {
	RunID      string            `json:"run_id"`
	Placements []store.Placement `json:"placements"`
	Failures   []store.Failure   `json:"failures"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show the generation run log",
		Long: `Without arguments, list recent runs, newest first. With a run ID, show
what the run placed and which combinations it discarded. With --key, list
every placement of one combination across runs; the key may be the
abbreviated form shown in the KEY column of a run's placements.

Examples:
  variantforge history
  variantforge history --limit 5 --format json
  variantforge history 01926f3e-7b1c-7d2a-9f00-3c5e8a1b2c4d
  variantforge history --key 3f9a1c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Key != "" {
				if len(args) > 0 {
					return NewExitError(ExitCommandError, "a run id and --key are mutually exclusive")
				}
				return runHistoryKey(cmd, opts)
			}
			if len(args) == 1 {
				return runHistoryDetail(cmd, opts, args[0])
			}
			return runHistoryList(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Key, "key", "", "list placements whose combination key starts with this prefix")

	return cmd
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.StartedAt,
			r.Surface,
			r.ComponentName,
			r.Status,
			strconv.Itoa(r.Placed),
			strconv.Itoa(r.Failed),
		}
	}
	return opts.formatter(cmd).Table(
		[]string{"RUN", "STARTED", "PAGE", "COMPONENT", "STATUS", "PLACED", "FAILED"},
		rows, runs)
}

func runHistoryDetail(cmd *cobra.Command, opts *HistoryOptions, runID string) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	placements, err := st.RunPlacements(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read placements", err)
	}
	failures, err := st.RunFailures(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read failures", err)
	}

	f := opts.formatter(cmd)
	if opts.Format == "json" {
		return f.Success(RunDetail{RunID: runID, Placements: placements, Failures: failures})
	}

	rows := make([][]string, len(placements))
	for i, p := range placements {
		rows[i] = []string{strconv.Itoa(p.Seq), p.Name, p.X, p.Y, shortKey(p.Key), p.Combination}
	}
	if err := f.Table([]string{"SEQ", "NAME", "X", "Y", "KEY", "COMBINATION"}, rows, nil); err != nil {
		return err
	}
	if len(failures) == 0 {
		return nil
	}

	rows = make([][]string, len(failures))
	for i, fl := range failures {
		rows[i] = []string{
			strconv.Itoa(fl.CombinationIndex),
			fl.NestedID,
			fl.Code,
			fl.Reason,
			fl.Combination,
		}
	}
	return f.Table([]string{"INDEX", "NESTED", "CODE", "REASON", "COMBINATION"}, rows, nil)
}

func runHistoryKey(cmd *cobra.Command, opts *HistoryOptions) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	placements, err := st.PlacementsByKey(cmd.Context(), opts.Key)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read placements", err)
	}

	rows := make([][]string, len(placements))
	for i, p := range placements {
		rows[i] = []string{p.RunID, p.InstanceID, p.Name, p.X, p.Y}
	}
	return opts.formatter(cmd).Table(
		[]string{"RUN", "INSTANCE", "NAME", "X", "Y"},
		rows, placements)
}

// shortKey abbreviates a combination key for tables.
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
