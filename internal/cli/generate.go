package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/variantforge/internal/catalog"
	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/engine"
	"github.com/roach88/variantforge/internal/textgen"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Text int
	All  bool
	Out  string
	Seed uint64
}

// RequestReport is the outcome of one component's generation.
type RequestReport struct {
	Component    string `json:"component"`
	RunID        string `json:"run_id,omitempty"`
	Combinations int    `json:"combinations"`
	Placed       int    `json:"placed"`
	Failed       int    `json:"failed"`
	FastPath     bool   `json:"fast_path"`
	Code         string `json:"code,omitempty"`
	Notice       string `json:"notice,omitempty"`
}

// GenerateResult is the JSON payload of the generate command.
type GenerateResult struct {
	Page     string          `json:"page"`
	Requests []RequestReport `json:"requests"`
	Export   string          `json:"export,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <document> [component-id...]",
		Short: "Materialize every combination of component sets",
		Long: `Expand each component set into every combination of its property values
and place one instance per combination on the document's page.

Requests run one after another against the cursor stored for the page, so
repeated invocations keep packing below earlier output. Rejected
combinations are skipped and reported; a request that cannot start at all
(unknown component, no variants, too many combinations) is reported and the
command exits 1 after the remaining requests.

Examples:
  variantforge generate library.yaml 1:1 2:1
  variantforge generate library.yaml --all --out placed.yaml
  variantforge generate library.yaml 2:1 --text 3 --seed 42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args[0], args[1:])
		},
	}

	cmd.Flags().IntVar(&opts.Text, "text", 0, "samples per TEXT property (default generation.text_samples)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "generate every discoverable component set")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the placed instances to this YAML file")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "text generator seed (default generation.seed)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions, path string, ids []string) error {
	if len(ids) == 0 && !opts.All {
		return NewExitError(ExitCommandError, "no component ids given (use --all to generate every component set)")
	}
	if len(ids) > 0 && opts.All {
		return NewExitError(ExitCommandError, "component ids and --all are mutually exclusive")
	}

	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	host, err := document.LoadMemory(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load document", err)
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	text := intFlag(cmd, "text", opts.Text, e.cfg.Generation.TextSamples)
	seed := e.cfg.Generation.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.Seed
	}

	if opts.All {
		summaries, err := catalog.New(catalog.WithLogger(e.log)).Discover(ctx, host)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to discover components", err)
		}
		for _, s := range summaries {
			ids = append(ids, string(s.ID))
		}
	}

	orch := engine.NewOrchestrator(host, st,
		engine.WithGrid(e.cfg.Layout.Grid()),
		engine.WithSampler(textgen.NewGenerator(seed)),
		engine.WithRunRecorder(st),
		engine.WithMaxCombinations(e.cfg.Generation.MaxCombinations),
		engine.WithLogger(e.log),
	)

	result := GenerateResult{Page: host.Surface(), Requests: make([]RequestReport, 0, len(ids))}
	aborted := 0
	for _, id := range ids {
		req := engine.Request{ComponentID: document.NodeID(id), TextSamples: text}
		res, err := orch.Generate(ctx, req)
		if err != nil {
			aborted++
			code := string(engine.CodeOf(err))
			if code == "" {
				code = "ERROR"
			}
			result.Requests = append(result.Requests, RequestReport{
				Component: id,
				Code:      code,
				Notice:    engine.UserNotice(err),
			})
			continue
		}
		result.Requests = append(result.Requests, RequestReport{
			Component:    id,
			RunID:        res.RunID,
			Combinations: res.Combinations,
			Placed:       res.Placed,
			Failed:       len(res.Failures),
			FastPath:     res.FastPath,
		})
	}

	if opts.Out != "" {
		if err := writeExport(opts.Out, host.Export()); err != nil {
			return WrapExitError(ExitCommandError, "failed to write export", err)
		}
		result.Export = opts.Out
	}

	if err := outputGenerate(cmd, opts, result); err != nil {
		return err
	}
	if aborted > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d request(s) aborted", aborted))
	}
	return nil
}

func writeExport(path string, export document.Export) error {
	data, err := yaml.Marshal(export)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func outputGenerate(cmd *cobra.Command, opts *GenerateOptions, result GenerateResult) error {
	f := opts.formatter(cmd)
	if opts.Format == "json" {
		return f.Success(result)
	}

	rows := make([][]string, len(result.Requests))
	for i, r := range result.Requests {
		status := "completed"
		if r.Code != "" {
			status = r.Code
		}
		rows[i] = []string{
			r.Component,
			status,
			strconv.Itoa(r.Combinations),
			strconv.Itoa(r.Placed),
			strconv.Itoa(r.Failed),
		}
	}
	if err := f.Table([]string{"COMPONENT", "STATUS", "COMBINATIONS", "PLACED", "FAILED"}, rows, nil); err != nil {
		return err
	}
	for _, r := range result.Requests {
		if r.Notice != "" {
			fmt.Fprintf(f.Writer, "%s: %s\n", r.Component, r.Notice)
		}
	}
	if result.Export != "" {
		fmt.Fprintf(f.Writer, "Placed instances written to %s\n", result.Export)
	}
	return nil
}
