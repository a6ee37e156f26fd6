package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"intake/internal/api"
	"intake/internal/batch"
	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/jobs"
	"intake/internal/runner"
	"intake/internal/taxonomy"
)

type runOptions struct {
	apply    bool
	limit    int
	asJSON   bool
	mappings []string
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return newRunCommand(ctx, jobs.KindImport, "import <csv>",
		"Create or update content records from a migration CSV")
}

func newAttachCommand(ctx *commandContext) *cobra.Command {
	return newRunCommand(ctx, jobs.KindAttach, "attach <csv>",
		"Download files referenced by a CSV and attach them to records")
}

func newAssignCommand(ctx *commandContext) *cobra.Command {
	return newRunCommand(ctx, jobs.KindAssign, "assign <csv>",
		"Assign category terms and audiences to records from a CSV")
}

func newRunCommand(ctx *commandContext, kind jobs.Kind, use, short string) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return runBatch(cmd, ctx, kind, csvPath, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write changes instead of previewing them")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Process at most this many rows (0 = all)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Emit the run summary as JSON")
	if kind == jobs.KindAssign {
		cmd.Flags().StringArrayVar(&opts.mappings, "map", nil,
			"Pre-resolve a mismatch as key=value (value may be "+taxonomy.Skip+"); repeatable")
	}
	return cmd
}

func runBatch(cmd *cobra.Command, ctx *commandContext, kind jobs.Kind, csvPath string, opts runOptions) error {
	memory, err := parseMappings(opts.mappings)
	if err != nil {
		return err
	}
	mode := jobs.ModePreview
	if opts.apply {
		mode = jobs.ModeApply
	}

	return ctx.withService(func(cfg *config.Config, store *content.Store, service *runner.Service) error {
		if opts.apply {
			release, err := service.Lock()
			if err != nil {
				return err
			}
			defer release()
		}

		job, err := service.Start(cmd.Context(), kind, csvPath, mode, opts.limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !opts.asJSON {
			fmt.Fprintf(out, "Job %s: %d row(s), mode %s\n", job.ID, job.Total, mode)
		}

		totals := batch.Counters{}
		var entries []batch.Entry
		offset := 0
		for {
			_, result, err := service.Step(cmd.Context(), job.ID, offset, memory)
			if err != nil {
				return err
			}
			if result.Suspended() {
				// Rows before the suspension re-run after the resolution, so
				// the partial counters and log are dropped here.
				resolution, err := resolveMismatch(cmd, result.Mismatch)
				if err != nil {
					return err
				}
				memory[result.Mismatch.MappingKey] = resolution
				continue
			}

			for name, value := range result.Counters {
				totals.Add(name, value)
			}
			entries = append(entries, result.Log...)
			if !opts.asJSON {
				printEntries(cmd, result.Log)
			}
			offset = result.NextOffset
			if result.Done {
				break
			}
		}

		if opts.asJSON {
			summary := api.FromStepResult(&batch.StepResult{
				Counters:   totals,
				Log:        entries,
				NextOffset: offset,
				Done:       true,
			})
			summary.Mode = string(mode)
			return writeJSON(cmd, summary)
		}
		fmt.Fprintln(out, renderCounters(totals))
		return nil
	})
}

// parseMappings turns repeated --map key=value flags into resolution memory.
func parseMappings(raw []string) (taxonomy.Memory, error) {
	memory := taxonomy.Memory{}
	for _, mapping := range raw {
		key, value, ok := strings.Cut(mapping, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --map %q (want key=value)", mapping)
		}
		memory[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return memory, nil
}

func printEntries(cmd *cobra.Command, entries []batch.Entry) {
	out := cmd.OutOrStdout()
	for _, entry := range entries {
		fmt.Fprintf(out, "[%s] %s\n", entry.Level, entry.Message)
	}
}
