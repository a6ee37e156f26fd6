package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"intake/internal/api"
	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/jobs"
	"intake/internal/runner"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var apply bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove record link entries that point at nothing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := jobs.ModePreview
			if apply {
				mode = jobs.ModeApply
			}

			return ctx.withService(func(cfg *config.Config, store *content.Store, service *runner.Service) error {
				if apply {
					release, err := service.Lock()
					if err != nil {
						return err
					}
					defer release()
				}

				result, err := service.Cleanup(cmd.Context(), mode)
				if err != nil {
					return err
				}
				if asJSON {
					summary := api.FromStepResult(result)
					summary.Mode = string(mode)
					return writeJSON(cmd, summary)
				}

				printEntries(cmd, result.Log)
				fmt.Fprintln(cmd.OutOrStdout(), renderCounters(result.Counters))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Remove the entries instead of previewing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the summary as JSON")
	return cmd
}
