package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/matcher"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <csv>",
		Short: "Match CSV author rows against the consultant directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			return ctx.withStore(func(cfg *config.Config, store *content.Store, logger *slog.Logger) error {
				report, err := matcher.New(cfg, store, logger).Run(cmd.Context(), csvPath)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, report)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Bucket", "Rows"},
					[][]string{
						{"exact name", strconv.Itoa(report.ExactName)},
						{"fuzzy name", strconv.Itoa(report.FuzzyName)},
						{"exact email", strconv.Itoa(report.ExactEmail)},
						{"fuzzy email", strconv.Itoa(report.FuzzyEmail)},
						{"skipped (multi-author)", strconv.Itoa(report.Skipped)},
						{"unmatched", strconv.Itoa(report.Unmatched)},
						{"total", strconv.Itoa(report.Total)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Matched:   %s\n", report.MatchedFile)
				fmt.Fprintf(out, "Unmatched: %s\n", report.UnmatchedFile)
				fmt.Fprintf(out, "Compiled:  %s\n", report.CompiledFile)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	return cmd
}
