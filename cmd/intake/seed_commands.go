package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"intake/internal/batch"
	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/csvfile"
	"intake/internal/taxonomy"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load directory data into the content datastore",
	}

	seedCmd.AddCommand(newSeedConsultantsCommand(ctx))
	seedCmd.AddCommand(newSeedTermsCommand(ctx))

	return seedCmd
}

// newSeedConsultantsCommand loads the consultant directory from a CSV with
// ID, Name, and Email columns.
func newSeedConsultantsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "consultants <csv>",
		Short: "Load the consultant directory from a CSV (ID, Name, Email)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *content.Store, logger *slog.Logger) error {
				source, err := openSeedSource(args[0], "ID", "Name")
				if err != nil {
					return err
				}

				loaded := 0
				for i, row := range source.All() {
					id, err := strconv.ParseInt(row.Get("ID"), 10, 64)
					if err != nil || id <= 0 {
						return fmt.Errorf("row %d: bad consultant id %q", batch.RowNumber(0, i), row.Get("ID"))
					}
					consultant := content.Consultant{ID: id, Name: row.Get("Name"), Email: row.Get("Email")}
					if err := store.AddConsultant(cmd.Context(), consultant); err != nil {
						return err
					}
					loaded++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d consultant(s)\n", loaded)
				return nil
			})
		},
	}
}

// newSeedTermsCommand loads the category term tree from a CSV with ID, Name,
// and Parent columns (empty or 0 parent marks a root term).
func newSeedTermsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "terms <csv>",
		Short: "Load the category term tree from a CSV (ID, Name, Parent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *content.Store, logger *slog.Logger) error {
				source, err := openSeedSource(args[0], "ID", "Name")
				if err != nil {
					return err
				}

				loaded := 0
				for i, row := range source.All() {
					id, err := strconv.ParseInt(row.Get("ID"), 10, 64)
					if err != nil || id <= 0 {
						return fmt.Errorf("row %d: bad term id %q", batch.RowNumber(0, i), row.Get("ID"))
					}
					var parent int64
					if raw := row.Get("Parent"); raw != "" {
						if parent, err = strconv.ParseInt(raw, 10, 64); err != nil || parent < 0 {
							return fmt.Errorf("row %d: bad parent id %q", batch.RowNumber(0, i), raw)
						}
					}
					term := taxonomy.Term{ID: id, Name: row.Get("Name"), Parent: parent}
					if err := store.AddTerm(cmd.Context(), term); err != nil {
						return err
					}
					loaded++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d term(s)\n", loaded)
				return nil
			})
		},
	}
}

func openSeedSource(path string, required ...string) (*csvfile.Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	source, err := csvfile.Open(absPath)
	if err != nil {
		return nil, err
	}
	if _, err := source.Count(required...); err != nil {
		return nil, err
	}
	return source, nil
}
