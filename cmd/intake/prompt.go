package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"intake/internal/taxonomy"
)

// resolveMismatch asks the operator to map an unknown CSV value to one of
// the offered options, an arbitrary value, or a skip. Without a terminal the
// run aborts with the flag invocation that would resolve it.
func resolveMismatch(cmd *cobra.Command, mismatch *taxonomy.Mismatch) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf(
			"unresolved value %q (%s); re-run with --map %q=<value> or --map %q=%s",
			mismatch.CSVValue, mismatch.Context,
			mismatch.MappingKey, mismatch.MappingKey, taxonomy.Skip,
		)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nUnknown value %q\n  %s\n", mismatch.CSVValue, mismatch.Context)
	for i, option := range mismatch.Options {
		fmt.Fprintf(out, "  %3d) %s\n", i+1, option.Label)
	}
	fmt.Fprintf(out, "Pick a number, type a value, or \"s\" to skip this value everywhere: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		answer := strings.TrimSpace(scanner.Text())
		switch {
		case answer == "":
			fmt.Fprintf(out, "Pick a number, a value, or \"s\": ")
			continue
		case answer == "s" || strings.EqualFold(answer, "skip"):
			return taxonomy.Skip, nil
		}
		if n, err := strconv.Atoi(answer); err == nil {
			if n < 1 || n > len(mismatch.Options) {
				fmt.Fprintf(out, "Out of range; pick 1-%d: ", len(mismatch.Options))
				continue
			}
			return mismatch.Options[n-1].Value, nil
		}
		return answer, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return "", fmt.Errorf("input closed while resolving %q", mismatch.CSVValue)
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
