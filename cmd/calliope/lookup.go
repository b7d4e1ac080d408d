package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/reconcile"
)

// lookupResult couples a merged record with the source records behind it,
// so pins can be re-applied against the same pool.
type lookupResult struct {
	Merged  *reconcile.MergedMetadata
	Records []reconcile.SourceRecord
	Errors  []string
}

// runLookup gathers records from every registered provider and merges them.
func runLookup(ctx context.Context, env *appEnv, q reconcile.Query) (*lookupResult, error) {
	if q.Title == "" && q.Artist == "" {
		return nil, fmt.Errorf("a title or artist is required")
	}

	res, err := env.orch.Gather(ctx, q)
	if err != nil {
		return nil, err
	}
	merged, err := env.merger.Merge(res.Records)
	if err != nil {
		if errors.Is(err, reconcile.ErrNoMetadataAvailable) {
			return nil, noMetadataError(res)
		}
		return nil, err
	}
	return &lookupResult{Merged: merged, Records: res.Records, Errors: res.Errors}, nil
}

func noMetadataError(res *provider.GatherResult) error {
	var b strings.Builder
	b.WriteString("no provider returned metadata for this track")
	for _, e := range res.Errors {
		b.WriteString("\n  ")
		b.WriteString(e)
	}
	b.WriteString("\nCheck enabled providers and credentials with `calliope providers`.")
	return errors.New(b.String())
}

// interactiveOverrides shows the merged record and lets the user pin fields
// to specific providers until the result is accepted. Prompts go to stderr
// so stdout stays clean for the final output.
func interactiveOverrides(cmd *cobra.Command, env *appEnv, lr *lookupResult) (*reconcile.MergedMetadata, error) {
	errOut := cmd.ErrOrStderr()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	merged := lr.Merged
	var pins []reconcile.Pin
	for {
		fmt.Fprintln(errOut, renderMerged(merged))
		fmt.Fprintln(errOut, `Pin a field with "<field> <provider>", or press Enter to accept.`)
		fmt.Fprint(errOut, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "done" || line == "accept" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) != 2 {
			fmt.Fprintln(errOut, `expected "<field> <provider>", e.g. "year discogs"`)
			continue
		}
		field, err := reconcile.ParseField(parts[0])
		if err != nil {
			fmt.Fprintln(errOut, err)
			continue
		}
		prov, err := reconcile.ParseProvider(parts[1])
		if err != nil {
			fmt.Fprintln(errOut, err)
			continue
		}

		// The full pin set is re-applied each round. An inapplicable pin is
		// reported and rolled back so it is not re-reported on later rounds.
		prev := slices.Clone(pins)
		pins = upsertPin(pins, reconcile.Pin{Field: field, Provider: prov})
		next, err := env.merger.ApplyOverrides(lr.Merged, lr.Records, pins)
		if err != nil {
			fmt.Fprintf(errOut, "cannot apply: %v\n", err)
			pins = prev
			continue
		}
		merged = next
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return merged, nil
}

func upsertPin(pins []reconcile.Pin, pin reconcile.Pin) []reconcile.Pin {
	for i, p := range pins {
		if p.Field == pin.Field {
			pins[i] = pin
			return pins
		}
	}
	return append(pins, pin)
}
