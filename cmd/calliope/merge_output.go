package main

import (
	"fmt"
	"strings"

	"github.com/sydlexius/calliope/internal/reconcile"
)

const (
	maxValueWidth     = 48
	maxAlternateWidth = 24
)

// renderMerged renders a merged record as a per-field table followed by the
// overall merge confidence.
func renderMerged(m *reconcile.MergedMetadata) string {
	headers := []string{"Field", "Value", "Source", "Score", "Corroborated", "Alternates"}
	rows := make([][]string, 0, len(m.Decisions))
	for _, d := range m.Decisions {
		row := []string{string(d.Field), "-", "-", "", "", ""}
		if d.Value != nil {
			row[1] = truncate(displayValue(d.Field, *d.Value), maxValueWidth)
			row[2] = d.Provider.DisplayName()
			if score, ok := decisionScore(d); ok {
				row[3] = fmt.Sprintf("%.2f", score)
			}
			row[4] = yesNo(d.Corroborated)
			row[5] = formatAlternates(d)
		}
		rows = append(rows, row)
	}
	table := renderTable(headers, rows, 4)
	return fmt.Sprintf("%s\nMerge confidence: %.2f", table, m.MergeConfidence)
}

func displayValue(f reconcile.Field, v reconcile.Value) string {
	if f == reconcile.FieldDuration && v.Num > 0 {
		return formatSeconds(v.Num)
	}
	return v.String()
}

// decisionScore looks up the winning candidate's score among the ranked
// alternates.
func decisionScore(d reconcile.FieldDecision) (float64, bool) {
	for _, alt := range d.Alternates {
		if alt.Provider == d.Provider {
			return alt.Score, true
		}
	}
	return 0, false
}

func formatAlternates(d reconcile.FieldDecision) string {
	var parts []string
	for _, alt := range d.Alternates {
		if alt.Provider == d.Provider {
			continue
		}
		value := truncate(displayValue(d.Field, alt.Value), maxAlternateWidth)
		parts = append(parts, fmt.Sprintf("%s: %s (%.2f)", alt.Provider, value, alt.Score))
	}
	return strings.Join(parts, "; ")
}
