package reconcile

import "sort"

// Merger reconciles per-provider SourceRecords into MergedMetadata. It is
// stateless apart from its weights and safe for concurrent use.
type Merger struct {
	weights Weights
}

// NewMerger creates a Merger with the given scoring weights.
func NewMerger(w Weights) *Merger {
	return &Merger{weights: w}
}

// Weights returns the merger's scoring knobs.
func (m *Merger) Weights() Weights {
	return m.weights
}

// Merge reconciles the records field by field: per field it collects every
// non-null candidate, scores it (overall score plus corroboration bonus),
// and selects the highest with provider priority breaking ties. All
// candidates are kept as alternates for later override. An empty record set
// returns ErrNoMetadataAvailable.
func (m *Merger) Merge(records []SourceRecord) (*MergedMetadata, error) {
	pool := dedupeByProvider(records, m.weights)
	if len(pool) == 0 {
		return nil, ErrNoMetadataAvailable
	}

	merged := &MergedMetadata{
		Decisions: make([]FieldDecision, 0, fieldCount),
	}

	var scoreSum float64
	var scored int
	for _, f := range Fields() {
		d := m.decideField(f, pool)
		merged.Decisions = append(merged.Decisions, d)
		if d.Provider != "" {
			if c, ok := selectedCandidate(d); ok {
				scoreSum += c.Score
				scored++
			}
		}
	}
	// Fields with no candidate are excluded from the mean, not counted as
	// zero. All-empty input therefore yields confidence 0.
	if scored > 0 {
		merged.MergeConfidence = scoreSum / float64(scored)
	}

	return merged, nil
}

// decideField resolves one universal field independently and functionally:
// collect candidates, score, pick the maximum.
func (m *Merger) decideField(f Field, pool []SourceRecord) FieldDecision {
	d := FieldDecision{Field: f}

	type entry struct {
		record SourceRecord
		value  Value
	}
	var entries []entry
	for _, r := range pool {
		if v, ok := r.Value(f); ok {
			entries = append(entries, entry{record: r, value: v})
		}
	}
	if len(entries) == 0 {
		return d
	}

	// A candidate is corroborated when at least one other distinct provider
	// agrees with its normalized value. The bonus changes scores only,
	// never the literal values.
	bonused := make([]bool, len(entries))
	for i := range entries {
		for j := range entries {
			if i == j {
				continue
			}
			if valuesAgree(f, entries[i].value, entries[j].value) {
				bonused[i] = true
				d.Corroborated = true
				break
			}
		}
	}

	d.Alternates = make([]Candidate, len(entries))
	for i, e := range entries {
		score := m.weights.Overall(e.record)
		if bonused[i] {
			score = clamp01(score + m.weights.CorroborationBonus)
		}
		d.Alternates[i] = Candidate{
			Provider: e.record.Provider,
			Value:    e.value,
			Score:    score,
		}
	}

	// Providers are unique within the pool, so score plus priority is a
	// total order and the sort is deterministic.
	sort.Slice(d.Alternates, func(i, j int) bool {
		a, b := d.Alternates[i], d.Alternates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Provider.Priority() > b.Provider.Priority()
	})

	winner := d.Alternates[0]
	v := winner.Value
	d.Value = &v
	d.Provider = winner.Provider

	return d
}

// selectedCandidate finds the alternate entry backing the current
// selection.
func selectedCandidate(d FieldDecision) (Candidate, bool) {
	for _, c := range d.Alternates {
		if c.Provider == d.Provider {
			return c, true
		}
	}
	return Candidate{}, false
}

// dedupeByProvider collapses duplicate provider tags, keeping the record
// with the higher overall score (first seen on an exact tie). Provider
// identity is unique per query by contract; collapsing keeps the merge
// well-defined on out-of-contract input.
func dedupeByProvider(records []SourceRecord, w Weights) []SourceRecord {
	var out []SourceRecord
	index := make(map[Provider]int, len(records))
	for _, r := range records {
		if !r.Provider.Valid() {
			continue
		}
		i, seen := index[r.Provider]
		if !seen {
			index[r.Provider] = len(out)
			out = append(out, r)
			continue
		}
		if w.Overall(r) > w.Overall(out[i]) {
			out[i] = r
		}
	}
	return out
}
