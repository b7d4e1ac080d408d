package reconcile

import "errors"

// Pin forces a specific provider's value for a specific field.
type Pin struct {
	Field    Field    `json:"field"`
	Provider Provider `json:"provider"`
}

// ApplyOverrides returns a copy of merged with each applicable pin's field
// re-selected from the named provider; fields without a pin keep their
// automatic selection. The corroborated flag is recomputed against the same
// candidate pool, so it is independent of the pin. Pins naming a provider
// with no value for the field are skipped and reported through the returned
// error (one ErrOverrideNotApplicable per pin, joined); the returned
// MergedMetadata is valid either way. Applying the same pin set twice
// yields the same result as applying it once.
func (m *Merger) ApplyOverrides(merged *MergedMetadata, records []SourceRecord, pins []Pin) (*MergedMetadata, error) {
	out := merged.clone()
	pool := dedupeByProvider(records, m.weights)

	var pinErrs []error
	for _, pin := range pins {
		idx := -1
		for i, d := range out.Decisions {
			if d.Field == pin.Field {
				idx = i
				break
			}
		}
		if idx < 0 || !pin.Provider.Valid() {
			pinErrs = append(pinErrs, &ErrOverrideNotApplicable{Field: pin.Field, Provider: pin.Provider})
			continue
		}

		var pinned *SourceRecord
		for i := range pool {
			if pool[i].Provider == pin.Provider {
				pinned = &pool[i]
				break
			}
		}
		if pinned == nil {
			pinErrs = append(pinErrs, &ErrOverrideNotApplicable{Field: pin.Field, Provider: pin.Provider})
			continue
		}
		v, ok := pinned.Value(pin.Field)
		if !ok {
			pinErrs = append(pinErrs, &ErrOverrideNotApplicable{Field: pin.Field, Provider: pin.Provider})
			continue
		}

		// Rebuild the field's scoring from the pool, then force the
		// selection. Alternates and the corroborated flag reflect the pool,
		// not the pin.
		fresh := m.decideField(pin.Field, pool)
		fresh.Value = &v
		fresh.Provider = pin.Provider
		out.Decisions[idx] = fresh
	}

	// The selection set may have changed, so the mean winning score is
	// recomputed over fields that have a candidate.
	var scoreSum float64
	var scored int
	for _, d := range out.Decisions {
		if d.Provider == "" {
			continue
		}
		if c, ok := selectedCandidate(d); ok {
			scoreSum += c.Score
			scored++
		}
	}
	out.MergeConfidence = 0
	if scored > 0 {
		out.MergeConfidence = scoreSum / float64(scored)
	}

	return out, errors.Join(pinErrs...)
}
