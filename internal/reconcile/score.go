package reconcile

import "fmt"

// Weights are the scoring knobs: how confidence and completeness combine
// into a record's overall score, and the flat bonus corroborated candidates
// receive. These are the only tunable parts of the engine.
type Weights struct {
	Confidence         float64
	Completeness       float64
	CorroborationBonus float64
}

// DefaultWeights returns the standard knobs. Confidence dominates because a
// complete but wrong match is worse than a sparse correct one.
func DefaultWeights() Weights {
	return Weights{
		Confidence:         0.7,
		Completeness:       0.3,
		CorroborationBonus: 0.1,
	}
}

// Validate checks the knobs are usable: each in [0,1] and the two overall
// weights summing to one, so overall scores stay in [0,1].
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"confidence_weight":   w.Confidence,
		"completeness_weight": w.Completeness,
		"corroboration_bonus": w.CorroborationBonus,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	if sum := w.Confidence + w.Completeness; sum < 0.999999 || sum > 1.000001 {
		return fmt.Errorf("confidence_weight and completeness_weight must sum to 1, got %v", sum)
	}
	return nil
}

// Overall combines a record's confidence and completeness into its base
// ranking score, in [0,1].
func (w Weights) Overall(r SourceRecord) float64 {
	return clamp01(w.Confidence*r.Confidence + w.Completeness*r.Completeness)
}

// confidenceRule computes a provider's match confidence for one payload.
type confidenceRule func(q Query, p RawPayload) float64

// confidenceRules holds the per-provider confidence formulas as data. The
// rule set is fixed and small, so a table keyed by provider tag keeps the
// scoring declarative and testable in isolation.
var confidenceRules = map[Provider]confidenceRule{
	// MusicBrainz ranks its own search hits 0-100.
	MusicBrainz: func(_ Query, p RawPayload) float64 {
		return clamp01(float64(p.ReportedScore) / 100)
	},
	Discogs: exactMatchRule(0.9, 0.7),
	Spotify: exactMatchRule(0.85, 0.65),
	// Last.fm and Genius do not rank results.
	LastFm: fixedRule(0.75),
	Genius: fixedRule(0.7),
	// Video titles are unstructured, so YouTube is capped below every
	// structured-metadata provider.
	YouTube: func(q Query, p RawPayload) float64 {
		title := p.VideoTitle
		if title == "" {
			title = p.Title
		}
		sim := Similarity(q.Artist+" "+q.Title, title)
		if sim > 0.6 {
			sim = 0.6
		}
		return sim
	},
}

// exactMatchRule scores hit when the payload's normalized title and artist
// both equal the query's, miss otherwise.
func exactMatchRule(hit, miss float64) confidenceRule {
	return func(q Query, p RawPayload) float64 {
		if NormalizeText(p.Title) == NormalizeText(q.Title) &&
			NormalizeText(p.Artist) == NormalizeText(q.Artist) {
			return hit
		}
		return miss
	}
}

func fixedRule(score float64) confidenceRule {
	return func(Query, RawPayload) float64 { return score }
}

// Normalize converts a raw provider payload into a scored SourceRecord.
// Payloads without a known provider tag are rejected with ErrInvalidRecord;
// callers drop those and proceed with the rest.
func Normalize(q Query, p RawPayload) (SourceRecord, error) {
	if p.Provider == "" {
		return SourceRecord{}, &ErrInvalidRecord{Reason: "missing provider tag"}
	}
	rule, ok := confidenceRules[p.Provider]
	if !ok {
		return SourceRecord{}, &ErrInvalidRecord{Reason: fmt.Sprintf("unknown provider %q", p.Provider)}
	}

	r := SourceRecord{
		Provider:    p.Provider,
		Title:       p.Title,
		Artist:      p.Artist,
		Album:       p.Album,
		Year:        p.Year,
		Genre:       p.Genre,
		Duration:    p.Duration,
		CoverArtURL: p.CoverArtURL,
	}
	r.Confidence = clamp01(rule(q, p))

	present := 0
	for _, f := range Fields() {
		if _, ok := r.Value(f); ok {
			present++
		}
	}
	r.Completeness = float64(present) / fieldCount

	return r, nil
}
