package reconcile

import "strconv"

// Query is the track lookup that provider results are matched against.
type Query struct {
	Title  string
	Artist string
	Album  string
	Year   int
}

// RawPayload is one provider hit with its wire format already mapped onto
// the universal fields by the provider client, but not yet scored. Zero
// values ("" and 0) mean the provider did not supply the field.
type RawPayload struct {
	Provider    Provider
	Title       string
	Artist      string
	Album       string
	Year        int
	Genre       string
	Duration    int // seconds
	CoverArtURL string

	// ReportedScore is the 0-100 search score MusicBrainz attaches to each
	// hit. Ignored for other providers.
	ReportedScore int
	// VideoTitle is the raw YouTube video title, kept for similarity
	// scoring against the query. Ignored for other providers.
	VideoTitle string
}

// SourceRecord is one provider's scored description of a candidate track.
// Records are immutable once built; the merge never modifies them.
type SourceRecord struct {
	Provider    Provider
	Title       string
	Artist      string
	Album       string
	Year        int
	Genre       string
	Duration    int // seconds
	CoverArtURL string

	// Confidence estimates how likely this provider's match is correct for
	// the query, per the provider-specific rules. In [0,1].
	Confidence float64
	// Completeness is the fraction of universal fields this record
	// populates. In [0,1].
	Completeness float64
}

// Value holds a single field value. Text fields use Text; year and
// duration use Num. The zero Value means the field is absent.
type Value struct {
	Text string `json:"text,omitempty"`
	Num  int    `json:"num,omitempty"`
}

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool {
	return v.Text == "" && v.Num == 0
}

// String renders the value for display.
func (v Value) String() string {
	if v.Num != 0 {
		return strconv.Itoa(v.Num)
	}
	return v.Text
}

// Value returns the record's value for a universal field and whether the
// record supplies it.
func (r SourceRecord) Value(f Field) (Value, bool) {
	var v Value
	switch f {
	case FieldTitle:
		v.Text = r.Title
	case FieldArtist:
		v.Text = r.Artist
	case FieldAlbum:
		v.Text = r.Album
	case FieldYear:
		v.Num = r.Year
	case FieldGenre:
		v.Text = r.Genre
	case FieldDuration:
		v.Num = r.Duration
	case FieldCoverArtURL:
		v.Text = r.CoverArtURL
	}
	return v, !v.IsZero()
}

// Candidate is one provider's value for a field together with the
// effective score it competed with.
type Candidate struct {
	Provider Provider `json:"provider"`
	Value    Value    `json:"value"`
	Score    float64  `json:"score"`
}

// FieldDecision is the merge outcome for a single universal field. Value
// and Provider are unset together when no record supplied the field.
type FieldDecision struct {
	Field        Field       `json:"field"`
	Value        *Value      `json:"value,omitempty"`
	Provider     Provider    `json:"provider,omitempty"`
	Corroborated bool        `json:"corroborated"`
	Alternates   []Candidate `json:"alternates,omitempty"`
}

// MergedMetadata is the unified, provenance-tagged record produced by
// merging all SourceRecords for one query. Decisions holds one entry per
// universal field, in field order.
type MergedMetadata struct {
	Decisions       []FieldDecision `json:"decisions"`
	MergeConfidence float64         `json:"merge_confidence"`
}

// Decision returns the merge decision for a field.
func (m *MergedMetadata) Decision(f Field) (FieldDecision, bool) {
	for _, d := range m.Decisions {
		if d.Field == f {
			return d, true
		}
	}
	return FieldDecision{}, false
}

// Text returns the selected text value for a field, or "" when absent.
func (m *MergedMetadata) Text(f Field) string {
	if d, ok := m.Decision(f); ok && d.Value != nil {
		return d.Value.Text
	}
	return ""
}

// Num returns the selected numeric value for a field, or 0 when absent.
func (m *MergedMetadata) Num(f Field) int {
	if d, ok := m.Decision(f); ok && d.Value != nil {
		return d.Value.Num
	}
	return 0
}

// clone returns a deep copy, so override application never mutates the
// caller's MergedMetadata.
func (m *MergedMetadata) clone() *MergedMetadata {
	out := &MergedMetadata{
		Decisions:       make([]FieldDecision, len(m.Decisions)),
		MergeConfidence: m.MergeConfidence,
	}
	for i, d := range m.Decisions {
		nd := d
		if d.Value != nil {
			v := *d.Value
			nd.Value = &v
		}
		if d.Alternates != nil {
			nd.Alternates = make([]Candidate, len(d.Alternates))
			copy(nd.Alternates, d.Alternates)
		}
		out.Decisions[i] = nd
	}
	return out
}
