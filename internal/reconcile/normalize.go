package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText case-folds, strips diacritics, and collapses whitespace so
// values from different providers compare cleanly ("Señorita " and
// "senorita" normalize to the same string).
func NormalizeText(s string) string {
	s = cases.Fold().String(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	return strings.Join(strings.Fields(s), " ")
}

// compactAlnum keeps letters, digits, and spaces so token comparison
// ignores the punctuation noise video titles carry.
func compactAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSimilarity measures overlap between two normalized strings in [0,1].
// Strings whose compact forms match score 1; otherwise the fraction of
// shared tokens over the larger token count.
func tokenSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if strings.ReplaceAll(a, " ", "") == strings.ReplaceAll(b, " ", "") {
		return 1
	}

	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setB := make(map[string]bool, len(tokensB))
	for _, tok := range tokensB {
		setB[tok] = true
	}

	matches := 0
	seen := make(map[string]bool, len(tokensA))
	for _, tok := range tokensA {
		if setB[tok] && !seen[tok] {
			matches++
			seen[tok] = true
		}
	}

	longest := len(tokensA)
	if len(tokensB) > longest {
		longest = len(tokensB)
	}
	return float64(matches) / float64(longest)
}

// Similarity scores how close two free-form titles are in [0,1]. Both sides
// are normalized and stripped to alphanumeric tokens first, so punctuation
// and bracketed suffixes in video titles do not drag the score down.
func Similarity(a, b string) float64 {
	return tokenSimilarity(compactAlnum(NormalizeText(a)), compactAlnum(NormalizeText(b)))
}

// valuesAgree reports whether two non-null values for a field corroborate
// each other: normalized equality for text, exact equality for duration,
// and a tolerance of one for year to absorb reissue ambiguity.
func valuesAgree(f Field, a, b Value) bool {
	switch f {
	case FieldYear:
		diff := a.Num - b.Num
		if diff < 0 {
			diff = -diff
		}
		return diff <= 1
	case FieldDuration:
		return a.Num == b.Num
	default:
		return NormalizeText(a.Text) == NormalizeText(b.Text)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
