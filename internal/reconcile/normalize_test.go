package reconcile

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Bohemian Rhapsody", "bohemian rhapsody"},
		{"strips diacritics", "Señorita", "senorita"},
		{"collapses whitespace", "  A  Night   at the Opera ", "a night at the opera"},
		{"combined", "  BEYONCÉ  ", "beyonce"},
		{"empty", "", ""},
		{"keeps punctuation", "Don't Stop Me Now", "don't stop me now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompactAlnum(t *testing.T) {
	got := compactAlnum("queen - bohemian rhapsody (official video)")
	want := "queen bohemian rhapsody official video"
	if got != want {
		t.Errorf("compactAlnum = %q, want %q", got, want)
	}
}

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "queen bohemian rhapsody", "queen bohemian rhapsody", 1},
		{"compact equal", "high way", "highway", 1},
		{"partial overlap", "queen bohemian rhapsody", "queen bohemian rhapsody official video", 0.6},
		{"no overlap", "queen", "abba", 0},
		{"empty left", "", "queen", 0},
		{"empty right", "queen", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("tokenSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"punctuation ignored", "Queen Bohemian Rhapsody", "Queen - Bohemian Rhapsody!", 1},
		{"case and diacritics ignored", "Señorita", "SENORITA", 1},
		{"video noise", "Queen Bohemian Rhapsody", "Queen - Bohemian Rhapsody (Official Video)", 0.6},
		{"unrelated", "Queen", "ABBA", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValuesAgree_Year(t *testing.T) {
	tests := []struct {
		name string
		a, b int
		want bool
	}{
		{"exact", 1975, 1975, true},
		{"off by one", 1975, 1976, true},
		{"off by one reversed", 1976, 1975, true},
		{"off by two", 1975, 1977, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valuesAgree(FieldYear, Value{Num: tt.a}, Value{Num: tt.b})
			if got != tt.want {
				t.Errorf("valuesAgree(year, %d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValuesAgree_Duration(t *testing.T) {
	if !valuesAgree(FieldDuration, Value{Num: 354}, Value{Num: 354}) {
		t.Error("equal durations should agree")
	}
	// The one-off tolerance is year-only.
	if valuesAgree(FieldDuration, Value{Num: 354}, Value{Num: 355}) {
		t.Error("durations differing by one second should not agree")
	}
}

func TestValuesAgree_Text(t *testing.T) {
	a := Value{Text: "Señorita"}
	b := Value{Text: "  senorita "}
	if !valuesAgree(FieldTitle, a, b) {
		t.Errorf("normalized equal titles should agree: %q vs %q", a.Text, b.Text)
	}
	if valuesAgree(FieldTitle, Value{Text: "Bohemian Rhapsody"}, Value{Text: "Killer Queen"}) {
		t.Error("different titles should not agree")
	}
}
