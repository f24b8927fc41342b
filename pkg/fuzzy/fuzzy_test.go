package fuzzy

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"jane", "jane", 0},
		{"jane", "jan", 1},
		{"jane doe", "Jane  Doe", 0}, // normalization collapses case and spacing
		{"kitten", "sitting", 3},
	}
	for _, c := range cases {
		got := LevenshteinDistance(c.a, c.b)
		if got != c.want {
			t.Errorf("LevenshteinDistance(%q, %q)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestNameSimilarity(t *testing.T) {
	if got := NameSimilarity("Jane Doe", "jane doe"); got != 1 {
		t.Errorf("identical normalized names should score 1, got %f", got)
	}
	if got := NameSimilarity("Jane Doe", "Jane Does"); got < 0.8 {
		t.Errorf("near-identical names should score high, got %f", got)
	}
	if got := NameSimilarity("Jane Doe", ""); got != 0 {
		t.Errorf("empty name should score 0, got %f", got)
	}
	if NameSimilarity("Jane Doe", "Bob Smith") >= NameSimilarity("Jane Doe", "Jane D") {
		t.Error("unrelated name should score lower than a close variant")
	}
}

func TestTrailingDigits(t *testing.T) {
	cases := map[string]string{
		"+1 (707) 287-4936": "7072874936",
		"07072874936":       "7072874936",
		"4936":              "4936",
		"":                  "",
	}
	for in, want := range cases {
		if got := TrailingDigits(in, 10); got != want {
			t.Errorf("TrailingDigits(%q, 10)=%q want %q", in, got, want)
		}
	}
}

func TestEmailParts(t *testing.T) {
	if got := EmailLocalPart(" Jane.Doe@Acme.COM "); got != "jane.doe" {
		t.Errorf("EmailLocalPart=%q", got)
	}
	if got := EmailDomain(" Jane.Doe@Acme.COM "); got != "acme.com" {
		t.Errorf("EmailDomain=%q", got)
	}
	if got := EmailDomain("not-an-email"); got != "" {
		t.Errorf("EmailDomain without @ should be empty, got %q", got)
	}
}

func TestInitials(t *testing.T) {
	if got := Initials("Jane Marie Doe"); got != "jmd" {
		t.Errorf("Initials=%q want jmd", got)
	}
	if got := Initials(""); got != "" {
		t.Errorf("Initials of empty should be empty, got %q", got)
	}
}
