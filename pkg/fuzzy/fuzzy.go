package fuzzy

import (
	"strings"
	"unicode"
)

// LevenshteinDistance calculates the edit distance between two strings
// This measures how many single-character edits (insertions, deletions, or substitutions)
// are required to change one string into another
func LevenshteinDistance(s1, s2 string) int {
	s1 = NormalizeName(s1)
	s2 = NormalizeName(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[m][n]
}

// NameSimilarity returns a similarity ratio in [0, 1] between two person names.
// 1.0 means the normalized names are identical.
func NameSimilarity(a, b string) float64 {
	a = NormalizeName(a)
	b = NormalizeName(b)

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	dist := LevenshteinDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(maxLen)
}

// NormalizeName lowercases a name and collapses whitespace
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailLocalPart returns the part before '@', normalized
func EmailLocalPart(email string) string {
	email = NormalizeEmail(email)
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}

// EmailDomain returns the part after '@', normalized. Empty if no '@'.
func EmailDomain(email string) string {
	email = NormalizeEmail(email)
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[idx+1:]
	}
	return ""
}

// PhoneDigits strips everything but digits from a phone number
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TrailingDigits returns the last n digits of a phone number.
// Comparing trailing digits tolerates leading country-code variance.
func TrailingDigits(phone string, n int) string {
	digits := PhoneDigits(phone)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// Initials returns the concatenated first letters of each name word
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(NormalizeName(name)) {
		r := []rune(word)
		if len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	return b.String()
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
