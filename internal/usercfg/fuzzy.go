package usercfg

import (
	"strings"
	"unicode"
)

// FuzzyMatch reports whether every rune of pattern appears in target in
// order, ignoring case.
func FuzzyMatch(pattern, target string) bool {
	if pattern == "" {
		return true
	}
	p := []rune(strings.ToLower(pattern))
	i := 0
	for _, r := range strings.ToLower(target) {
		if r == p[i] {
			i++
			if i == len(p) {
				return true
			}
		}
	}
	return false
}

// FuzzyScore rates a match from 0 to 100, or -1 when pattern does not match.
// Consecutive runs and substring hits score higher; long targets lose points.
func FuzzyScore(pattern, target string) int {
	if !FuzzyMatch(pattern, target) {
		return -1
	}
	if pattern == "" {
		return 100
	}

	p := []rune(strings.ToLower(pattern))
	lower := strings.ToLower(target)

	score, pi, run := 0, 0, 0
	for i, r := range []rune(lower) {
		if pi < len(p) && p[pi] == r {
			pi++
			run++
			score += 10 + run
		} else {
			run = 0
		}
		if i > len(p)*3 {
			score--
		}
	}
	if strings.Contains(lower, string(p)) {
		score += 20
	}

	maxScore := len(p) * 15
	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}
	return score * 100 / maxScore
}

// NormalizeSearchText lowercases text and drops punctuation other than
// spaces and dashes.
func NormalizeSearchText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchCard is the board filter. With fuzzy set it matches runes in order
// anywhere in the card's fields; otherwise it needs a normalized substring.
func MatchCard(filter string, fuzzy bool, fields ...string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	for _, f := range fields {
		if f == "" {
			continue
		}
		if fuzzy {
			if FuzzyMatch(filter, f) {
				return true
			}
			continue
		}
		if strings.Contains(NormalizeSearchText(f), NormalizeSearchText(filter)) {
			return true
		}
	}
	return false
}
