// Package similarity provides the pure comparison primitives used by the
// match strategies: text normalization, composite record keys, content
// hashing, edit-distance similarity scoring, and perceptual-hash distances.
//
// Everything here is a total, deterministic function of its inputs.
package similarity

import (
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// Normalize lowercases text, collapses runs of whitespace to single spaces,
// and strips punctuation. Empty or absent input normalizes to "".
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}
	text = punctRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Ratio scores how similar two strings are on a 0-100 scale using
// edit distance. It is symmetric and Ratio(a, a) == 100 for non-empty a.
// When either side is empty there is no basis for comparison and the
// result is 0 - including Ratio("", "").
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	score := 100 * (1 - float64(dist)/float64(maxLen))
	if score < 0 {
		return 0
	}
	return int(math.Round(score))
}

// HammingDistance counts differing positions between two equal-length
// perceptual hash strings. Unequal lengths return -1: the hashes come from
// different algorithms or encodings and cannot be compared.
func HammingDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return -1
	}
	dist := 0
	for i := range ra {
		if ra[i] != rb[i] {
			dist++
		}
	}
	return dist
}

// AverageHashDistance averages the Hamming distance across all hash
// algorithms present on both sides. Algorithms missing from either side are
// skipped. The second return is false when no algorithm was comparable.
func AverageHashDistance(a, b map[string]string) (float64, bool) {
	sum, n := 0, 0
	for alg, ha := range a {
		hb, ok := b[alg]
		if !ok {
			continue
		}
		d := HammingDistance(ha, hb)
		if d < 0 {
			continue
		}
		sum += d
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}
