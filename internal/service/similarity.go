package service

import "strings"

// Similarity returns the Jaccard index of the lower-cased whitespace token
// sets of a and b. Two texts with no tokens at all score 0.
func Similarity(a, b string) float64 {
	left := tokenSet(a)
	right := tokenSet(b)

	union := len(left)
	intersection := 0
	for token := range right {
		if _, ok := left[token]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}
