package repository

import (
	"context"
	"strings"
	"unicode"
)

// bankMatchThreshold is the minimum similarity for a fuzzy bank match.
const bankMatchThreshold = 0.75

// ResolveBank maps user input to a bank key. The input may be a key or a
// display name; a name typed with small mistakes still matches.
func (r *BankRepository) ResolveBank(ctx context.Context, query string) (string, bool) {
	cat, _ := r.Catalog(ctx)

	if _, ok := cat[query]; ok {
		return query, true
	}

	q := normalizeBankQuery(query)
	if q == "" {
		return "", false
	}

	var (
		bestKey   string
		bestScore float64
	)
	for _, entry := range cat.Entries() {
		for _, candidate := range []string{entry.Key, entry.Name} {
			score := similarity(q, normalizeBankQuery(candidate))
			if score > bestScore {
				bestKey, bestScore = entry.Key, score
			}
		}
	}

	if bestScore < bankMatchThreshold {
		return "", false
	}
	return bestKey, true
}

// normalizeBankQuery lowercases s and keeps letters and digits only, so that
// "AWS-MLS (C01)" and "aws_mls_c01" compare equal.
func normalizeBankQuery(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

// similarity is 1 minus the edit distance relative to the longer string.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the Levenshtein distance of a and b.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
