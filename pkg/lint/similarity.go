package lint

import (
	"strings"
	"unicode"
)

// minBigrams keeps short bodies out of similarity checks; two one-line posts
// are trivially "similar".
const minBigrams = 40

type bigramProfile struct {
	counts map[string]int
	total  int
}

func newBigramProfile(body string) bigramProfile {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(body) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteRune(' ')
			space = true
		}
	}
	runes := []rune(strings.TrimSpace(b.String()))

	p := bigramProfile{counts: map[string]int{}}
	for i := 0; i+1 < len(runes); i++ {
		p.counts[string(runes[i:i+2])]++
		p.total++
	}
	return p
}

// dice is the Sørensen–Dice coefficient over bigram multisets.
func dice(a, b bigramProfile) float64 {
	if a.total == 0 || b.total == 0 {
		return 0
	}
	small, large := a, b
	if len(small.counts) > len(large.counts) {
		small, large = large, small
	}
	shared := 0
	for gram, n := range small.counts {
		if m, ok := large.counts[gram]; ok {
			shared += min(n, m)
		}
	}
	return 2 * float64(shared) / float64(a.total+b.total)
}
