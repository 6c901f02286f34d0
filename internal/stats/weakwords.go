package stats

import (
	"sort"

	"github.com/antzucaro/matchr"
)

// MinMisses is how often a word must be missed before it appears in the weak
// words report. A single miss is noise; two is a pattern worth practicing.
const MinMisses = 2

// WeakWordGroup is a set of recurring missed words that sound alike. Words
// sharing a primary Double Metaphone code are practiced together ("night"
// and "knight" are the same mouth shape).
type WeakWordGroup struct {
	// Code is the shared primary Double Metaphone code. Words that produce no
	// code (digits, very short tokens) group under their own spelling.
	Code string

	// Words are the distinct missed words in the group, sorted.
	Words []string

	// Misses is the total miss count across the group.
	Misses int
}

// GroupWeakWords builds the weak words report from a flat list of normalized
// missed words, one entry per miss. Words missed fewer than [MinMisses] times
// are dropped; the rest are grouped phonetically and sorted by miss count,
// most-missed first.
func GroupWeakWords(missed []string) []WeakWordGroup {
	counts := make(map[string]int, len(missed))
	for _, w := range missed {
		if w != "" {
			counts[w]++
		}
	}

	groups := make(map[string]*WeakWordGroup)
	for w, n := range counts {
		if n < MinMisses {
			continue
		}
		code, _ := matchr.DoubleMetaphone(w)
		if code == "" {
			code = w
		}
		g, ok := groups[code]
		if !ok {
			g = &WeakWordGroup{Code: code}
			groups[code] = g
		}
		g.Words = append(g.Words, w)
		g.Misses += n
	}

	out := make([]WeakWordGroup, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g.Words)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Misses != out[j].Misses {
			return out[i].Misses > out[j].Misses
		}
		return out[i].Code < out[j].Code
	})
	return out
}
