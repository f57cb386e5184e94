// Package match computes fuzzy term overlaps and the dynamically weighted
// composite score of a candidate against a requirement set.
//
// The matching here is deliberately stricter than the evidence rules the
// verification stage applies to document text: partial word overlap is never
// a match, which prevents "Java" matching "JavaScript".
package match

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"github.com/fairyhunter13/cv-ranking-engine/pkg/textx"
)

// Matcher finds, for every required item, at least one flexibly-matching
// candidate item. Results are memoized per distinct input pair for the
// matcher's lifetime; instantiate one per process (or per test).
type Matcher struct {
	mu   sync.RWMutex
	memo map[string]matchSet
}

type matchSet struct {
	matching []string
	missing  []string
}

// NewMatcher constructs an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{memo: make(map[string]matchSet)}
}

// FindMatches returns the required items with at least one flexible match
// among candidateItems, and those without. Order follows requiredItems.
func (m *Matcher) FindMatches(candidateItems, requiredItems []string) (matching, missing []string) {
	key := memoKey(candidateItems, requiredItems)
	m.mu.RLock()
	if hit, ok := m.memo[key]; ok {
		m.mu.RUnlock()
		return hit.matching, hit.missing
	}
	m.mu.RUnlock()

	matching = make([]string, 0, len(requiredItems))
	missing = make([]string, 0)
	for _, req := range requiredItems {
		found := false
		for _, cand := range candidateItems {
			if IsFlexibleMatch(cand, req) {
				found = true
				break
			}
		}
		if found {
			matching = append(matching, req)
		} else {
			missing = append(missing, req)
		}
	}

	m.mu.Lock()
	m.memo[key] = matchSet{matching: matching, missing: missing}
	m.mu.Unlock()
	return matching, missing
}

// IsFlexibleMatch reports whether two terms refer to the same thing under the
// engine's fuzzy rules: exact normalized equality, version-suffix
// equivalence, acronym equivalence in either direction, or exact multi-word
// token-set equality.
func IsFlexibleMatch(a, b string) bool {
	na, nb := textx.Normalize(a), textx.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if versionEquivalent(na, nb) {
		return true
	}
	if acronymEquivalent(na, nb) || acronymEquivalent(nb, na) {
		return true
	}
	return multiWordEqual(na, nb)
}

// versionEquivalent strips digits and dots from both terms; they match when
// the remaining bases are equal AND that base is a known version-bearing
// technology name. The allow-list keeps "java" from matching "javascript".
func versionEquivalent(na, nb string) bool {
	ba, bb := versionBase(na), versionBase(nb)
	if ba == "" || ba != bb {
		return false
	}
	return IsVersionedBase(ba)
}

func versionBase(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// acronymEquivalent reports whether a, squeezed to its letters, equals the
// initials of b's multi-word form.
func acronymEquivalent(a, b string) bool {
	bToks := strings.Fields(b)
	if len(bToks) < 2 {
		return false
	}
	return textx.Squeeze(a) == textx.Initials(b)
}

// multiWordEqual requires both terms to split into the same tokens,
// order-independent. Partial overlap is explicitly not a match.
func multiWordEqual(na, nb string) bool {
	ta, tb := strings.Fields(na), strings.Fields(nb)
	if len(ta) != len(tb) || len(ta) < 2 {
		return false
	}
	sort.Strings(ta)
	sort.Strings(tb)
	for i := range ta {
		if ta[i] != tb[i] {
			return false
		}
	}
	return true
}

func memoKey(candidateItems, requiredItems []string) string {
	h := sha256.New()
	for _, s := range candidateItems {
		h.Write([]byte(s))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})
	for _, s := range requiredItems {
		h.Write([]byte(s))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}
