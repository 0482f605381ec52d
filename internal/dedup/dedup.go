package dedup

import (
	"sort"

	"go-careerwatch/internal/scraper"
)

// SeenSet is the set of posting IDs that have already been notified.
// It only ever grows; there is no expiry.
type SeenSet map[string]struct{}

// NewSeenSet creates a set holding ids
func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SeenSet) Has(id string) bool {
	_, exists := s[id]
	return exists
}

func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

func (s SeenSet) Len() int {
	return len(s)
}

// Union returns a new set with the IDs of postings folded in. s is left untouched.
func (s SeenSet) Union(postings []scraper.Posting) SeenSet {
	out := make(SeenSet, len(s)+len(postings))
	for id := range s {
		out[id] = struct{}{}
	}
	for _, p := range postings {
		out[p.ID] = struct{}{}
	}
	return out
}

// IDs returns the members sorted, so serialised state is stable between runs.
func (s SeenSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s SeenSet) Equal(other SeenSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// ComputeNew returns the postings whose ID is not in seen, in fetch order.
// Repeated IDs are folded to their first occurrence. seen is never mutated.
func ComputeNew(postings []scraper.Posting, seen SeenSet) []scraper.Posting {
	fresh := make([]scraper.Posting, 0)
	emitted := make(map[string]bool, len(postings))
	for _, p := range postings {
		if emitted[p.ID] || seen.Has(p.ID) {
			continue
		}
		emitted[p.ID] = true
		fresh = append(fresh, p)
	}
	return fresh
}
