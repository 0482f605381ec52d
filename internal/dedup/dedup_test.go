package dedup

import (
	"fmt"
	"math/rand"
	"testing"

	"go-careerwatch/internal/scraper"

	"github.com/stretchr/testify/assert"
)

func postings(ids ...string) []scraper.Posting {
	out := make([]scraper.Posting, 0, len(ids))
	for _, id := range ids {
		out = append(out, scraper.Posting{ID: id, Title: "Role " + id})
	}
	return out
}

func idsOf(ps []scraper.Posting) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestComputeNew(t *testing.T) {
	tests := []struct {
		name     string
		fetched  []scraper.Posting
		seen     SeenSet
		expected []string
	}{
		{
			name:     "first run",
			fetched:  postings("1", "2"),
			seen:     NewSeenSet(),
			expected: []string{"1", "2"},
		},
		{
			name:     "everything already seen",
			fetched:  postings("2", "1"),
			seen:     NewSeenSet("1", "2"),
			expected: []string{},
		},
		{
			name:     "duplicate folded to first occurrence",
			fetched:  postings("2", "1", "2"),
			seen:     NewSeenSet("1"),
			expected: []string{"2"},
		},
		{
			name:     "empty fetch",
			fetched:  nil,
			seen:     NewSeenSet("1"),
			expected: []string{},
		},
		{
			name:     "order preserved",
			fetched:  postings("9", "3", "7", "3", "1"),
			seen:     NewSeenSet("7"),
			expected: []string{"9", "3", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeNew(tt.fetched, tt.seen)
			assert.Equal(t, tt.expected, idsOf(got))
		})
	}
}

func TestComputeNew_KeepsFirstOccurrenceRecord(t *testing.T) {
	fetched := []scraper.Posting{
		{ID: "2", Title: "first"},
		{ID: "2", Title: "second"},
	}

	got := ComputeNew(fetched, NewSeenSet())

	assert.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Title)
}

func TestComputeNew_DoesNotMutateSeen(t *testing.T) {
	seen := NewSeenSet("1")

	_ = ComputeNew(postings("1", "2", "3"), seen)

	assert.Equal(t, []string{"1"}, seen.IDs())
}

func TestComputeNew_RandomisedProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var fetched []scraper.Posting
		for n := rng.Intn(20); n > 0; n-- {
			fetched = append(fetched, scraper.Posting{ID: fmt.Sprint(rng.Intn(15))})
		}
		seen := NewSeenSet()
		for n := rng.Intn(10); n > 0; n-- {
			seen.Add(fmt.Sprint(rng.Intn(15)))
		}

		got := ComputeNew(fetched, seen)

		emitted := map[string]bool{}
		for _, p := range got {
			assert.False(t, seen.Has(p.ID), "delta contains seen id %s", p.ID)
			assert.False(t, emitted[p.ID], "delta contains duplicate id %s", p.ID)
			emitted[p.ID] = true
		}

		// against an empty set the result is the input with duplicates folded
		all := ComputeNew(fetched, NewSeenSet())
		var want []string
		dup := map[string]bool{}
		for _, p := range fetched {
			if !dup[p.ID] {
				dup[p.ID] = true
				want = append(want, p.ID)
			}
		}
		if want == nil {
			want = []string{}
		}
		assert.Equal(t, want, idsOf(all))
	}
}

func TestSeenSet_Union(t *testing.T) {
	seen := NewSeenSet("1")

	merged := seen.Union(postings("2", "1"))

	assert.Equal(t, []string{"1", "2"}, merged.IDs())
	assert.Equal(t, 1, seen.Len(), "union must not mutate the receiver")
}

func TestSeenSet_Equal(t *testing.T) {
	assert.True(t, NewSeenSet("a", "b").Equal(NewSeenSet("b", "a")))
	assert.False(t, NewSeenSet("a").Equal(NewSeenSet("a", "b")))
	assert.False(t, NewSeenSet("a", "c").Equal(NewSeenSet("a", "b")))
	assert.True(t, NewSeenSet().Equal(NewSeenSet()))
}
