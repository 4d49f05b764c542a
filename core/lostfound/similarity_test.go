package lostfound

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "black wallet", b: "black wallet", want: 1},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "one empty", a: "wallet", b: "", want: 0},
		{name: "single rune", a: "a", b: "ab", want: 0},
		{name: "no overlap", a: "wallet", b: "phone", want: 0},
		{name: "case and spacing ignored", a: "Black  Wallet", b: "black wallet", want: 1},
		{name: "partial", a: "library", b: "library entrance", want: 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"blue water bottle", "water bottle blue"},
		{"calculus textbook", "textbook"},
		{"id card", "card"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "Similarity(%q, %q)", p[0], p[1])
	}
}

func TestMatchScoreWeights(t *testing.T) {
	a := Item{Title: "black wallet", Description: "leather wallet", Location: "library"}
	b := Item{Title: "black wallet", Description: "leather wallet", Location: "library"}
	assert.InDelta(t, 1.0, matchScore(a, b), 1e-9)

	// identical title only: 0.5 weight plus whatever desc/location contribute
	c := Item{Title: "black wallet", Description: "zzz", Location: "qqq"}
	assert.InDelta(t, 0.5, matchScore(a, c), 1e-9)
}

func TestBestMatch(t *testing.T) {
	item := Item{ID: "new", Title: "black wallet", Description: "leather", Location: "library"}

	t.Run("no candidates", func(t *testing.T) {
		_, _, ok := bestMatch(item, nil)
		assert.False(t, ok)
	})

	t.Run("below threshold", func(t *testing.T) {
		_, _, ok := bestMatch(item, []Item{
			{ID: "c1", Title: "red umbrella", Description: "plastic", Location: "gym"},
		})
		assert.False(t, ok)
	})

	t.Run("picks highest", func(t *testing.T) {
		best, score, ok := bestMatch(item, []Item{
			{ID: "c1", Title: "wallet", Description: "leather", Location: "gym"},
			{ID: "c2", Title: "black wallet", Description: "leather", Location: "library"},
		})
		assert.True(t, ok)
		assert.Equal(t, "c2", best.ID)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("tie goes to first seen", func(t *testing.T) {
		twin := Item{Title: "black wallet", Description: "leather", Location: "library"}
		first, second := twin, twin
		first.ID, second.ID = "first", "second"
		best, _, ok := bestMatch(item, []Item{first, second})
		assert.True(t, ok)
		assert.Equal(t, "first", best.ID)
	})
}
