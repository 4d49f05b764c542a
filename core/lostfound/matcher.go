package lostfound

// Similarity weights and the match threshold. An overall score at or above
// matchThreshold binds the two reports together.
const (
	titleWeight       = 0.5
	descriptionWeight = 0.3
	locationWeight    = 0.2

	matchThreshold = 0.6
)

// matchScore computes the weighted similarity between two items over
// (title, description, location).
func matchScore(a, b Item) float64 {
	return titleWeight*Similarity(a.Title, b.Title) +
		descriptionWeight*Similarity(a.Description, b.Description) +
		locationWeight*Similarity(a.Location, b.Location)
}

// bestMatch scans candidates for the highest-scoring match against item.
// Only a strictly greater score displaces the current best, so ties resolve
// to the first-seen candidate. Returns ok=false when no candidate reaches
// the threshold (an empty candidate set is not an error).
func bestMatch(item Item, candidates []Item) (best Item, score float64, ok bool) {
	for _, c := range candidates {
		if s := matchScore(item, c); s > score {
			score = s
			best = c
		}
	}
	if score < matchThreshold {
		return Item{}, score, false
	}
	return best, score, true
}
