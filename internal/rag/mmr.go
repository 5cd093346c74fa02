package rag

import "math"

// scoredChunk pairs a chunk with its query relevance.
type scoredChunk struct {
	chunk Chunk
	score float32
}

// cosineSimilarity returns 0 for empty or mismatched vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// maximalMarginalRelevance selects up to k candidates balancing relevance to
// the query against redundancy among those already picked. lambda 1 is pure
// relevance, 0 pure diversity. Candidates must be sorted by score descending.
func maximalMarginalRelevance(candidates []scoredChunk, k int, lambda float32) []scoredChunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]scoredChunk, 0, k)
	selected = append(selected, candidates[0])
	remaining := append([]scoredChunk(nil), candidates[1:]...)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestVal := float32(math.Inf(-1))
		for i, cand := range remaining {
			var maxRedundancy float32
			for _, sel := range selected {
				if sim := cosineSimilarity(cand.chunk.Embedding, sel.chunk.Embedding); sim > maxRedundancy {
					maxRedundancy = sim
				}
			}
			val := lambda*cand.score - (1-lambda)*maxRedundancy
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
