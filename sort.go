package ragpipe

import "sort"

// SortResults orders results by descending score, breaking ties by ascending
// chunk ID so equal-scored runs are deterministic.
func SortResults(results []RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

// Truncate returns at most topK results. topK <= 0 yields an empty,
// non-nil slice.
func Truncate(results []RetrievalResult, topK int) []RetrievalResult {
	if topK <= 0 {
		return []RetrievalResult{}
	}
	if len(results) > topK {
		return results[:topK]
	}
	return results
}
