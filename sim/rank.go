package sim

import "sort"

// Rank returns the indices of items ordered by descending score. Equal scores
// keep population order.
func Rank[T any](items []T, score func(T) float64) []int {
	idx := make([]int, len(items))
	scores := make([]float64, len(items))
	for i, it := range items {
		idx[i] = i
		scores[i] = score(it)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}

// Fittest returns the best item and its index. On exact ties the earliest item
// wins. ok is false for an empty slice.
func Fittest[T any](items []T, score func(T) float64) (best T, index int, ok bool) {
	if len(items) == 0 {
		return best, -1, false
	}
	index = 0
	top := score(items[0])
	for i := 1; i < len(items); i++ {
		if s := score(items[i]); s > top {
			top, index = s, i
		}
	}
	return items[index], index, true
}

// ByScore scores agents by ticks survived.
func ByScore(a *Agent) float64 { return a.Score() }
