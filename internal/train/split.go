package train

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split partitions row indices into train and eval sets. ratio is the eval
// fraction. With stratify, each label class is shuffled and cut separately so
// the eval set keeps the class balance; every class needs at least two rows.
// The same rng state always produces the same partition.
func Split(labels []string, ratio float64, stratify bool, rng *rand.Rand) (train, eval []int, err error) {
	n := len(labels)
	if n < 2 {
		return nil, nil, fmt.Errorf("split: need at least 2 rows, got %d", n)
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("split: ratio must be in (0,1), got %v", ratio)
	}

	if !stratify {
		idx := rng.Perm(n)
		cut := clampCut(int(math.Round(float64(n)*ratio)), n)
		eval = append(eval, idx[:cut]...)
		train = append(train, idx[cut:]...)
		sort.Ints(train)
		sort.Ints(eval)
		return train, eval, nil
	}

	groups := map[string][]int{}
	for i, label := range labels {
		groups[label] = append(groups[label], i)
	}
	classes := make([]string, 0, len(groups))
	for c := range groups {
		classes = append(classes, c)
	}
	sort.Strings(classes) // fixed visit order keeps the shuffle reproducible

	for _, c := range classes {
		g := groups[c]
		if len(g) < 2 {
			return nil, nil, fmt.Errorf("split: class %q has only %d row(s), need at least 2 to stratify", c, len(g))
		}
		rng.Shuffle(len(g), func(a, b int) { g[a], g[b] = g[b], g[a] })
		cut := clampCut(int(math.Round(float64(len(g))*ratio)), len(g))
		eval = append(eval, g[:cut]...)
		train = append(train, g[cut:]...)
	}
	sort.Ints(train)
	sort.Ints(eval)
	return train, eval, nil
}

// clampCut keeps both partitions non-empty.
func clampCut(cut, n int) int {
	if cut < 1 {
		return 1
	}
	if cut > n-1 {
		return n - 1
	}
	return cut
}
