package dedup

// Similarity returns the Ratcliff/Obershelp ratio 2*M/(len(a)+len(b)) over
// runes, where M is the total size of the recursively found longest common
// blocks. Two empty strings are identical.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ra, rb)) / float64(total)
}

type span struct {
	alo, ahi, blo, bhi int
}

func matchingRunes(a, b []rune) int {
	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b, s)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest common block inside s. Ties resolve to the
// earliest start in a, then in b.
func longestMatch(a, b []rune, s span) (int, int, int) {
	bestI, bestJ, best := s.alo, s.blo, 0
	width := s.bhi - s.blo
	prev := make([]int, width+1)
	curr := make([]int, width+1)

	for i := s.alo; i < s.ahi; i++ {
		for j := s.blo; j < s.bhi; j++ {
			col := j - s.blo + 1
			if a[i] != b[j] {
				curr[col] = 0
				continue
			}
			k := prev[col-1] + 1
			curr[col] = k
			if k > best {
				bestI, bestJ, best = i-k+1, j-k+1, k
			}
		}
		prev, curr = curr, prev
	}
	return bestI, bestJ, best
}
