package similarity

// Ratio is the normalized indel similarity: 2*LCS / (len(a)+len(b)) * 100.
func Ratio(a, b string) float64 {
	return runeRatio([]rune(a), []rune(b))
}

// PartialRatio scores the shorter string against the best aligned window of
// the longer one, including windows that hang off either end.
func PartialRatio(a, b string) float64 {
	return partialRunes([]rune(a), []rune(b))
}

func runeRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcs(a, b)) / float64(total)
}

func partialRunes(a, b []rune) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := len(a)
	best := 0.0
	for i := 0; i+n <= len(b); i++ {
		if r := runeRatio(a, b[i:i+n]); r > best {
			best = r
			if best == 100 {
				return best
			}
		}
	}
	for k := 1; k < n; k++ {
		if r := runeRatio(a, b[:k]); r > best {
			best = r
		}
		if r := runeRatio(a, b[len(b)-k:]); r > best {
			best = r
		}
	}
	return best
}

// lcs returns the length of the longest common subsequence.
func lcs(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for _, ca := range a {
		for j, cb := range b {
			switch {
			case ca == cb:
				cur[j+1] = prev[j] + 1
			case prev[j+1] >= cur[j]:
				cur[j+1] = prev[j+1]
			default:
				cur[j+1] = cur[j]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
