package match

// Levenshtein computes the edit distance between two strings: the minimum
// number of single-character insertions, deletions, and substitutions
// required to change one into the other.
//
// Uses space-optimized dynamic programming with two rows instead of a full
// matrix, reducing space complexity from O(mn) to O(min(m,n)).
func Levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Ensure a is the shorter string for space optimization
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	// Distance from the empty string
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1]
			} else {
				// Minimum of insert, delete, replace
				curr[i] = 1 + minOf3(prev[i-1], prev[i], curr[i-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}

func minOf3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
