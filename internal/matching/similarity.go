package matching

// Similarity returns the percentage of characters the two strings share,
// weighted by both lengths. It recursively counts the longest common
// substring, then repeats on the unmatched left and right remainders, so
// transposed fragments still score high. Both strings empty scores 0.
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	common := commonChars(a, b)
	return float64(common) * 200.0 / float64(len(a)+len(b))
}

func commonChars(a, b string) int {
	pos1, pos2, max := 0, 0, 0
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > max {
				max, pos1, pos2 = k, i, j
			}
		}
	}
	if max == 0 {
		return 0
	}
	sum := max
	if pos1 > 0 && pos2 > 0 {
		sum += commonChars(a[:pos1], b[:pos2])
	}
	if pos1+max < len(a) && pos2+max < len(b) {
		sum += commonChars(a[pos1+max:], b[pos2+max:])
	}
	return sum
}
