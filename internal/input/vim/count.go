package vim

// DefaultMaxCount is the saturation point of combined counts.
const DefaultMaxCount = 999_999_999

// Effective returns count, or 1 when no count was typed.
func Effective(count int) int {
	if count <= 0 {
		return 1
	}
	return count
}

// CombineCounts multiplies the count typed before an operator with the
// count typed before its motion, saturating at max.
// e.g., "2d3w" = delete (2*3=6) words
func CombineCounts(opCount, motionCount, max int) int {
	if max <= 0 {
		max = DefaultMaxCount
	}
	a, b := Effective(opCount), Effective(motionCount)
	if a > max/b {
		return max
	}
	if c := a * b; c < max {
		return c
	}
	return max
}

// HasCount reports whether either count was typed.
func HasCount(opCount, motionCount int) bool {
	return opCount > 0 || motionCount > 0
}
