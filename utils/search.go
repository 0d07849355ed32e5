package utils

// BinarySearch looks for an element of the ascending slice xs for which cmp
// returns 0. cmp reports the target's position relative to the element:
// negative when the target sorts before it, positive when after. It returns
// the index and true on an exact match and (-1, false) otherwise; it never
// returns a nearest neighbour.
func BinarySearch[T any](xs []T, cmp func(T) int) (int, bool) {
	lo, hi := 0, len(xs)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch c := cmp(xs[mid]); {
		case c == 0:
			return mid, true
		case c > 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1, false
}
