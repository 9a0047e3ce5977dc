package driver

// maxLoopLen is the longest address cycle the explorer recognizes.
const maxLoopLen = 16

// spinning reports the cycle at the end of addrs repeated most often back to back, as
// its length and repetition count. Only cycles of up to maxLen addresses are considered.
func spinning(addrs []uint64, maxLen int) (period, count int) {
	for n := 1; n <= maxLen && 2*n <= len(addrs); n++ {
		tail := addrs[len(addrs)-n:]
		reps := 1
		for end := len(addrs) - n; end >= n; end -= n {
			if !sameAddrs(addrs[end-n:end], tail) {
				break
			}
			reps++
		}
		if reps > 1 && reps > count {
			period, count = n, reps
		}
	}
	return period, count
}

func sameAddrs(a, b []uint64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
