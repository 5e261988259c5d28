package utils

// rawRange is the representable raw integer interval of a signal.
func rawRange(bitLen int, signed bool) (int64, int64) {
	if bitLen > 63 {
		bitLen = 63
	}
	if !signed {
		return 0, int64(1)<<bitLen - 1
	}
	return -int64(1) << (bitLen - 1), int64(1)<<(bitLen-1) - 1
}
