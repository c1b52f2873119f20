package conv

const hexd = "0123456789abcdef"

// HexBytes appends src to dst as space-separated two-digit lowercase hex.
func HexBytes(dst, src []byte) []byte {
	for i, b := range src {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, hexd[b>>4], hexd[b&0xF])
	}
	return dst
}
