// Package conv holds allocation-free formatting for hot paths.
package conv

const hexd = "0123456789ABCDEF"

// AppendHex8 appends b as two uppercase hex digits.
func AppendHex8(dst []byte, b byte) []byte {
	return append(dst, hexd[b>>4], hexd[b&0xF])
}

// HexDump renders p as space-separated byte pairs, lineLen bytes per line.
// lineLen <= 0 puts everything on one line.
func HexDump(dst []byte, p []byte, lineLen int) []byte {
	for i, b := range p {
		if i > 0 {
			if lineLen > 0 && i%lineLen == 0 {
				dst = append(dst, '\n')
			} else {
				dst = append(dst, ' ')
			}
		}
		dst = AppendHex8(dst, b)
	}
	return dst
}
