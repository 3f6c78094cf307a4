//go:build rp2040 || rp2350

package strconvx

// Integer conversions only. Base 0 on parse accepts 0x, 0o and 0b
// prefixes and defaults to 10.

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

var (
	ErrSyntax = syntaxError("invalid syntax")
	ErrRange  = syntaxError("value out of range")
)

type syntaxError string

func (e syntaxError) Error() string { return string(e) }

// NumError records the function and input that failed.
type NumError struct {
	Func string
	Num  string
	Err  error
}

func (e *NumError) Error() string {
	return "strconvx." + e.Func + ": parsing \"" + e.Num + "\": " + e.Err.Error()
}
func (e *NumError) Unwrap() error { return e.Err }

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func Atoi(s string) (int, error) {
	v, err := ParseInt(s, 10, 0)
	if err != nil {
		err.(*NumError).Func = "Atoi"
	}
	return int(v), err
}

func FormatInt(i int64, base int) string {
	var buf [65]byte
	return string(AppendInt(buf[:0], i, base))
}

func FormatUint(u uint64, base int) string {
	var buf [64]byte
	return string(AppendUint(buf[:0], u, base))
}

// AppendInt appends the base representation of i to dst.
func AppendInt(dst []byte, i int64, base int) []byte {
	if i < 0 {
		return AppendUint(append(dst, '-'), uint64(-i), base)
	}
	return AppendUint(dst, uint64(i), base)
}

// AppendUint appends the base representation of u to dst.
// Bases outside 2..36 format as decimal.
func AppendUint(dst []byte, u uint64, base int) []byte {
	if base < 2 || base > 36 {
		base = 10
	}
	var tmp [64]byte
	n := len(tmp)
	b := uint64(base)
	for {
		n--
		tmp[n] = digits[u%b]
		u /= b
		if u == 0 {
			break
		}
	}
	return append(dst, tmp[n:]...)
}

func ParseUint(s string, base, bitSize int) (uint64, error) {
	v, err := parseUnsigned(s, base, bitSize)
	if err != nil {
		return v, &NumError{Func: "ParseUint", Num: s, Err: err}
	}
	return v, nil
}

func ParseInt(s string, base, bitSize int) (int64, error) {
	in := s
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if bitSize == 0 {
		bitSize = 64
	}
	u, err := parseUnsigned(s, base, 64)
	if err == nil {
		limit := uint64(1) << uint(bitSize-1)
		if (!neg && u >= limit) || (neg && u > limit) {
			err = ErrRange
		}
	}
	if err != nil {
		return 0, &NumError{Func: "ParseInt", Num: in, Err: err}
	}
	if neg {
		return -int64(u), nil
	}
	return int64(u), nil
}

func parseUnsigned(s string, base, bitSize int) (uint64, error) {
	if base == 0 {
		base = 10
		if len(s) > 2 && s[0] == '0' {
			switch s[1] | 0x20 {
			case 'x':
				base, s = 16, s[2:]
			case 'o':
				base, s = 8, s[2:]
			case 'b':
				base, s = 2, s[2:]
			}
		}
	}
	if s == "" || base < 2 || base > 36 {
		return 0, ErrSyntax
	}
	if bitSize == 0 {
		bitSize = 64
	}
	max := uint64(1)<<uint(bitSize) - 1
	if bitSize == 64 {
		max = ^uint64(0)
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		d := digitVal(s[i])
		if d >= base {
			return 0, ErrSyntax
		}
		if n > (max-uint64(d))/uint64(base) {
			return max, ErrRange
		}
		n = n*uint64(base) + uint64(d)
	}
	return n, nil
}

func digitVal(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c|0x20 && c|0x20 <= 'z':
		return int(c|0x20-'a') + 10
	}
	return 36
}
