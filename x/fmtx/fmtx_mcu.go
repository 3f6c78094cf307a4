//go:build rp2040 || rp2350

package fmtx

import (
	"io"

	"smarthome-go/x/strconvx"
)

// DefaultOutput is used by Print/Printf on MCU builds.
// main points it at the console UART.
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func Sprintf(format string, a ...any) string { return string(appendf(nil, format, a)) }

func Printf(format string, a ...any) (int, error) {
	return DefaultOutput.Write(appendf(nil, format, a))
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return w.Write(appendf(nil, format, a))
}

func Errorf(format string, a ...any) error { return msgError(Sprintf(format, a...)) }

func Sprint(a ...any) string { return string(appendSpaced(nil, a)) }

func Fprint(w io.Writer, a ...any) (int, error) { return w.Write(appendSpaced(nil, a)) }

func Print(a ...any) (int, error) { return Fprint(DefaultOutput, a...) }

type msgError string

func (e msgError) Error() string { return string(e) }

func appendSpaced(dst []byte, a []any) []byte {
	for i, v := range a {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = appendValue(dst, v, 'v')
	}
	return dst
}

// directive is one parsed %[-0][width][.prec]verb.
type directive struct {
	verb    byte
	left    bool
	zero    bool
	width   int
	prec    int
	hasPrec bool
}

// appendf handles %s %q %d %x %X %c %t %v and %%. Anything else is echoed.
func appendf(dst []byte, format string, args []any) []byte {
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			dst = append(dst, c)
			continue
		}
		var vs directive
		i++
		for ; i < len(format) && (format[i] == '-' || format[i] == '0'); i++ {
			if format[i] == '-' {
				vs.left = true
			} else {
				vs.zero = true
			}
		}
		i, vs.width = atoiAt(format, i)
		if i < len(format) && format[i] == '.' {
			vs.hasPrec = true
			i, vs.prec = atoiAt(format, i+1)
		}
		if i == len(format) {
			break
		}
		vs.verb = format[i]
		if vs.verb == '%' {
			dst = append(dst, '%')
			continue
		}
		if next == len(args) {
			dst = append(dst, "%!"...)
			dst = append(dst, vs.verb)
			dst = append(dst, "(MISSING)"...)
			continue
		}
		dst = appendPadded(dst, vs, args[next])
		next++
	}
	return dst
}

func atoiAt(s string, i int) (int, int) {
	n := 0
	for ; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
	}
	return i, n
}

func appendPadded(dst []byte, vs directive, arg any) []byte {
	start := len(dst)
	switch vs.verb {
	case 's', 'v', 't', 'q':
		dst = appendValue(dst, arg, vs.verb)
		if vs.hasPrec && vs.verb == 's' && len(dst)-start > vs.prec {
			dst = dst[:start+vs.prec]
		}
	case 'd':
		dst = appendValue(dst, arg, 'v')
	case 'x', 'X':
		if u, ok := unsigned(arg); ok {
			dst = strconvx.AppendUint(dst, u, 16)
		} else if s, ok := arg.(string); ok {
			for j := 0; j < len(s); j++ {
				dst = appendHexByte(dst, s[j])
			}
		} else if p, ok := arg.([]byte); ok {
			for _, b := range p {
				dst = appendHexByte(dst, b)
			}
		} else {
			dst = appendValue(dst, arg, 'v')
		}
		if vs.verb == 'X' {
			for j := start; j < len(dst); j++ {
				if 'a' <= dst[j] && dst[j] <= 'f' {
					dst[j] -= 'a' - 'A'
				}
			}
		}
	case 'c':
		if n, ok := signed(arg); ok {
			dst = appendRune(dst, rune(n))
		}
	default:
		dst = append(dst, '%', vs.verb)
		return dst
	}
	pad := vs.width - (len(dst) - start)
	if pad <= 0 {
		return dst
	}
	if vs.left {
		for ; pad > 0; pad-- {
			dst = append(dst, ' ')
		}
		return dst
	}
	fill := byte(' ')
	if vs.zero && vs.verb != 's' && vs.verb != 'q' {
		fill = '0'
	}
	// shift the formatted text right by pad and fill the gap.
	n := len(dst)
	for ; pad > 0; pad-- {
		dst = append(dst, 0)
	}
	copy(dst[len(dst)-(n-start):], dst[start:n])
	at := start
	if fill == '0' && dst[len(dst)-(n-start)] == '-' {
		dst[start] = '-'
		dst[len(dst)-(n-start)] = '0'
		at++
	}
	for j := at; j < len(dst)-(n-start); j++ {
		dst[j] = fill
	}
	return dst
}

func appendValue(dst []byte, v any, verb byte) []byte {
	switch x := v.(type) {
	case string:
		if verb == 'q' {
			return appendQuoted(dst, x)
		}
		return append(dst, x...)
	case []byte:
		if verb == 'q' {
			return appendQuoted(dst, string(x))
		}
		return append(dst, x...)
	case bool:
		if x {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case error:
		return append(dst, x.Error()...)
	case interface{ String() string }:
		return append(dst, x.String()...)
	case nil:
		return append(dst, "<nil>"...)
	}
	if u, ok := unsigned(v); ok {
		return strconvx.AppendUint(dst, u, 10)
	}
	if n, ok := signed(v); ok {
		return strconvx.AppendInt(dst, n, 10)
	}
	return append(dst, "?"...)
}

func signed(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	if u, ok := unsigned(v); ok {
		return int64(u), true
	}
	return 0, false
}

func unsigned(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case uintptr:
		return uint64(x), true
	}
	return 0, false
}

func appendHexByte(dst []byte, b byte) []byte {
	const hex = "0123456789abcdef"
	return append(dst, hex[b>>4], hex[b&0x0f])
}

func appendRune(dst []byte, r rune) []byte {
	switch {
	case r < 0x80:
		return append(dst, byte(r))
	case r < 0x800:
		return append(dst, 0xC0|byte(r>>6), 0x80|byte(r)&0x3F)
	case r < 0x10000:
		return append(dst, 0xE0|byte(r>>12), 0x80|byte(r>>6)&0x3F, 0x80|byte(r)&0x3F)
	}
	return append(dst, 0xF0|byte(r>>18), 0x80|byte(r>>12)&0x3F, 0x80|byte(r>>6)&0x3F, 0x80|byte(r)&0x3F)
}

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'x')
				dst = appendHexByte(dst, c)
				continue
			}
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
