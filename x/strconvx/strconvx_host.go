//go:build !rp2040 && !rp2350

package strconvx

import "strconv"

var (
	ErrSyntax = strconv.ErrSyntax
	ErrRange  = strconv.ErrRange
)

type NumError = strconv.NumError

func Itoa(i int) string                                     { return strconv.Itoa(i) }
func Atoi(s string) (int, error)                            { return strconv.Atoi(s) }
func FormatInt(i int64, base int) string                    { return strconv.FormatInt(i, base) }
func FormatUint(u uint64, base int) string                  { return strconv.FormatUint(u, base) }
func AppendInt(dst []byte, i int64, base int) []byte        { return strconv.AppendInt(dst, i, base) }
func AppendUint(dst []byte, u uint64, base int) []byte      { return strconv.AppendUint(dst, u, base) }
func ParseInt(s string, base, bitSize int) (int64, error)   { return strconv.ParseInt(s, base, bitSize) }
func ParseUint(s string, base, bitSize int) (uint64, error) { return strconv.ParseUint(s, base, bitSize) }
