//go:build !rp2040 && !rp2350

package fmtx

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultOutput receives Print and Printf. Host builds start on stdout.
var DefaultOutput io.Writer = os.Stdout

func Sprintf(format string, a ...any) string                    { return fmt.Sprintf(format, a...) }
func Printf(format string, a ...any) (int, error)               { return fmt.Fprintf(DefaultOutput, format, a...) }
func Fprintf(w io.Writer, format string, a ...any) (int, error) { return fmt.Fprintf(w, format, a...) }
func Errorf(format string, a ...any) error                      { return fmt.Errorf(format, a...) }

// Sprint separates every operand with a space, as the MCU build does.
func Sprint(a ...any) string { return strings.TrimSuffix(fmt.Sprintln(a...), "\n") }

func Fprint(w io.Writer, a ...any) (int, error) { return io.WriteString(w, Sprint(a...)) }
func Print(a ...any) (int, error)               { return Fprint(DefaultOutput, a...) }
