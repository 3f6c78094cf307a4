// Package strx holds string helpers for config defaults.
package strx

// Coalesce returns the first non-empty value, or "" when all are empty.
// Config uses it to fill bus and UART names.
func Coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
