package env

import (
	"os"
	"strings"
)

// Lookup returns the first non-blank value among keys. Platform variables
// such as PORT are read this way next to their STOREFRONT_ counterparts.
func Lookup(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}
