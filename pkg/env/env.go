package env

import (
	"os"
	"strings"
)

// Prefix namespaces process-level knobs that live outside the typed config.
const Prefix = "STOREFRONT_"

// Get returns STOREFRONT_<key>, then <key>, then fallback.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
