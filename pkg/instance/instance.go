package instance

import (
	"os"
	"strings"
)

var idKeys = []string{"STOREFRONT_INSTANCE_ID", "DYNO"}

// ID names this process in logs. It prefers an explicit instance id, then
// the dyno name, then the hostname.
func ID() string {
	for _, key := range idKeys {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
