package instance

import (
	"os"

	"github.com/zauberjournal/journal-api/pkg/env"
)

// GetID identifies the running process in logs. An explicit ZJ_INSTANCE_ID
// wins, then platform ids, then the hostname.
func GetID() string {
	if id, ok := env.First("ZJ_INSTANCE_ID", "DYNO", "K_REVISION"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
