package cache

import "fmt"

// GenerateKey creates a cache key with prefix and ID. An empty prefix
// leaves the ID unchanged.
func GenerateKey(prefix string, id string) string {
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s:%s", prefix, id)
}
