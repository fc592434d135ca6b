package redis

import "fmt"

const (
	// keyPrefixRecord namespaces resolution records by origin.
	keyPrefixRecord = "sora:record:"
	// keyPrefixCounter namespaces per-provider download counters.
	keyPrefixCounter = "sora:downloads:"
)

// RecordKey returns the redis key for a record of the given origin.
func RecordKey(origin Origin, id string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefixRecord, origin, id)
}

// CounterKey returns the redis key for a provider's download counter.
func CounterKey(provider string) string {
	return keyPrefixCounter + provider
}
