package enums

import "fmt"

type OutputFormat string

const (
	// OutputFormatArray appends one indented JSON array per write. A file
	// written more than once holds several JSON values, not one document.
	OutputFormatArray OutputFormat = "array"

	// OutputFormatJSONL writes one record per line.
	OutputFormatJSONL OutputFormat = "jsonl"
)

func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatArray, OutputFormatJSONL:
		return f, nil
	}
	return "", fmt.Errorf("invalid output format: %q", s)
}

// SeenBackend selects where post ids are remembered across runs.
type SeenBackend string

const (
	SeenBackendMemory   SeenBackend = "memory"
	SeenBackendPostgres SeenBackend = "postgres"
	SeenBackendRedis    SeenBackend = "redis"
	SeenBackendMemcache SeenBackend = "memcache"
)

func ParseSeenBackend(s string) (SeenBackend, error) {
	switch b := SeenBackend(s); b {
	case SeenBackendMemory, SeenBackendPostgres, SeenBackendRedis, SeenBackendMemcache:
		return b, nil
	}
	return "", fmt.Errorf("invalid seen backend: %q", s)
}
