package codec

import (
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Options holds algorithm tuning parameters keyed by option name.
// Values arrive from YAML or JSON decoding, so numeric options may be
// any of int, int64 or float64.
type Options map[string]any

// Option keys understood by the codec table.
const (
	// OptLevel is the compression level for gzip, deflate, deflateRaw
	// and zstd.
	OptLevel = "level"
	// OptQuality is the brotli quality (0-11).
	OptQuality = "quality"
	// OptWindow is the brotli log2 sliding window size (10-24, 0 for
	// the library default).
	OptWindow = "lgwin"
)

// zstdBaselineLevel is the zstd level used when none is configured.
// 19 is zstd's conventional "maximum practical" level; the pipeline
// runs after the build, where ratio matters more than speed.
const zstdBaselineLevel = 19

// baseline returns the default tuning for an algorithm. Every
// algorithm defaults to its maximum compression setting. Unknown
// algorithms yield an empty baseline rather than an error; the codec
// invocation is where an unsupported algorithm ultimately fails.
func baseline(algo Algorithm) Options {
	switch algo {
	case Gzip, Deflate, DeflateRaw:
		return Options{OptLevel: gzip.BestCompression}
	case Brotli:
		return Options{OptQuality: brotli.BestCompression}
	case Zstd:
		return Options{OptLevel: zstdBaselineLevel}
	default:
		return Options{}
	}
}

// Resolve merges user-supplied options over the algorithm's baseline.
// The merge is shallow: a user key replaces the baseline key of the
// same name wholesale. The input map is not modified.
func Resolve(algo Algorithm, user Options) Options {
	merged := baseline(algo)
	for key, value := range user {
		merged[key] = value
	}
	return merged
}

// IntOption reads a numeric option, tolerating the integer and float
// representations produced by YAML and JSON decoding. Missing or
// non-numeric values yield the fallback.
func IntOption(opts Options, key string, fallback int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
