package codec

import (
	"fmt"
	"strings"
)

// Algorithm identifies a compression transform.
type Algorithm string

const (
	// Gzip produces RFC 1952 gzip streams (default).
	Gzip Algorithm = "gzip"
	// Brotli produces RFC 7932 brotli streams.
	Brotli Algorithm = "brotli"
	// Deflate produces RFC 1950 zlib-wrapped deflate streams.
	Deflate Algorithm = "deflate"
	// DeflateRaw produces RFC 1951 deflate streams without a wrapper.
	DeflateRaw Algorithm = "deflateRaw"
	// Zstd produces RFC 8878 zstandard streams.
	Zstd Algorithm = "zstd"
)

// extensionMap holds the derived output extension per algorithm.
// Deflate and DeflateRaw have no conventional sibling extension and
// require an explicitly configured one.
var extensionMap = map[Algorithm]string{
	Gzip:   ".gz",
	Brotli: ".br",
	Zstd:   ".zst",
}

// IsValid returns true if the algorithm is one of the supported set.
func (a Algorithm) IsValid() bool {
	switch a {
	case Gzip, Brotli, Deflate, DeflateRaw, Zstd:
		return true
	default:
		return false
	}
}

// String returns the canonical name of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// DefaultExtension returns the derived sibling extension for the
// algorithm, or an empty string when none is defined.
func (a Algorithm) DefaultExtension() string {
	return extensionMap[a]
}

// ParseAlgorithm parses an algorithm name. Matching is case-insensitive
// and accepts the common aliases seen in configuration files.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gzip", "gz":
		return Gzip, nil
	case "brotli", "br":
		return Brotli, nil
	case "deflate", "zlib":
		return Deflate, nil
	case "deflateraw", "deflate-raw", "deflate_raw":
		return DeflateRaw, nil
	case "zstd", "zstandard":
		return Zstd, nil
	default:
		return "", fmt.Errorf("unknown compression algorithm: %q", name)
	}
}

// NormalizeExtension ensures an output extension carries a leading dot.
// An empty input stays empty.
func NormalizeExtension(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}
