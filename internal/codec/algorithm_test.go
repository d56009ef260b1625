package codec

import "testing"

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input string
		want  Algorithm
	}{
		{"gzip", Gzip},
		{"GZIP", Gzip},
		{"gz", Gzip},
		{"brotli", Brotli},
		{"br", Brotli},
		{"deflate", Deflate},
		{"zlib", Deflate},
		{"deflateRaw", DeflateRaw},
		{"deflate-raw", DeflateRaw},
		{"deflate_raw", DeflateRaw},
		{"zstd", Zstd},
		{"zstandard", Zstd},
		{" gzip ", Gzip},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if err != nil {
				t.Fatalf("ParseAlgorithm(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseAlgorithm("lzma"); err == nil {
		t.Error("ParseAlgorithm(\"lzma\") should fail")
	}
	if _, err := ParseAlgorithm(""); err == nil {
		t.Error("ParseAlgorithm(\"\") should fail")
	}
}

func TestDefaultExtension(t *testing.T) {
	tests := []struct {
		algo Algorithm
		want string
	}{
		{Gzip, ".gz"},
		{Brotli, ".br"},
		{Zstd, ".zst"},
		{Deflate, ""},
		{DeflateRaw, ""},
	}

	for _, tt := range tests {
		if got := tt.algo.DefaultExtension(); got != tt.want {
			t.Errorf("%s.DefaultExtension() = %q, want %q", tt.algo, got, tt.want)
		}
	}
}

func TestNormalizeExtension(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"zz", ".zz"},
		{".zz", ".zz"},
		{"gz", ".gz"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeExtension(tt.input); got != tt.want {
			t.Errorf("NormalizeExtension(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAlgorithmIsValid(t *testing.T) {
	for _, algo := range []Algorithm{Gzip, Brotli, Deflate, DeflateRaw, Zstd} {
		if !algo.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", algo)
		}
	}
	if Algorithm("lzma").IsValid() {
		t.Error("Algorithm(\"lzma\").IsValid() = true, want false")
	}
}
