package codec

import (
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestResolveBaselines(t *testing.T) {
	tests := []struct {
		algo Algorithm
		key  string
		want int
	}{
		{Gzip, OptLevel, gzip.BestCompression},
		{Deflate, OptLevel, gzip.BestCompression},
		{DeflateRaw, OptLevel, gzip.BestCompression},
		{Brotli, OptQuality, 11},
		{Zstd, OptLevel, 19},
	}

	for _, tt := range tests {
		t.Run(tt.algo.String(), func(t *testing.T) {
			opts := Resolve(tt.algo, nil)
			if got := IntOption(opts, tt.key, -1); got != tt.want {
				t.Errorf("Resolve(%s)[%s] = %d, want %d", tt.algo, tt.key, got, tt.want)
			}
		})
	}
}

func TestResolveUserWinsOnCollision(t *testing.T) {
	opts := Resolve(Gzip, Options{OptLevel: 1})
	if got := IntOption(opts, OptLevel, -1); got != 1 {
		t.Errorf("user level = %d, want 1", got)
	}
}

func TestResolveMergeIsShallow(t *testing.T) {
	// Extra user keys pass through untouched alongside baseline keys.
	opts := Resolve(Brotli, Options{OptWindow: 22, "custom": "x"})

	if got := IntOption(opts, OptQuality, -1); got != 11 {
		t.Errorf("baseline quality = %d, want 11", got)
	}
	if got := IntOption(opts, OptWindow, -1); got != 22 {
		t.Errorf("user lgwin = %d, want 22", got)
	}
	if opts["custom"] != "x" {
		t.Errorf("custom key = %v, want \"x\"", opts["custom"])
	}
}

func TestResolveUnknownAlgorithmPassesThrough(t *testing.T) {
	// Unknown algorithms must not panic or error at resolve time; the
	// codec table is where they fail.
	opts := Resolve(Algorithm("lzma"), Options{OptLevel: 7})
	if len(opts) != 1 {
		t.Fatalf("expected pass-through of user options only, got %v", opts)
	}
	if got := IntOption(opts, OptLevel, -1); got != 7 {
		t.Errorf("level = %d, want 7", got)
	}
}

func TestResolveDoesNotModifyInput(t *testing.T) {
	user := Options{OptWindow: 20}
	Resolve(Brotli, user)

	if len(user) != 1 {
		t.Errorf("Resolve modified the user options map: %v", user)
	}
}

func TestIntOptionCoercions(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		want  int
	}{
		{"int", Options{OptLevel: 5}, 5},
		{"int64", Options{OptLevel: int64(6)}, 6},
		{"float64", Options{OptLevel: float64(7)}, 7},
		{"missing", Options{}, 9},
		{"wrong type", Options{OptLevel: "max"}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IntOption(tt.opts, OptLevel, 9); got != tt.want {
				t.Errorf("IntOption = %d, want %d", got, tt.want)
			}
		})
	}
}
