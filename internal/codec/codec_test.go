package codec

import (
	"bytes"
	"errors"
	"testing"
)

// samplePayload returns compressible data: repeated JS-ish text with a
// little per-line variance so every algorithm has real work to do.
func samplePayload(size int) []byte {
	var buf bytes.Buffer
	line := 0
	for buf.Len() < size {
		buf.WriteString("export const value")
		buf.WriteByte(byte('0' + line%10))
		buf.WriteString(" = { enabled: true, retries: 3 };\n")
		line++
	}
	return buf.Bytes()[:size]
}

func TestCompressRoundTrip(t *testing.T) {
	data := samplePayload(64 * 1024)

	for _, algo := range []Algorithm{Gzip, Brotli, Deflate, DeflateRaw, Zstd} {
		t.Run(algo.String(), func(t *testing.T) {
			compressed, err := Compress(data, algo, Resolve(algo, nil))
			if err != nil {
				t.Fatalf("Compress(%s) failed: %v", algo, err)
			}
			if len(compressed) == 0 {
				t.Fatalf("Compress(%s) produced no output", algo)
			}
			if len(compressed) >= len(data) {
				t.Errorf("Compress(%s) did not shrink input: %d -> %d bytes",
					algo, len(data), len(compressed))
			}

			restored, err := Decompress(compressed, algo)
			if err != nil {
				t.Fatalf("Decompress(%s) failed: %v", algo, err)
			}
			if !bytes.Equal(restored, data) {
				t.Errorf("round trip mismatch for %s: got %d bytes, want %d",
					algo, len(restored), len(data))
			}
		})
	}
}

func TestCompressEmptyInput(t *testing.T) {
	for _, algo := range []Algorithm{Gzip, Brotli, Deflate, DeflateRaw, Zstd} {
		t.Run(algo.String(), func(t *testing.T) {
			compressed, err := Compress(nil, algo, Resolve(algo, nil))
			if err != nil {
				t.Fatalf("Compress(%s) on empty input failed: %v", algo, err)
			}

			restored, err := Decompress(compressed, algo)
			if err != nil {
				t.Fatalf("Decompress(%s) on empty stream failed: %v", algo, err)
			}
			if len(restored) != 0 {
				t.Errorf("expected empty output, got %d bytes", len(restored))
			}
		})
	}
}

func TestCompressUnknownAlgorithm(t *testing.T) {
	_, err := Compress([]byte("data"), Algorithm("lzma"), nil)
	if !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("Compress(lzma) error = %v, want ErrUnknownAlgorithm", err)
	}

	_, err = Decompress([]byte("data"), Algorithm("lzma"))
	if !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("Decompress(lzma) error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestCompressInvalidLevel(t *testing.T) {
	// Levels outside the codec's range must surface as per-file codec
	// errors, not panics.
	_, err := Compress([]byte("data"), Gzip, Options{OptLevel: 42})
	if err == nil {
		t.Error("Compress(gzip, level=42) should fail")
	}

	_, err = Compress([]byte("data"), DeflateRaw, Options{OptLevel: -5})
	if err == nil {
		t.Error("Compress(deflateRaw, level=-5) should fail")
	}
}

func TestCompressLevelChangesOutput(t *testing.T) {
	data := samplePayload(256 * 1024)

	fast, err := Compress(data, Gzip, Options{OptLevel: 1})
	if err != nil {
		t.Fatalf("Compress(level=1) failed: %v", err)
	}
	best, err := Compress(data, Gzip, Options{OptLevel: 9})
	if err != nil {
		t.Fatalf("Compress(level=9) failed: %v", err)
	}

	if len(best) > len(fast) {
		t.Errorf("level 9 output (%d bytes) larger than level 1 output (%d bytes)",
			len(best), len(fast))
	}

	// Both must still round-trip.
	for _, compressed := range [][]byte{fast, best} {
		restored, err := Decompress(compressed, Gzip)
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}
		if !bytes.Equal(restored, data) {
			t.Fatal("round trip mismatch")
		}
	}
}

func TestCompressBrotliQualityOption(t *testing.T) {
	data := samplePayload(128 * 1024)

	compressed, err := Compress(data, Brotli, Resolve(Brotli, Options{OptQuality: 4, OptWindow: 18}))
	if err != nil {
		t.Fatalf("Compress(brotli, quality=4) failed: %v", err)
	}

	restored, err := Decompress(compressed, Brotli)
	if err != nil {
		t.Fatalf("Decompress(brotli) failed: %v", err)
	}
	if !bytes.Equal(restored, data) {
		t.Error("brotli round trip mismatch with custom quality")
	}
}
