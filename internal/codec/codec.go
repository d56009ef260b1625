// Package codec provides the byte-stream compression transforms used
// by the pipeline. The algorithm set is closed: dispatch happens over
// a fixed table rather than by dynamic lookup, so an unsupported name
// fails in exactly one place.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrUnknownAlgorithm is returned when the requested algorithm is not
// in the codec table.
var ErrUnknownAlgorithm = errors.New("codec: unknown algorithm")

// Compress transforms data with the given algorithm and resolved
// options. The input is never modified; the returned slice is freshly
// allocated.
func Compress(data []byte, algo Algorithm, opts Options) ([]byte, error) {
	switch algo {
	case Gzip:
		return compressGzip(data, opts)
	case Brotli:
		return compressBrotli(data, opts)
	case Deflate:
		return compressDeflate(data, opts)
	case DeflateRaw:
		return compressDeflateRaw(data, opts)
	case Zstd:
		return compressZstd(data, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algo)
	}
}

// Decompress reverses Compress for the given algorithm. It exists so
// that compressed siblings can be verified against their originals.
func Decompress(data []byte, algo Algorithm) ([]byte, error) {
	switch algo {
	case Gzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case Brotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	case Deflate:
		reader, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case DeflateRaw:
		reader := flate.NewReader(bytes.NewReader(data))
		defer reader.Close()
		return io.ReadAll(reader)
	case Zstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return decoder.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algo)
	}
}

func compressGzip(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, IntOption(opts, OptLevel, gzip.BestCompression))
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressBrotli(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	writer := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: IntOption(opts, OptQuality, brotli.BestCompression),
		LGWin:   IntOption(opts, OptWindow, 0),
	})
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressDeflate(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := zlib.NewWriterLevel(&buf, IntOption(opts, OptLevel, zlib.BestCompression))
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressDeflateRaw(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := flate.NewWriter(&buf, IntOption(opts, OptLevel, flate.BestCompression))
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressZstd(data []byte, opts Options) ([]byte, error) {
	level := zstd.EncoderLevelFromZstd(IntOption(opts, OptLevel, zstdBaselineLevel))
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}
