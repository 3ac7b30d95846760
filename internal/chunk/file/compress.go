package file

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoding is a sidecar compression format. Each chunk and the index can be
// accompanied by pre-compressed siblings (errors_001.json.br, ...) so a
// static host can serve them without compressing on the fly.
type Encoding string

const (
	Brotli Encoding = "br"
	Gzip   Encoding = "gz"
	Zstd   Encoding = "zst"
)

// Encodings lists every supported sidecar format.
var Encodings = []Encoding{Brotli, Gzip, Zstd}

// Ext returns the file suffix for the encoding, including the dot.
func (e Encoding) Ext() string {
	return "." + string(e)
}

// ContentEncoding returns the HTTP Content-Encoding token for the encoding.
func (e Encoding) ContentEncoding() string {
	switch e {
	case Brotli:
		return "br"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	}
	return ""
}

// ParseEncodings parses encoding names such as "br", "gz", "zst". Entries
// may themselves be comma-separated. Duplicates are collapsed.
func ParseEncodings(names []string) ([]Encoding, error) {
	var out []Encoding
	for _, n := range names {
		for part := range strings.SplitSeq(n, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			var enc Encoding
			switch part {
			case "br", "brotli":
				enc = Brotli
			case "gz", "gzip":
				enc = Gzip
			case "zst", "zstd":
				enc = Zstd
			default:
				return nil, fmt.Errorf("unknown compression %q (want br, gz or zst)", part)
			}
			if !slices.Contains(out, enc) {
				out = append(out, enc)
			}
		}
	}
	return out, nil
}

// EncodingForFile returns the sidecar encoding implied by name's suffix.
func EncodingForFile(name string) (Encoding, bool) {
	for _, e := range Encodings {
		if strings.HasSuffix(name, e.Ext()) {
			return e, true
		}
	}
	return "", false
}

// zstdEnc and zstdDec are package-level and concurrent-safe for EncodeAll/DecodeAll.
var (
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
)

func init() {
	var err error
	zstdEnc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		panic("zstd: init encoder: " + err.Error())
	}
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("zstd: init decoder: " + err.Error())
	}
}

// Compress encodes data in the given format at its best compression level.
func Compress(enc Encoding, data []byte) ([]byte, error) {
	switch enc {
	case Brotli:
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Gzip:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zstd:
		return zstdEnc.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("unknown compression %q", enc)
}

// Decompress reverses Compress.
func Decompress(enc Encoding, data []byte) ([]byte, error) {
	switch enc {
	case Brotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		return io.ReadAll(r)
	case Zstd:
		return zstdDec.DecodeAll(data, nil)
	}
	return nil, fmt.Errorf("unknown compression %q", enc)
}
