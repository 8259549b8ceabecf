package registry

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"
)

// AcceptEncoding is sent with every request. The transport does not
// decompress on its own, so every encoding listed here must be handled by
// decodeBody.
const AcceptEncoding = "zstd, gzip"

// decodeBody wraps r according to a Content-Encoding header value. Besides
// the HTTP encodings, xz and lzip are accepted for servers that publish
// pre-compressed artifacts with a matching Content-Encoding.
func decodeBody(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return io.NopCloser(r), nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip stream: %w", err)
		}
		return zr, nil
	case "zstd":
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("invalid zstd stream: %w", err)
		}
		return zr.IOReadCloser(), nil
	case "xz", "x-xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("invalid xz stream: %w", err)
		}
		return io.NopCloser(xr), nil
	case "lzip", "x-lzip":
		lr, err := lzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("invalid lzip stream: %w", err)
		}
		return io.NopCloser(lr), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}
