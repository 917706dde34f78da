package compressing

import (
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/hungys/go-lz4"
	"github.com/ironsweet/gosearch/core/codec"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// How index blocks are compressed before they are serialized.
type CompressionMode int

const (
	COMPRESSION_MODE_NONE = CompressionMode(iota)
	// LZ4: fast compression and very fast decompression
	COMPRESSION_MODE_FAST
	COMPRESSION_MODE_SNAPPY
	// zstd: best ratio, for blocks that are rarely rewritten
	COMPRESSION_MODE_ZSTD
)

func (m CompressionMode) String() string {
	switch m {
	case COMPRESSION_MODE_NONE:
		return "none"
	case COMPRESSION_MODE_FAST:
		return "lz4"
	case COMPRESSION_MODE_SNAPPY:
		return "snappy"
	case COMPRESSION_MODE_ZSTD:
		return "zstd"
	}
	return fmt.Sprintf("CompressionMode(%d)", int(m))
}

// Parses the names produced by String().
func ParseCompressionMode(name string) (CompressionMode, error) {
	for m := COMPRESSION_MODE_NONE; m <= COMPRESSION_MODE_ZSTD; m++ {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown compression mode %q", name)
}

/*
Compress src into out. The compressed stream carries no length: the
caller records len(src) and hands it back to the Decompressor.
*/
type Compressor func(src []byte, out util.DataWriter) error

/*
Decompress src, which must decode to exactly originalLength bytes.
Implementations return codec.ErrCorrupt (wrapped) when it does not.
*/
type Decompressor func(src []byte, originalLength int) ([]byte, error)

func (m CompressionMode) NewCompressor() Compressor {
	switch m {
	case COMPRESSION_MODE_NONE:
		return func(src []byte, out util.DataWriter) error {
			return out.WriteBytes(src)
		}
	case COMPRESSION_MODE_FAST:
		return func(src []byte, out util.DataWriter) error {
			if len(src) == 0 {
				return nil
			}
			dst := make([]byte, lz4.CompressBound(len(src)))
			n, err := lz4.CompressDefault(src, dst)
			if err != nil {
				return errors.Wrap(err, "lz4")
			}
			return out.WriteBytes(dst[:n])
		}
	case COMPRESSION_MODE_SNAPPY:
		return func(src []byte, out util.DataWriter) error {
			return out.WriteBytes(snappy.Encode(nil, src))
		}
	case COMPRESSION_MODE_ZSTD:
		return func(src []byte, out util.DataWriter) error {
			enc, err := zstdEncoder()
			if err != nil {
				return err
			}
			return out.WriteBytes(enc.EncodeAll(src, nil))
		}
	}
	panic(fmt.Sprintf("unsupported compression mode: %v", m))
}

func (m CompressionMode) NewDecompressor() Decompressor {
	var decode func(src []byte, originalLength int) ([]byte, error)
	switch m {
	case COMPRESSION_MODE_NONE:
		decode = func(src []byte, _ int) ([]byte, error) {
			return append([]byte(nil), src...), nil
		}
	case COMPRESSION_MODE_FAST:
		decode = func(src []byte, originalLength int) ([]byte, error) {
			if originalLength == 0 && len(src) == 0 {
				return []byte{}, nil
			}
			dst := make([]byte, originalLength)
			n, err := lz4.DecompressSafe(src, dst)
			if err != nil {
				return nil, err
			}
			return dst[:n], nil
		}
	case COMPRESSION_MODE_SNAPPY:
		decode = func(src []byte, originalLength int) ([]byte, error) {
			if n, err := snappy.DecodedLen(src); err != nil || n != originalLength {
				return nil, errors.Errorf("snappy block decodes to %v bytes", n)
			}
			return snappy.Decode(make([]byte, originalLength), src)
		}
	case COMPRESSION_MODE_ZSTD:
		decode = func(src []byte, originalLength int) ([]byte, error) {
			dec, err := zstdDecoder()
			if err != nil {
				return nil, err
			}
			// zstd has no useful ratio bound, so let the decoder grow dst
			return dec.DecodeAll(src, make([]byte, 0, min(originalLength, 4*len(src))))
		}
	default:
		panic(fmt.Sprintf("unsupported compression mode: %v", m))
	}
	return func(src []byte, originalLength int) ([]byte, error) {
		if originalLength < 0 || originalLength > m.maxDecodedLength(len(src)) {
			return nil, errors.Wrapf(codec.ErrCorrupt,
				"%v: %v bytes cannot decode to %v", m, len(src), originalLength)
		}
		res, err := decode(src, originalLength)
		if err != nil {
			return nil, errors.Wrapf(codec.ErrCorrupt, "%v: %v", m, err)
		}
		if len(res) != originalLength {
			return nil, errors.Wrapf(codec.ErrCorrupt,
				"%v: lengths mismatch: %v != %v", m, len(res), originalLength)
		}
		return res, nil
	}
}

// Largest output srcLength compressed bytes can decode to.
func (m CompressionMode) maxDecodedLength(srcLength int) int {
	switch m {
	case COMPRESSION_MODE_NONE:
		return srcLength
	case COMPRESSION_MODE_FAST:
		// a match sequence yields at most 255 bytes per input byte
		return 256*srcLength + 64
	case COMPRESSION_MODE_SNAPPY:
		// a 3 byte copy yields at most 64 bytes
		return 32 * srcLength
	}
	return MAX_ZSTD_DECODED_LENGTH
}

// Frames claiming a larger content size are rejected by the decoder.
const MAX_ZSTD_DECODED_LENGTH = 256 << 20

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

// The shared encoder and decoder are safe for concurrent EncodeAll and
// DecodeAll calls.
func initZstd() {
	zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if zstdErr == nil {
		zstdDec, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MAX_ZSTD_DECODED_LENGTH))
	}
}

func zstdEncoder() (*zstd.Encoder, error) {
	zstdOnce.Do(initZstd)
	return zstdEnc, zstdErr
}

func zstdDecoder() (*zstd.Decoder, error) {
	zstdOnce.Do(initZstd)
	return zstdDec, zstdErr
}
