package codec

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
)

/* Constant to identify the start of a codec header. */
const CODEC_MAGIC = 0x3fd76c17

/* Constant to identify the start of a codec footer. */
const FOOTER_MAGIC = ^CODEC_MAGIC

const FOOTER_LENGTH = 16

// Checksum algorithms a footer may declare.
const (
	CHECKSUM_XXHASH64 = 1
)

var (
	// Wrapped by every error caused by bytes that do not decode.
	ErrCorrupt = errors.New("corrupt index data")
	ErrTooOld  = errors.New("format version is too old")
	ErrTooNew  = errors.New("format version is too new")
)

/*
Writes a codec header, which records both a string to identify the
encoded structure and a version number. This header can be parsed and
validated with CheckHeader().

	CodecHeader --> Magic,CodecName,Version
		Magic --> uint32. This identifies the start of the header. It is
		always CODEC_MAGIC.
		CodecName --> string. This is a string to identify this structure.
		Version --> uint32. Records the version of the format.

Note that the length of a codec header depends only upon the name of
the codec, so this length can be computed at any time with
HeaderLength().
*/
func WriteHeader(out util.DataOutput, codec string, version int32) error {
	assertTrue(out != nil)
	assert2(isSimpleASCII(codec) && len(codec) < 128,
		"codec must be simple ASCII, less than 128 characters in length [got %v]", codec)
	err := out.WriteInt(CODEC_MAGIC)
	if err == nil {
		err = out.WriteString(codec)
		if err == nil {
			err = out.WriteInt(version)
		}
	}
	return err
}

func isSimpleASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

/* Computes the length of a codec header */
func HeaderLength(codec string) int {
	return 9 + len(codec)
}

/*
Reads and validates a header previously written with WriteHeader()
and returns the actual version.
*/
func CheckHeader(in util.DataInput, codec string, minVersion, maxVersion int32) (v int32, err error) {
	actualHeader, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	if actualHeader != CODEC_MAGIC {
		return 0, errors.Wrapf(ErrCorrupt,
			"codec header mismatch: actual header=%v vs expected header=%v",
			actualHeader, CODEC_MAGIC)
	}

	actualCodec, err := in.ReadString()
	if err != nil {
		return 0, err
	}
	if actualCodec != codec {
		return 0, errors.Wrapf(ErrCorrupt,
			"codec mismatch: actual codec=%v vs expected codec=%v", actualCodec, codec)
	}

	actualVersion, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	if actualVersion < minVersion {
		return 0, errors.Wrapf(ErrTooOld, "%v: %v (needs to be between %v and %v)",
			codec, actualVersion, minVersion, maxVersion)
	}
	if actualVersion > maxVersion {
		return 0, errors.Wrapf(ErrTooNew, "%v: %v (needs to be between %v and %v)",
			codec, actualVersion, minVersion, maxVersion)
	}
	return actualVersion, nil
}

/*
Appends a codec footer at the position of b, which records both a
checksum algorithm ID and a checksum. This footer can be parsed and
validated with CheckFooter().

	CodecFooter --> Magic,AlgorithmID,Checksum
		Magic --> uint32. This identifies the start of the footer. It is
		always FOOTER_MAGIC.
		AlgorithmID --> uint32. The checksum algorithm used. Currently
		this is always CHECKSUM_XXHASH64.
		Checksum --> uint64. The xxhash64 of all previous bytes in the
		buffer, including the bytes from Magic and AlgorithmID.
*/
func WriteFooter(b *store.Buffer) (err error) {
	out := util.NewDataOutput(store.NewBufferWriter(b))
	if err = out.WriteInt(FOOTER_MAGIC); err == nil {
		if err = out.WriteInt(CHECKSUM_XXHASH64); err == nil {
			err = out.WriteLong(int64(xxhash.Sum64(b.Bytes())))
		}
	}
	return
}

/*
Validates the footer at the end of b's store and returns its checksum.
The position of b is left just past the footer, i.e. at the end.
*/
func CheckFooter(b *store.Buffer) (cs int64, err error) {
	if b.Capacity() < FOOTER_LENGTH {
		return 0, errors.Wrapf(ErrCorrupt, "%v bytes is too short for a footer", b.Capacity())
	}
	r := store.NewBufferReader(b)
	in := util.NewDataInput(r)
	r.Seek(b.Capacity() - FOOTER_LENGTH)
	if err = validateFooter(in); err != nil {
		return 0, err
	}
	actual := int64(xxhash.Sum64(b.Bytes()))
	if cs, err = in.ReadLong(); err != nil {
		return 0, err
	}
	if cs != actual {
		return 0, errors.Wrapf(ErrCorrupt,
			"checksum failed (hardware problem?): expected=%v actual=%v",
			ItoHex(cs), ItoHex(actual))
	}
	return cs, nil
}

func validateFooter(in util.DataInput) error {
	magic, err := in.ReadInt()
	if err != nil {
		return err
	}
	if magic != FOOTER_MAGIC {
		return errors.Wrapf(ErrCorrupt,
			"codec footer mismatch: actual footer=%v vs expected footer=%v",
			magic, FOOTER_MAGIC)
	}

	algorithmId, err := in.ReadInt()
	if err != nil {
		return err
	}
	if algorithmId != CHECKSUM_XXHASH64 {
		return errors.Wrapf(ErrCorrupt,
			"codec footer mismatch: unknown algorithmID: %v", algorithmId)
	}
	return nil
}

func ItoHex(n int64) string {
	return fmt.Sprintf("0x%016x", uint64(n))
}

func assertTrue(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
