package filename

import "encfs/errs"

// EncFS's on-disk filenames use two purpose-built base64 variants rather
// than one generic, configurable codec (spec §9: "implement as two
// dedicated codecs, not a configuration of a generic base64"), each
// little-endian bit-packed (least-significant bit first) with no padding
// characters.
const (
	blockAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789,-"
	streamAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

func reverseLookup(alphabet string) [256]int8 {
	var rev [256]int8
	for i := range rev {
		rev[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		rev[alphabet[i]] = int8(i)
	}
	return rev
}

var (
	blockReverse  = reverseLookup(blockAlphabet)
	streamReverse = reverseLookup(streamAlphabet)
)

// encodeLE64 bit-packs data into 6-bit groups, least-significant bit first,
// indexing alphabet. Output length is ceil(len(data)*8/6), matching spec
// §4.2 step 4.
func encodeLE64(data []byte, alphabet string) string {
	out := make([]byte, 0, (len(data)*8+5)/6)
	var bitBuffer uint32
	var bitCount uint

	for _, b := range data {
		bitBuffer |= uint32(b) << bitCount
		bitCount += 8
		for bitCount >= 6 {
			out = append(out, alphabet[bitBuffer&0x3F])
			bitBuffer >>= 6
			bitCount -= 6
		}
	}
	if bitCount > 0 {
		out = append(out, alphabet[bitBuffer&0x3F])
	}
	return string(out)
}

// decodeLE64 reverses encodeLE64. An input byte outside alphabet is a
// CorruptDataError.
func decodeLE64(s string, rev *[256]int8) ([]byte, error) {
	out := make([]byte, 0, len(s)*6/8)
	var bitBuffer uint32
	var bitCount uint

	for i := 0; i < len(s); i++ {
		v := rev[s[i]]
		if v < 0 {
			return nil, errs.NewCorruptDataError("filename contains a character outside the base64 alphabet")
		}
		bitBuffer |= uint32(v) << bitCount
		bitCount += 6
		for bitCount >= 8 {
			out = append(out, byte(bitBuffer&0xFF))
			bitBuffer >>= 8
			bitCount -= 8
		}
	}
	return out, nil
}

// EncodeBlockName encodes raw bytes with the block-mode alphabet.
func EncodeBlockName(data []byte) string { return encodeLE64(data, blockAlphabet) }

// DecodeBlockName decodes a block-mode-encoded name.
func DecodeBlockName(s string) ([]byte, error) { return decodeLE64(s, &blockReverse) }

// EncodeStreamName encodes raw bytes with the stream-mode alphabet.
func EncodeStreamName(data []byte) string { return encodeLE64(data, streamAlphabet) }

// DecodeStreamName decodes a stream-mode-encoded name.
func DecodeStreamName(s string) ([]byte, error) { return decodeLE64(s, &streamReverse) }
