// Package filename implements EncFS's two on-disk filename codecs (spec
// §4.2): block mode (AES-CBC over PKCS-style padded plaintext) and stream
// mode (AES-CFB over the raw plaintext), both MAC-prefixed and encoded with
// a dedicated little-endian-bit-packed base64 alphabet. Both modes chain an
// IV through a directory's ancestor path components when chained name IV is
// enabled, so renaming a directory changes every descendant's encoded name.
package filename

import (
	"encoding/binary"

	"encfs/errs"
	"encfs/internal/config"
	"encfs/internal/cryptoprim"
)

const blockSize = 16 // AES block size; also the PKCS-style pad unit for block mode.

// Codec encodes and decodes plaintext names to/from their on-disk encoded
// form using a volume's data and HMAC keys.
type Codec struct {
	algorithm config.FilenameAlgorithm
	chained   bool
	dataKey   []byte
	hmacKey   []byte
}

// New builds a Codec for the given volume configuration and keys. The keys
// are held by reference, not copied; callers own their lifetime.
func New(cfg *config.VolumeConfig, dataKey, hmacKey []byte) *Codec {
	return &Codec{
		algorithm: cfg.FilenameAlgorithm,
		chained:   cfg.UseChainedNameIV,
		dataKey:   dataKey,
		hmacKey:   hmacKey,
	}
}

// ChainIV folds an 8-byte IV across path, the ordered plaintext names of a
// file's ancestor directories (root first, not including the file's own
// name). When chained name IV is disabled the chain IV is always zero,
// per spec §4.2.
func (c *Codec) ChainIV(path []string) []byte {
	iv := make([]byte, 8)
	if !c.chained {
		return iv
	}
	for _, component := range path {
		iv = cryptoprim.MACFold(c.hmacKey, 8, []byte(component), iv)
	}
	return iv
}

// mac16 computes the 2-byte filename MAC prefix used both to derive the
// per-file IV and to authenticate the decoded name.
func (c *Codec) mac16(name []byte) uint16 {
	folded := cryptoprim.MACFold(c.hmacKey, 2, name)
	return binary.BigEndian.Uint16(folded)
}

// extendMAC16 tiles a 2-byte MAC across an 8-byte buffer so it can be
// XORed against a chain IV of the same width.
func extendMAC16(mac uint16) []byte {
	var m [2]byte
	binary.BigEndian.PutUint16(m[:], mac)
	out := make([]byte, 8)
	for i := range out {
		out[i] = m[i%2]
	}
	return out
}

func (c *Codec) fileIV(chainIV []byte, mac uint16) []byte {
	return cryptoprim.XORBytes(chainIV, extendMAC16(mac))
}

// FileIV computes the per-file IV (spec §4.2) for a plaintext path's final
// component, given the chain IV of its parent directories. Used to chain a
// file's content encryption to its filename when externalIVChaining is set.
func (c *Codec) FileIV(components []string) []byte {
	if len(components) == 0 {
		return make([]byte, 8)
	}
	parent := components[:len(components)-1]
	name := components[len(components)-1]
	mac := c.mac16([]byte(name))
	return c.fileIV(c.ChainIV(parent), mac)
}

// EncodeName encrypts and encodes a single plaintext path component. chainIV
// is the value returned by ChainIV for the component's parent directory.
func (c *Codec) EncodeName(name string, chainIV []byte) (string, error) {
	if name == "" {
		return "", errs.ErrEmptyPathComponent
	}

	mac := c.mac16([]byte(name))
	iv := cryptoprim.ExtendIV(c.fileIV(chainIV, mac), blockSize)

	var cipherName []byte
	var err error
	switch c.algorithm {
	case config.FilenameBlock:
		cipherName, err = cryptoprim.AESCBCEncrypt(c.dataKey, iv, pkcs7Pad([]byte(name), blockSize))
	case config.FilenameStream:
		cipherName, err = cryptoprim.AESCFBEncrypt(c.dataKey, iv, []byte(name))
	default:
		return "", errs.ErrUnsupported
	}
	if err != nil {
		return "", err
	}

	var macBytes [2]byte
	binary.BigEndian.PutUint16(macBytes[:], mac)
	payload := append(macBytes[:], cipherName...)

	if c.algorithm == config.FilenameBlock {
		return EncodeBlockName(payload), nil
	}
	return EncodeStreamName(payload), nil
}

// DecodeName decrypts and decodes a single encoded path component, verifying
// its MAC prefix against the recovered plaintext.
func (c *Codec) DecodeName(encoded string, chainIV []byte) (string, error) {
	if encoded == "" {
		return "", errs.ErrEmptyPathComponent
	}

	var payload []byte
	var err error
	if c.algorithm == config.FilenameBlock {
		payload, err = DecodeBlockName(encoded)
	} else {
		payload, err = DecodeStreamName(encoded)
	}
	if err != nil {
		return "", err
	}
	if len(payload) < 2 {
		return "", errs.NewCorruptDataError("encoded name decodes to fewer than 2 bytes")
	}

	mac := binary.BigEndian.Uint16(payload[:2])
	cipherName := payload[2:]
	iv := cryptoprim.ExtendIV(c.fileIV(chainIV, mac), blockSize)

	var plainName []byte
	switch c.algorithm {
	case config.FilenameBlock:
		padded, err := cryptoprim.AESCBCDecrypt(c.dataKey, iv, cipherName)
		if err != nil {
			return "", errs.NewCorruptDataError(err.Error())
		}
		plainName, err = pkcs7Unpad(padded, blockSize)
		if err != nil {
			return "", err
		}
	case config.FilenameStream:
		plainName, err = cryptoprim.AESCFBDecrypt(c.dataKey, iv, cipherName)
		if err != nil {
			return "", err
		}
	default:
		return "", errs.ErrUnsupported
	}

	if c.mac16(plainName) != mac {
		return "", errs.NewChecksumError("filename")
	}
	return string(plainName), nil
}

// EncodePath encodes every component of a plaintext path, chaining the IV
// through ancestors in order. Returns the encoded components in the same
// order.
func (c *Codec) EncodePath(components []string) ([]string, error) {
	out := make([]string, len(components))
	seen := []string{}
	for i, name := range components {
		if name == "" {
			return nil, errs.ErrEmptyPathComponent
		}
		encoded, err := c.EncodeName(name, c.ChainIV(seen))
		if err != nil {
			return nil, err
		}
		out[i] = encoded
		seen = append(seen, name)
	}
	return out, nil
}
