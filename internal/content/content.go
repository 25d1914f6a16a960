// Package content implements the per-file content codec (spec §4.3, §4.4):
// an obfuscated per-file header IV, per-block IV derivation, optional
// block-level MAC with an optional random prefix, and the zero-block
// ("hole") passthrough optimization for sparse files.
package content

import (
	"encoding/binary"

	"encfs/errs"
	"encfs/internal/config"
	"encfs/internal/cryptoprim"
)

const blockAlign = 16 // AES block size.

// HeaderSize is the on-disk width of a file's obfuscated header IV.
const HeaderSize = 8

// Codec encrypts and decrypts the block stream of a single file using a
// volume's data and HMAC keys.
type Codec struct {
	cfg     *config.VolumeConfig
	dataKey []byte
	hmacKey []byte
}

// New builds a content Codec. Keys are held by reference; callers own their
// lifetime.
func New(cfg *config.VolumeConfig, dataKey, hmacKey []byte) *Codec {
	return &Codec{cfg: cfg, dataKey: dataKey, hmacKey: hmacKey}
}

// Overhead is the number of ciphertext bytes added to every block (MAC
// bytes plus random prefix bytes), per spec §3/§4.4.
func (c *Codec) Overhead() int {
	return c.cfg.BlockMACBytes + c.cfg.BlockMACRandBytes
}

// BlockSize is the configured plaintext block size every block but the
// last is encrypted at.
func (c *Codec) BlockSize() int {
	return c.cfg.BlockSize
}

// HasHeader reports whether this volume stores a per-file header IV on
// disk. When useUniqueIV is false there is no header at all (spec §4.4:
// headerSize = useUniqueIV ? 8 : 0) and every block's effective header IV
// is zero (spec §4.3: "If !useUniqueIV, effectiveHeaderIv = 0⁸").
func (c *Codec) HasHeader() bool {
	return c.cfg.UseUniqueIV
}

// ObfuscateHeaderIV encrypts a file's randomly generated 8-byte header IV
// for storage at the start of its ciphertext stream, so the header IV
// itself does not appear in the clear on disk (spec §4.3).
func (c *Codec) ObfuscateHeaderIV(iv []byte) ([]byte, error) {
	return cryptoprim.AESCFBEncrypt(c.dataKey, make([]byte, blockAlign), iv)
}

// DeobfuscateHeaderIV reverses ObfuscateHeaderIV.
func (c *Codec) DeobfuscateHeaderIV(stored []byte) ([]byte, error) {
	if len(stored) != HeaderSize {
		return nil, errs.NewCorruptDataError("stored header IV is not 8 bytes")
	}
	return cryptoprim.AESCFBDecrypt(c.dataKey, make([]byte, blockAlign), stored)
}

// isZero reports whether every byte of b is zero.
func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func blockIndexBytes(blockIndex uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], blockIndex)
	return b[:]
}

// effectiveHeaderIV computes spec §4.3's effectiveHeaderIv for a given
// block: zero when !useUniqueIV; otherwise the file's header IV, further
// XORed with the filename file-IV for block 0 only when externalIVChaining
// is set (so moving a file across directories, which changes its filename
// file-IV, only requires re-encrypting that file's first block).
func (c *Codec) effectiveHeaderIV(headerIV []byte, blockIndex uint64, fileIV []byte) []byte {
	eff := make([]byte, HeaderSize)
	if c.cfg.UseUniqueIV {
		copy(eff, headerIV)
	}
	if c.cfg.ExternalIVChaining && blockIndex == 0 && len(fileIV) == HeaderSize {
		eff = cryptoprim.XORBytes(eff, fileIV)
	}
	return eff
}

// EncryptBlock encrypts one plaintext block (the final block of a file may
// be shorter than cfg.BlockSize; every other block is exactly
// cfg.BlockSize). headerIV is the file's (un-obfuscated) 8-byte header IV,
// ignored when !useUniqueIV. fileIV is the filename codec's per-file IV
// (spec §4.2); pass nil when externalIVChaining is not in play.
//
// An all-zero plaintext block is passed through as an all-zero ciphertext
// block when holes are allowed, skipping encryption entirely (spec §4.4
// "hole passthrough").
func (c *Codec) EncryptBlock(headerIV []byte, blockIndex uint64, plaintext []byte, fileIV []byte) ([]byte, error) {
	if c.cfg.AllowHoles && isZero(plaintext) {
		return make([]byte, len(plaintext)+c.Overhead()), nil
	}

	payload := make([]byte, 0, c.cfg.BlockMACRandBytes+len(plaintext))
	if c.cfg.BlockMACRandBytes > 0 {
		randPrefix, err := cryptoprim.RandomBytes(c.cfg.BlockMACRandBytes)
		if err != nil {
			return nil, err
		}
		payload = append(payload, randPrefix...)
	}
	payload = append(payload, plaintext...)

	seed := cryptoprim.BlockIVSeed(c.effectiveHeaderIV(headerIV, blockIndex, fileIV), blockIndex)
	iv := cryptoprim.ExtendIV(seed, blockAlign)

	var cipherPayload []byte
	var err error
	if len(plaintext) == c.cfg.BlockSize && len(payload)%blockAlign == 0 {
		cipherPayload, err = cryptoprim.AESCBCEncrypt(c.dataKey, iv, payload)
	} else {
		cipherPayload, err = cryptoprim.AESCFBEncrypt(c.dataKey, iv, payload)
	}
	if err != nil {
		return nil, err
	}

	if c.cfg.BlockMACBytes == 0 {
		return cipherPayload, nil
	}
	// Bound to blockIndexBytes rather than spec §4.3's blockIvSeed(i); see
	// DESIGN.md's "Open question decided" entry for the MAC layout.
	mac := cryptoprim.MACFold(c.hmacKey, c.cfg.BlockMACBytes, payload, blockIndexBytes(blockIndex))
	out := make([]byte, 0, len(mac)+len(cipherPayload))
	out = append(out, mac...)
	out = append(out, cipherPayload...)
	return out, nil
}

// DecryptBlock reverses EncryptBlock. plainLen is the expected plaintext
// length (cfg.BlockSize for every block but the last).
func (c *Codec) DecryptBlock(headerIV []byte, blockIndex uint64, ciphertext []byte, plainLen int, fileIV []byte) ([]byte, error) {
	if len(ciphertext) != plainLen+c.Overhead() {
		return nil, errs.NewCorruptDataError("ciphertext block length does not match expected plaintext length plus overhead")
	}

	if c.cfg.AllowHoles && isZero(ciphertext) {
		return make([]byte, plainLen), nil
	}

	var storedMAC []byte
	cipherPayload := ciphertext
	if c.cfg.BlockMACBytes > 0 {
		storedMAC = ciphertext[:c.cfg.BlockMACBytes]
		cipherPayload = ciphertext[c.cfg.BlockMACBytes:]
	}

	seed := cryptoprim.BlockIVSeed(c.effectiveHeaderIV(headerIV, blockIndex, fileIV), blockIndex)
	iv := cryptoprim.ExtendIV(seed, blockAlign)

	var payload []byte
	var err error
	if plainLen == c.cfg.BlockSize && len(cipherPayload)%blockAlign == 0 {
		payload, err = cryptoprim.AESCBCDecrypt(c.dataKey, iv, cipherPayload)
	} else {
		payload, err = cryptoprim.AESCFBDecrypt(c.dataKey, iv, cipherPayload)
	}
	if err != nil {
		return nil, errs.NewCorruptDataError(err.Error())
	}

	if storedMAC != nil {
		want := cryptoprim.MACFold(c.hmacKey, c.cfg.BlockMACBytes, payload, blockIndexBytes(blockIndex))
		if !constantTimeEqual(storedMAC, want) {
			return nil, errs.NewChecksumError("block")
		}
	}

	return payload[len(payload)-plainLen:], nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
