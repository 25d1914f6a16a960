// Package keys implements volume key derivation, wrapping, and unwrapping
// (spec §4.1): PBKDF2-HMAC-SHA1 KEK derivation from a passphrase, and the
// AES-CFB wrap/unwrap of the stored dataKey‖hmacKey blob with a checksum
// for password verification.
package keys

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"encfs/errs"
	"encfs/internal/config"
	"encfs/internal/cryptoprim"
)

// HMACKeySize is the fixed width of the content/filename HMAC key stored in
// the wrapped volume key blob.
const HMACKeySize = 20

// ChecksumSize is the width of the big-endian checksum prefix on the wrapped
// volume key blob.
const ChecksumSize = 4

// VolumeKeys holds the keys derived when a volume is opened or created
// (spec §3 "VolumeKeys"): the lifetime of this value is the lifetime of the
// opened Volume; it must never be persisted in plaintext.
type VolumeKeys struct {
	DataKey []byte
	HMACKey []byte
}

// Close securely zeros both keys. Idempotent.
func (vk *VolumeKeys) Close() {
	if vk == nil {
		return
	}
	cryptoprim.SecureZeroMultiple(vk.DataKey, vk.HMACKey)
	vk.DataKey = nil
	vk.HMACKey = nil
}

// deriveKEK runs PBKDF2-HMAC-SHA1 over the passphrase and config salt,
// producing keyBits/8 bytes of AES key material followed by 16 bytes of
// HMAC key material (spec §4.1 step 2).
func deriveKEK(cfg *config.VolumeConfig, passphrase string) []byte {
	return cryptoprim.DeriveKEK([]byte(passphrase), cfg.Salt, cfg.Iterations, cfg.KeyBits/8+16)
}

// deriveWrapIV computes the CFB IV used to wrap/unwrap the volume key blob.
// See DESIGN.md for why this departs from a literal reading of spec §4.1
// step 3 (which would make IV derivation circular for volume creation).
func deriveWrapIV(hmacKeyOfKEK []byte, checksum uint32) []byte {
	var csBytes [ChecksumSize]byte
	binary.BigEndian.PutUint32(csBytes[:], checksum)
	mac := cryptoprim.HMACSHA1(hmacKeyOfKEK, csBytes[:])
	return cryptoprim.Fold(mac, 8)
}

// checksumOf computes the 32-bit big-endian checksum of a plaintext volume
// key blob, per spec §4.1 step 4: "recompute a 32-bit checksum (big-endian
// fold of HMAC-SHA1 of the decrypted blob using hmacKey-of-KEK)".
func checksumOf(hmacKeyOfKEK, plainBlob []byte) uint32 {
	folded := cryptoprim.MACFold(hmacKeyOfKEK, ChecksumSize, plainBlob)
	return binary.BigEndian.Uint32(folded)
}

// Unwrap derives the KEK from passphrase+cfg.Salt+cfg.Iterations and unwraps
// cfg.EncryptedVolumeKey, verifying the stored checksum.
//
// Returns errs.ErrInvalidPassword if the checksum does not match.
func Unwrap(cfg *config.VolumeConfig, passphrase string) (*VolumeKeys, error) {
	if len(cfg.EncryptedVolumeKey) < ChecksumSize {
		return nil, errs.NewHeaderError("encryptedVolumeKey", fmt.Errorf("blob too short"))
	}

	kek := deriveKEK(cfg, passphrase)
	defer cryptoprim.SecureZero(kek)

	aesKey := kek[:cfg.KeyBits/8]
	hmacKeyOfKEK := kek[cfg.KeyBits/8:]

	checksum := binary.BigEndian.Uint32(cfg.EncryptedVolumeKey[:ChecksumSize])
	ciphertext := cfg.EncryptedVolumeKey[ChecksumSize:]

	iv := cryptoprim.ExtendIV(deriveWrapIV(hmacKeyOfKEK, checksum), 16)
	plainBlob, err := cryptoprim.AESCFBDecrypt(aesKey, iv, ciphertext)
	if err != nil {
		return nil, errs.NewHeaderError("encryptedVolumeKey", err)
	}

	var got, want [ChecksumSize]byte
	binary.BigEndian.PutUint32(got[:], checksumOf(hmacKeyOfKEK, plainBlob))
	binary.BigEndian.PutUint32(want[:], checksum)
	if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
		return nil, errs.ErrInvalidPassword
	}

	if len(plainBlob) < HMACKeySize {
		return nil, errs.NewCorruptDataError("wrapped volume key blob shorter than HMAC key size")
	}
	dataKey := make([]byte, len(plainBlob)-HMACKeySize)
	copy(dataKey, plainBlob[:len(plainBlob)-HMACKeySize])
	hmacKey := make([]byte, HMACKeySize)
	copy(hmacKey, plainBlob[len(plainBlob)-HMACKeySize:])

	return &VolumeKeys{DataKey: dataKey, HMACKey: hmacKey}, nil
}

// Wrap derives a KEK from passphrase+cfg.Salt+cfg.Iterations and encrypts
// dataKey‖hmacKey, returning the checksum‖ciphertext blob suitable for
// cfg.EncryptedVolumeKey.
func Wrap(cfg *config.VolumeConfig, passphrase string, vk *VolumeKeys) ([]byte, error) {
	if len(vk.HMACKey) != HMACKeySize {
		return nil, fmt.Errorf("keys: hmac key must be %d bytes, got %d", HMACKeySize, len(vk.HMACKey))
	}

	kek := deriveKEK(cfg, passphrase)
	defer cryptoprim.SecureZero(kek)

	aesKey := kek[:cfg.KeyBits/8]
	hmacKeyOfKEK := kek[cfg.KeyBits/8:]

	plainBlob := append(append([]byte{}, vk.DataKey...), vk.HMACKey...)
	defer cryptoprim.SecureZero(plainBlob)

	checksum := checksumOf(hmacKeyOfKEK, plainBlob)
	iv := cryptoprim.ExtendIV(deriveWrapIV(hmacKeyOfKEK, checksum), 16)

	ciphertext, err := cryptoprim.AESCFBEncrypt(aesKey, iv, plainBlob)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, ChecksumSize+len(ciphertext))
	binary.BigEndian.PutUint32(blob[:ChecksumSize], checksum)
	copy(blob[ChecksumSize:], ciphertext)
	return blob, nil
}

// GenerateVolumeKeys creates fresh random dataKey/hmacKey material for a new
// volume, sized for the given key width.
func GenerateVolumeKeys(keyBits int) (*VolumeKeys, error) {
	dataKey, err := cryptoprim.RandomBytes(keyBits / 8)
	if err != nil {
		return nil, err
	}
	hmacKey, err := cryptoprim.RandomBytes(HMACKeySize)
	if err != nil {
		return nil, err
	}
	return &VolumeKeys{DataKey: dataKey, HMACKey: hmacKey}, nil
}
