// Package config holds the VolumeConfig record (spec §3) — every option
// that parameterizes the rest of the engine — along with its invariants and
// its on-disk .encfs6.xml form.
package config

import (
	"fmt"

	"encfs/errs"
)

// FilenameAlgorithm selects the filename codec variant (spec §3, §4.2).
type FilenameAlgorithm int

const (
	FilenameBlock FilenameAlgorithm = iota
	FilenameStream
)

func (a FilenameAlgorithm) String() string {
	switch a {
	case FilenameBlock:
		return "nameio/block"
	case FilenameStream:
		return "nameio/stream"
	default:
		return "nameio/unknown"
	}
}

// ParseFilenameAlgorithm parses the on-disk "nameio/block" / "nameio/stream"
// identifiers. Anything else (e.g. legacy "nameio/sstream") is rejected with
// errs.ErrUnsupported, per spec §8's negative test case.
func ParseFilenameAlgorithm(s string) (FilenameAlgorithm, error) {
	switch s {
	case "nameio/block":
		return FilenameBlock, nil
	case "nameio/stream":
		return FilenameStream, nil
	default:
		return 0, fmt.Errorf("%w: filename algorithm %q", errs.ErrUnsupported, s)
	}
}

// VolumeConfig is the persisted, immutable-after-load record described in
// spec §3.
type VolumeConfig struct {
	CipherAlgorithm string // must be "ssl/aes"; spec mandates AES

	KeyBits   int // 128, 192, or 256
	BlockSize int // plaintext block size, power of 2, typically 1024

	BlockMACBytes     int // 0, 4, or 8
	BlockMACRandBytes int // 0 or 8

	UseUniqueIV         bool
	UseChainedNameIV    bool
	ExternalIVChaining  bool
	AllowHoles          bool
	FilenameAlgorithm   FilenameAlgorithm

	Salt       []byte
	Iterations int

	EncryptedVolumeKey []byte
}

// DefaultKeyBits, DefaultBlockSize, DefaultSaltSize and
// DefaultMinIterations mirror reference EncFS 1.7.4's "paranoia-off"
// defaults. DefaultIterations is the PBKDF2 round count a freshly created
// volume uses; DefaultMinIterations is only the floor Validate accepts for
// an existing, loaded config.
const (
	DefaultKeyBits       = 192
	DefaultBlockSize     = 1024
	DefaultSaltSize      = 20
	DefaultMinIterations = 1000
	DefaultIterations    = 200000
)

// Validate checks the static invariants from spec §3:
//
//	externalIVChaining ⇒ useUniqueIV ∧ useChainedNameIV
//	blockMacRandBytes > 0 ⇒ blockMacBytes > 0
//
// Reference EncFS rejects a violating config at load time; so do we (spec
// §9 open question, resolved: reject rather than silently coerce).
func (c *VolumeConfig) Validate() error {
	if c.CipherAlgorithm != "ssl/aes" {
		return errs.NewHeaderError("cipherAlgorithm", fmt.Errorf("%w: only AES is supported", errs.ErrUnsupported))
	}
	switch c.KeyBits {
	case 128, 192, 256:
	default:
		return errs.NewHeaderError("keyBits", fmt.Errorf("invalid key size %d", c.KeyBits))
	}
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return errs.NewHeaderError("blockSize", fmt.Errorf("block size %d is not a power of 2", c.BlockSize))
	}
	switch c.BlockMACBytes {
	case 0, 4, 8:
	default:
		return errs.NewHeaderError("blockMacBytes", fmt.Errorf("invalid value %d", c.BlockMACBytes))
	}
	switch c.BlockMACRandBytes {
	case 0, 8:
	default:
		return errs.NewHeaderError("blockMacRandBytes", fmt.Errorf("invalid value %d", c.BlockMACRandBytes))
	}
	if c.BlockMACRandBytes > 0 && c.BlockMACBytes == 0 {
		return errs.NewHeaderError("blockMacRandBytes", fmt.Errorf("requires blockMacBytes > 0"))
	}
	if c.ExternalIVChaining && !(c.UseUniqueIV && c.UseChainedNameIV) {
		return errs.NewHeaderError("externalIVChaining", fmt.Errorf("requires useUniqueIV and useChainedNameIV"))
	}
	if c.Iterations < DefaultMinIterations {
		return errs.NewHeaderError("kdfIterations", fmt.Errorf("%d is below the minimum of %d", c.Iterations, DefaultMinIterations))
	}
	return nil
}

// NewDefault returns a default VolumeConfig suitable for creating a new
// volume: AES-192, 1024-byte blocks, unique IVs, chained name IVs, no block
// MAC, block-mode filenames. Salt/Iterations/EncryptedVolumeKey are left
// zero for the caller (internal/keys) to fill in during volume creation.
func NewDefault() *VolumeConfig {
	return &VolumeConfig{
		CipherAlgorithm:   "ssl/aes",
		KeyBits:           DefaultKeyBits,
		BlockSize:         DefaultBlockSize,
		BlockMACBytes:     0,
		BlockMACRandBytes: 0,
		UseUniqueIV:       true,
		UseChainedNameIV:  true,
		AllowHoles:        true,
		FilenameAlgorithm: FilenameBlock,
	}
}
