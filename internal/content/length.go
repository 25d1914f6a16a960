package content

import "encfs/errs"

// headerSize returns the on-disk header width: HeaderSize when the volume
// stores a per-file header IV (useUniqueIV), 0 otherwise (spec §4.4:
// headerSize = useUniqueIV ? 8 : 0).
func (c *Codec) headerSize() int64 {
	if c.cfg.UseUniqueIV {
		return int64(HeaderSize)
	}
	return 0
}

// EncryptedSize returns the ciphertext stream length for a plaintext file
// of length plainLen, per spec §4.4: a fixed header (absent when
// !useUniqueIV) plus one (blockSize+overhead)-sized entry per full block,
// plus a final (remainder+overhead)-sized entry for any partial block.
func (c *Codec) EncryptedSize(plainLen int64) int64 {
	if plainLen == 0 {
		return 0
	}
	blockSize := int64(c.cfg.BlockSize)
	overhead := int64(c.Overhead())

	fullBlocks := plainLen / blockSize
	remainder := plainLen % blockSize

	size := c.headerSize() + fullBlocks*(blockSize+overhead)
	if remainder > 0 {
		size += remainder + overhead
	}
	return size
}

// DecryptedSize returns the plaintext length for a ciphertext stream of
// length encLen, inverting EncryptedSize. A ciphertext shorter than the
// header, or whose trailing partial-block remainder is greater than zero but
// no larger than the per-block overhead, cannot correspond to any plaintext and
// is reported as corrupt data (spec §4.4 edge case).
func (c *Codec) DecryptedSize(encLen int64) (int64, error) {
	if encLen == 0 {
		return 0, nil
	}
	headerSize := c.headerSize()
	if encLen < headerSize {
		return 0, errs.NewCorruptDataError("ciphertext shorter than the file header")
	}
	encLen -= headerSize

	blockSize := int64(c.cfg.BlockSize)
	overhead := int64(c.Overhead())
	fullEncBlock := blockSize + overhead

	fullBlocks := encLen / fullEncBlock
	remainder := encLen % fullEncBlock

	if remainder == 0 {
		return fullBlocks * blockSize, nil
	}
	if remainder <= overhead {
		return 0, errs.NewCorruptDataError("trailing block too short to contain its overhead")
	}
	return fullBlocks*blockSize + (remainder - overhead), nil
}
