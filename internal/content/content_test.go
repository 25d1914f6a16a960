package content

import (
	"bytes"
	"testing"

	"encfs/errs"
	"encfs/internal/config"
)

func testCodec(t *testing.T) (*Codec, []byte) {
	t.Helper()
	cfg := config.NewDefault()
	cfg.BlockMACBytes = 4
	cfg.BlockMACRandBytes = 8
	dataKey := bytes.Repeat([]byte{0x33}, 24)
	hmacKey := bytes.Repeat([]byte{0x44}, 20)
	headerIV := bytes.Repeat([]byte{0x01}, 8)
	return New(cfg, dataKey, hmacKey), headerIV
}

func TestBlockRoundTripFullBlock(t *testing.T) {
	c, headerIV := testCodec(t)
	plaintext := bytes.Repeat([]byte{0xAB}, c.cfg.BlockSize)

	ciphertext, err := c.EncryptBlock(headerIV, 0, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if len(ciphertext) != len(plaintext)+c.Overhead() {
		t.Fatalf("ciphertext length %d, want %d", len(ciphertext), len(plaintext)+c.Overhead())
	}

	got, err := c.DecryptBlock(headerIV, 0, ciphertext, len(plaintext), nil)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("round trip mismatch")
	}
}

func TestBlockRoundTripPartialBlock(t *testing.T) {
	c, headerIV := testCodec(t)
	plaintext := []byte("tail of the file")

	ciphertext, err := c.EncryptBlock(headerIV, 3, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := c.DecryptBlock(headerIV, 3, ciphertext, len(plaintext), nil)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("round trip mismatch")
	}
}

func TestBlockDecryptDetectsMACTamper(t *testing.T) {
	c, headerIV := testCodec(t)
	plaintext := bytes.Repeat([]byte{0x01}, 64)

	ciphertext, err := c.EncryptBlock(headerIV, 0, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF

	if _, err := c.DecryptBlock(headerIV, 0, ciphertext, len(plaintext), nil); !errs.Is(err, errs.ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
}

func TestZeroBlockPassesThroughAsHole(t *testing.T) {
	c, headerIV := testCodec(t)
	plaintext := make([]byte, c.cfg.BlockSize)

	ciphertext, err := c.EncryptBlock(headerIV, 0, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	for _, b := range ciphertext {
		if b != 0 {
			t.Fatal("zero plaintext block must produce an all-zero ciphertext block when holes are allowed")
		}
	}

	got, err := c.DecryptBlock(headerIV, 0, ciphertext, len(plaintext), nil)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("hole block must decrypt back to all zero bytes")
	}
}

func TestHeaderIVObfuscationRoundTrip(t *testing.T) {
	c, _ := testCodec(t)
	iv := bytes.Repeat([]byte{0x09}, 8)

	stored, err := c.ObfuscateHeaderIV(iv)
	if err != nil {
		t.Fatalf("obfuscate: %v", err)
	}
	if bytes.Equal(stored, iv) {
		t.Fatal("obfuscated header IV must not equal the plaintext IV")
	}

	got, err := c.DeobfuscateHeaderIV(stored)
	if err != nil {
		t.Fatalf("deobfuscate: %v", err)
	}
	if !bytes.Equal(got, iv) {
		t.Fatal("round trip mismatch")
	}
}

func TestEncryptedSizeAndDecryptedSizeAreInverse(t *testing.T) {
	c, _ := testCodec(t)
	for _, plainLen := range []int64{0, 1, 17, 1023, 1024, 1025, 2048, 3000} {
		encLen := c.EncryptedSize(plainLen)
		got, err := c.DecryptedSize(encLen)
		if err != nil {
			t.Fatalf("decryptedSize(%d): %v", encLen, err)
		}
		if got != plainLen {
			t.Fatalf("plainLen=%d -> encLen=%d -> decryptedSize=%d", plainLen, encLen, got)
		}
	}
}

func TestDecryptedSizeRejectsShortTrailingRemainder(t *testing.T) {
	c, _ := testCodec(t)
	fullEncBlock := int64(c.cfg.BlockSize + c.Overhead())
	// header + one full block + a trailing remainder shorter than one block's overhead.
	encLen := int64(HeaderSize) + fullEncBlock + 1
	if _, err := c.DecryptedSize(encLen); !errs.Is(err, errs.ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}
}

func TestNoUniqueIVOmitsHeaderFromLengths(t *testing.T) {
	c, _ := testCodec(t)
	c.cfg.UseUniqueIV = false

	if c.HasHeader() {
		t.Fatal("HasHeader must be false when useUniqueIV is disabled")
	}
	for _, plainLen := range []int64{0, 1, 1023, 1024, 2048} {
		encLen := c.EncryptedSize(plainLen)
		got, err := c.DecryptedSize(encLen)
		if err != nil {
			t.Fatalf("decryptedSize(%d): %v", encLen, err)
		}
		if got != plainLen {
			t.Fatalf("plainLen=%d -> encLen=%d -> decryptedSize=%d", plainLen, encLen, got)
		}
	}
}

func TestNoUniqueIVIgnoresHeaderIVArgument(t *testing.T) {
	c, _ := testCodec(t)
	c.cfg.UseUniqueIV = false
	c.cfg.BlockMACRandBytes = 0 // isolate the headerIV's effect from the random MAC prefix
	plaintext := bytes.Repeat([]byte{0xCD}, c.cfg.BlockSize)

	zeroHeader := make([]byte, 8)
	withHeader := bytes.Repeat([]byte{0xEE}, 8)

	a, err := c.EncryptBlock(zeroHeader, 0, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt a: %v", err)
	}
	b, err := c.EncryptBlock(withHeader, 0, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt b: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("headerIV argument must be ignored when useUniqueIV is false")
	}
}

func TestExternalIVChainingAffectsOnlyBlockZero(t *testing.T) {
	c, headerIV := testCodec(t)
	c.cfg.ExternalIVChaining = true
	c.cfg.BlockMACRandBytes = 0 // isolate the fileIV's effect from the random MAC prefix
	plaintext := bytes.Repeat([]byte{0x11}, c.cfg.BlockSize)
	fileIVA := bytes.Repeat([]byte{0xAA}, 8)
	fileIVB := bytes.Repeat([]byte{0xBB}, 8)

	block0A, err := c.EncryptBlock(headerIV, 0, plaintext, fileIVA)
	if err != nil {
		t.Fatalf("encrypt block0 a: %v", err)
	}
	block0B, err := c.EncryptBlock(headerIV, 0, plaintext, fileIVB)
	if err != nil {
		t.Fatalf("encrypt block0 b: %v", err)
	}
	if bytes.Equal(block0A, block0B) {
		t.Fatal("block 0 ciphertext must depend on fileIV when externalIVChaining is set")
	}

	block1A, err := c.EncryptBlock(headerIV, 1, plaintext, fileIVA)
	if err != nil {
		t.Fatalf("encrypt block1 a: %v", err)
	}
	block1B, err := c.EncryptBlock(headerIV, 1, plaintext, fileIVB)
	if err != nil {
		t.Fatalf("encrypt block1 b: %v", err)
	}
	if !bytes.Equal(block1A, block1B) {
		t.Fatal("only block 0 should depend on fileIV; later blocks must not")
	}

	got, err := c.DecryptBlock(headerIV, 0, block0A, len(plaintext), fileIVA)
	if err != nil {
		t.Fatalf("decrypt block0: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("round trip mismatch for externally-chained block 0")
	}
}
