package filename

import (
	"bytes"
	"testing"

	"encfs/internal/config"
)

func benchCodec(b *testing.B, chained bool) *Codec {
	b.Helper()
	cfg := config.NewDefault()
	cfg.UseChainedNameIV = chained
	dataKey := bytes.Repeat([]byte{0x11}, 24)
	hmacKey := bytes.Repeat([]byte{0x22}, 20)
	return New(cfg, dataKey, hmacKey)
}

// BenchmarkEncodeNameBlock measures block-mode filename encryption, the
// default codec most volumes use.
func BenchmarkEncodeNameBlock(b *testing.B) {
	c := benchCodec(b, true)
	chainIV := c.ChainIV([]string{"documents", "2026"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.EncodeName("quarterly-report.pdf", chainIV)
	}
}

// BenchmarkDecodeNameBlock measures the inverse, including MAC verification.
func BenchmarkDecodeNameBlock(b *testing.B) {
	c := benchCodec(b, true)
	chainIV := c.ChainIV([]string{"documents", "2026"})
	encoded, err := c.EncodeName("quarterly-report.pdf", chainIV)
	if err != nil {
		b.Fatalf("encode: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.DecodeName(encoded, chainIV)
	}
}

// BenchmarkChainIV measures the per-ancestor HMAC fold cost of a deep path.
func BenchmarkChainIV(b *testing.B) {
	c := benchCodec(b, true)
	path := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.ChainIV(path)
	}
}
