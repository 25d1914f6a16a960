package keys

import (
	"testing"

	"encfs/internal/config"
)

func testConfig(t *testing.T) *config.VolumeConfig {
	t.Helper()
	c := config.NewDefault()
	c.Salt = []byte("0123456789abcdef0123")
	c.Iterations = 1000 // keep tests fast; production uses config.DefaultMinIterations or higher
	return c
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	vk, err := GenerateVolumeKeys(cfg.KeyBits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	blob, err := Wrap(cfg, "correct horse", vk)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	cfg.EncryptedVolumeKey = blob

	got, err := Unwrap(cfg, "correct horse")
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if string(got.DataKey) != string(vk.DataKey) || string(got.HMACKey) != string(vk.HMACKey) {
		t.Fatal("unwrapped keys do not match originals")
	}
}

func TestUnwrapWrongPasswordFails(t *testing.T) {
	cfg := testConfig(t)
	vk, err := GenerateVolumeKeys(cfg.KeyBits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	blob, err := Wrap(cfg, "correct horse", vk)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	cfg.EncryptedVolumeKey = blob

	if _, err := Unwrap(cfg, "wrong password"); err == nil {
		t.Fatal("expected error for wrong password")
	}
}

func TestUnwrapDetectsTamperedBlob(t *testing.T) {
	cfg := testConfig(t)
	vk, err := GenerateVolumeKeys(cfg.KeyBits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	blob, err := Wrap(cfg, "pw", vk)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	blob[len(blob)-1] ^= 0xFF
	cfg.EncryptedVolumeKey = blob

	if _, err := Unwrap(cfg, "pw"); err == nil {
		t.Fatal("expected error for tampered blob")
	}
}
