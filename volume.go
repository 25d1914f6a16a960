// Package encfs is the public API of the volume cryptographic engine: it
// opens and creates EncFS-compatible volumes, decrypts and encrypts file
// content, and encodes/decodes filenames with optional chained IVs.
//
// The package owns the whole pipeline — passphrase → KEK → unwrapped volume
// keys → cipher contexts shared by the filename and content codecs — and
// layers logical File traversal on top of a caller-supplied FileProvider.
package encfs

import (
	"io"

	"encfs/errs"
	"encfs/internal/config"
	"encfs/internal/content"
	"encfs/internal/cryptoprim"
	"encfs/internal/filename"
	"encfs/internal/keys"
	"encfs/log"
)

// Volume is an opened or newly created EncFS volume. It exclusively owns
// the cipher contexts (VolumeKeys, name/content codecs) and a reference to
// a FileProvider; it is not safe for concurrent use from multiple
// goroutines (spec's single-threaded-per-Volume concurrency model).
type Volume struct {
	provider     FileProvider
	cfg          *config.VolumeConfig
	keys         *keys.VolumeKeys
	nameCodec    *filename.Codec
	contentCodec *content.Codec
	closed       bool
}

func readConfigFile(provider FileProvider) ([]byte, error) {
	r, err := provider.OpenInputStream(PathSeparator + ConfigFileName)
	if err != nil {
		return nil, errs.NewIOError("read", ConfigFileName, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func writeConfigFile(provider FileProvider, data []byte) error {
	w, err := provider.OpenOutputStream(PathSeparator+ConfigFileName, int64(len(data)))
	if err != nil {
		return errs.NewIOError("write", ConfigFileName, err)
	}
	defer w.Close()
	_, err = w.Write(data)
	return err
}

// Open reads a volume's config file from provider, derives the KEK from
// passphrase, and unwraps the volume keys. It fails with
// errs.ErrInvalidPassword if passphrase is wrong and with a *errs.HeaderError
// wrapping errs.ErrInvalidConfig if the config is malformed or violates an
// invariant.
func Open(provider FileProvider, passphrase string) (*Volume, error) {
	data, err := readConfigFile(provider)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	vk, err := keys.Unwrap(cfg, passphrase)
	if err != nil {
		return nil, err
	}
	return &Volume{
		provider:     provider,
		cfg:          cfg,
		keys:         vk,
		nameCodec:    filename.New(cfg, vk.DataKey, vk.HMACKey),
		contentCodec: content.New(cfg, vk.DataKey, vk.HMACKey),
	}, nil
}

// Create initializes a brand new volume on provider: fresh salt and volume
// keys, a config wrapped under passphrase, and a written config file at the
// volume root. cfg may be nil to accept config.NewDefault().
func Create(provider FileProvider, passphrase string, cfg *config.VolumeConfig) (*Volume, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}

	salt, err := cryptoprim.RandomBytes(config.DefaultSaltSize)
	if err != nil {
		return nil, err
	}
	cfg.Salt = salt
	if cfg.Iterations == 0 {
		cfg.Iterations = config.DefaultIterations
	}

	vk, err := keys.GenerateVolumeKeys(cfg.KeyBits)
	if err != nil {
		return nil, err
	}
	blob, err := keys.Wrap(cfg, passphrase, vk)
	if err != nil {
		return nil, err
	}
	cfg.EncryptedVolumeKey = blob

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if err := writeConfigFile(provider, data); err != nil {
		return nil, err
	}

	log.Info("volume created", log.String("root", provider.RootPath()))

	return &Volume{
		provider:     provider,
		cfg:          cfg,
		keys:         vk,
		nameCodec:    filename.New(cfg, vk.DataKey, vk.HMACKey),
		contentCodec: content.New(cfg, vk.DataKey, vk.HMACKey),
	}, nil
}

// Config returns the volume's loaded/created configuration. Callers must
// not mutate it.
func (v *Volume) Config() *config.VolumeConfig { return v.cfg }

// Close zeros the volume's key material. Idempotent; safe to call more
// than once.
func (v *Volume) Close() error {
	if v.closed {
		return nil
	}
	v.keys.Close()
	v.closed = true
	return nil
}

func (v *Volume) encodePath(plain []string) ([]string, error) {
	return v.nameCodec.EncodePath(plain)
}

func (v *Volume) rawPath(plain []string) (string, error) {
	encoded, err := v.encodePath(plain)
	if err != nil {
		return "", err
	}
	return joinRaw(encoded), nil
}
