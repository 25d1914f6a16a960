package encfs

import (
	"io"

	"encfs/errs"
	"encfs/internal/cryptoprim"
	"encfs/internal/stream"
)

// File is a logical entity 1:1 with an on-disk path within a volume. It
// holds a non-owning back-reference to its Volume; a File must not outlive
// the Volume that produced it.
type File struct {
	volume       *Volume
	plainPath    []string
	rawPath      string
	isDirectory  bool
	length       int64 // plaintext length; meaningless for a directory
	lastModified int64
	permissions  uint32
}

// PlainName is the file's decrypted (logical) name.
func (f *File) PlainName() string {
	if len(f.plainPath) == 0 {
		return RootPath
	}
	return f.plainPath[len(f.plainPath)-1]
}

// PlainPath is the file's full logical path, e.g. "/documents/report.pdf".
func (f *File) PlainPath() string {
	if len(f.plainPath) == 0 {
		return RootPath
	}
	return joinRaw(f.plainPath)
}

// EncryptedPath is the file's raw, on-disk path as seen by the FileProvider.
func (f *File) EncryptedPath() string { return f.rawPath }

// IsDirectory reports whether the entry is a directory.
func (f *File) IsDirectory() bool { return f.isDirectory }

// Length is the plaintext content length; zero for a directory.
func (f *File) Length() int64 { return f.length }

// LastModified is the entry's modification time, Unix seconds.
func (f *File) LastModified() int64 { return f.lastModified }

// Permissions mirrors the raw provider's reported file mode bits.
func (f *File) Permissions() uint32 { return f.permissions }

// Stat looks up a single logical path (file or directory), without
// listing its children.
func (v *Volume) Stat(plainPath string) (*File, error) {
	components, err := splitPath(plainPath)
	if err != nil {
		return nil, err
	}
	raw, err := v.rawPath(components)
	if err != nil {
		return nil, err
	}
	info, err := v.provider.GetFileInfo(raw)
	if err != nil {
		return nil, errs.NewIOError("stat", raw, err)
	}
	return v.toFile(components, raw, info)
}

func (v *Volume) toFile(plainPath []string, rawPath string, info FileInfo) (*File, error) {
	f := &File{
		volume:       v,
		plainPath:    plainPath,
		rawPath:      rawPath,
		isDirectory:  info.IsDirectory,
		lastModified: info.LastModified,
		permissions:  info.Permissions,
	}
	if !info.IsDirectory {
		plainLen, err := v.contentCodec.DecryptedSize(info.Length)
		if err != nil {
			return nil, err
		}
		f.length = plainLen
	}
	return f, nil
}

// List enumerates the logical children of a directory, decoding each raw
// entry name under the directory's chain IV.
func (v *Volume) List(plainDirPath string) ([]*File, error) {
	components, err := splitPath(plainDirPath)
	if err != nil {
		return nil, err
	}
	encodedDir, err := v.encodePath(components)
	if err != nil {
		return nil, err
	}
	raw := joinRaw(encodedDir)
	entries, err := v.provider.ListFiles(raw)
	if err != nil {
		return nil, errs.NewIOError("list", raw, err)
	}

	chainIV := v.nameCodec.ChainIV(components)
	files := make([]*File, 0, len(entries))
	for _, entry := range entries {
		plainName, err := v.nameCodec.DecodeName(entry.Name, chainIV)
		if err != nil {
			return nil, err
		}
		childPlain := append(append([]string{}, components...), plainName)
		childRaw := joinRaw(append(append([]string{}, encodedDir...), entry.Name))
		f, err := v.toFile(childPlain, childRaw, entry)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Mkdir creates a logical directory.
func (v *Volume) Mkdir(plainPath string) error {
	components, err := splitPath(plainPath)
	if err != nil {
		return err
	}
	raw, err := v.rawPath(components)
	if err != nil {
		return err
	}
	if err := v.provider.Mkdir(raw); err != nil {
		return errs.NewIOError("mkdir", raw, err)
	}
	return nil
}

// OpenRead opens a logical file for decrypted sequential reading.
func (v *Volume) OpenRead(plainPath string) (io.ReadCloser, error) {
	components, err := splitPath(plainPath)
	if err != nil {
		return nil, err
	}
	raw, err := v.rawPath(components)
	if err != nil {
		return nil, err
	}
	info, err := v.provider.GetFileInfo(raw)
	if err != nil {
		return nil, errs.NewIOError("stat", raw, err)
	}
	plainLen, err := v.contentCodec.DecryptedSize(info.Length)
	if err != nil {
		return nil, err
	}

	rc, err := v.provider.OpenInputStream(raw)
	if err != nil {
		return nil, errs.NewIOError("read", raw, err)
	}
	rs, err := stream.NewReadStream(rc, v.contentCodec, plainLen, v.fileIV(components))
	if err != nil {
		rc.Close()
		return nil, err
	}
	return readCloser{ReadStream: rs, closer: rc}, nil
}

// fileIV returns the filename codec's per-file IV for a plaintext path,
// used to chain a file's first content block to its path when
// externalIVChaining is enabled. Computing it unconditionally is cheap and
// keeps callers simple; content.Codec ignores it unless the flag is set.
func (v *Volume) fileIV(plainPath []string) []byte {
	return v.nameCodec.FileIV(plainPath)
}

type readCloser struct {
	*stream.ReadStream
	closer io.Closer
}

func (r readCloser) Close() error { return r.closer.Close() }

// OpenWrite creates (or truncates) a logical file and returns a writer that
// encrypts plaintext as it is written, under a freshly generated header IV
// when the volume stores one (useUniqueIV). plainLen is the final plaintext
// length the caller intends to write,
// needed up front because FileProvider.OpenOutputStream declares its
// length before any bytes are written.
func (v *Volume) OpenWrite(plainPath string, plainLen int64) (io.WriteCloser, error) {
	components, err := splitPath(plainPath)
	if err != nil {
		return nil, err
	}
	raw, err := v.rawPath(components)
	if err != nil {
		return nil, err
	}

	var headerIV []byte
	if v.cfg.UseUniqueIV {
		headerIV, err = cryptoprim.RandomBytes(8)
		if err != nil {
			return nil, err
		}
	}

	encLen := v.contentCodec.EncryptedSize(plainLen)
	wc, err := v.provider.OpenOutputStream(raw, encLen)
	if err != nil {
		return nil, errs.NewIOError("write", raw, err)
	}
	ws := stream.NewWriteStream(wc, v.contentCodec, headerIV, v.fileIV(components))
	return writeCloser{WriteStream: ws, closer: wc}, nil
}

type writeCloser struct {
	*stream.WriteStream
	closer io.Closer
}

func (w writeCloser) Close() error {
	if err := w.WriteStream.Close(); err != nil {
		w.closer.Close()
		return err
	}
	return w.closer.Close()
}
