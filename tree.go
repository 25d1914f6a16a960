package encfs

import (
	"io"

	"encfs/errs"
	"encfs/internal/cryptoprim"
	"encfs/internal/stream"
)

// Move renames or relocates a logical file or directory. Moving a directory
// changes the plaintext ancestor chain of every descendant, so when chained
// name IV is enabled every descendant is individually re-encoded and moved
// on the raw provider — a directory move is not a single raw rename.
//
// When cfg.ExternalIVChaining is set, every moved file's content is also
// rekeyed (rechainContentIV) since its filename-derived IV depends on its
// path.
func (v *Volume) Move(srcPlainPath, dstPlainPath string) error {
	return v.MoveWithProgress(srcPlainPath, dstPlainPath, nil)
}

// MoveWithProgress is Move, reporting FileProcessed/OpComplete events as it
// walks descendants.
func (v *Volume) MoveWithProgress(srcPlainPath, dstPlainPath string, listener ProgressListener) error {
	src, err := splitPath(srcPlainPath)
	if err != nil {
		return err
	}
	dst, err := splitPath(dstPlainPath)
	if err != nil {
		return err
	}
	if err := v.moveRecursive(src, dst, listener); err != nil {
		return err
	}
	notify(listener, ProgressEvent{Kind: OpComplete})
	return nil
}

func (v *Volume) moveRecursive(oldPlain, newPlain []string, listener ProgressListener) error {
	oldEncoded, err := v.encodePath(oldPlain)
	if err != nil {
		return err
	}
	oldRaw := joinRaw(oldEncoded)

	isDir, err := v.provider.IsDirectory(oldRaw)
	if err != nil {
		return errs.NewIOError("stat", oldRaw, err)
	}

	newEncoded, err := v.encodePath(newPlain)
	if err != nil {
		return err
	}
	newRaw := joinRaw(newEncoded)

	if !isDir {
		if err := v.provider.Move(oldRaw, newRaw); err != nil {
			return errs.NewIOError("move", oldRaw, err)
		}
		if err := v.rechainContentIV(oldPlain, newPlain, newRaw); err != nil {
			return err
		}
		notify(listener, ProgressEvent{Kind: FileProcessed, Path: newRaw})
		return nil
	}

	// Without chained name IV, descendant names and content don't depend on
	// their ancestor path (externalIVChaining requires UseChainedNameIV, so
	// it can't be set here either), so the whole subtree can move as one raw
	// rename instead of walking and re-encoding every descendant.
	if !v.cfg.UseChainedNameIV {
		if err := v.provider.Move(oldRaw, newRaw); err != nil {
			return errs.NewIOError("move", oldRaw, err)
		}
		notify(listener, ProgressEvent{Kind: FileProcessed, Path: newRaw})
		return nil
	}

	if err := v.provider.Mkdir(newRaw); err != nil {
		return errs.NewIOError("mkdir", newRaw, err)
	}
	entries, err := v.provider.ListFiles(oldRaw)
	if err != nil {
		return errs.NewIOError("list", oldRaw, err)
	}
	chainIV := v.nameCodec.ChainIV(oldPlain)
	for _, entry := range entries {
		childName, err := v.nameCodec.DecodeName(entry.Name, chainIV)
		if err != nil {
			return err
		}
		oldChild := append(append([]string{}, oldPlain...), childName)
		newChild := append(append([]string{}, newPlain...), childName)
		if err := v.moveRecursive(oldChild, newChild, listener); err != nil {
			return err
		}
	}
	if err := v.provider.Delete(oldRaw); err != nil {
		return errs.NewIOError("delete", oldRaw, err)
	}
	return nil
}

// rechainContentIV re-keys a moved file's content when externalIVChaining is
// set: the filename codec's per-file IV changed along with the path, and
// that IV is folded into the effective header IV of the file's first
// content block. The raw provider has no random-access write, so rather
// than patch block 0 in place the whole file is decrypted under the old
// path's file IV and re-encrypted under the new one, with a freshly
// generated header IV when useUniqueIV is set; every block's ciphertext
// therefore changes, not only the first block's.
func (v *Volume) rechainContentIV(oldPlain, newPlain []string, rawPath string) error {
	if !v.cfg.ExternalIVChaining {
		return nil
	}
	info, err := v.provider.GetFileInfo(rawPath)
	if err != nil {
		return errs.NewIOError("stat", rawPath, err)
	}
	plainLen, err := v.contentCodec.DecryptedSize(info.Length)
	if err != nil {
		return err
	}
	if plainLen == 0 {
		return nil
	}

	rc, err := v.provider.OpenInputStream(rawPath)
	if err != nil {
		return errs.NewIOError("read", rawPath, err)
	}
	rs, err := stream.NewReadStream(rc, v.contentCodec, plainLen, v.fileIV(oldPlain))
	if err != nil {
		rc.Close()
		return err
	}
	plaintext, err := io.ReadAll(rs)
	rc.Close()
	if err != nil {
		return errs.Wrap(err, "rechain")
	}

	var headerIV []byte
	if v.cfg.UseUniqueIV {
		headerIV, err = cryptoprim.RandomBytes(8)
		if err != nil {
			return err
		}
	}
	encLen := v.contentCodec.EncryptedSize(plainLen)
	wc, err := v.provider.OpenOutputStream(rawPath, encLen)
	if err != nil {
		return errs.NewIOError("write", rawPath, err)
	}
	ws := stream.NewWriteStream(wc, v.contentCodec, headerIV, v.fileIV(newPlain))
	if _, err := ws.Write(plaintext); err != nil {
		wc.Close()
		return errs.Wrap(err, "rechain")
	}
	if err := ws.Close(); err != nil {
		return err
	}
	return wc.Close()
}

// Copy duplicates a logical file or directory. Each file is re-encrypted
// under a fresh random header IV (spec's "re-encrypt under fresh header IV
// when useUniqueIV") rather than byte-copied, so that two independent
// copies never share a header IV.
func (v *Volume) Copy(srcPlainPath, dstPlainPath string) error {
	return v.CopyWithProgress(srcPlainPath, dstPlainPath, nil)
}

// CopyWithProgress is Copy, reporting FileProcessed/OpComplete events as it
// walks descendants.
func (v *Volume) CopyWithProgress(srcPlainPath, dstPlainPath string, listener ProgressListener) error {
	src, err := splitPath(srcPlainPath)
	if err != nil {
		return err
	}
	dst, err := splitPath(dstPlainPath)
	if err != nil {
		return err
	}
	if err := v.copyRecursive(src, dst, listener); err != nil {
		return err
	}
	notify(listener, ProgressEvent{Kind: OpComplete})
	return nil
}

func (v *Volume) copyRecursive(srcPlain, dstPlain []string, listener ProgressListener) error {
	srcEncoded, err := v.encodePath(srcPlain)
	if err != nil {
		return err
	}
	srcRaw := joinRaw(srcEncoded)

	isDir, err := v.provider.IsDirectory(srcRaw)
	if err != nil {
		return errs.NewIOError("stat", srcRaw, err)
	}

	dstPath := joinRaw(dstPlain)
	if !isDir {
		info, err := v.provider.GetFileInfo(srcRaw)
		if err != nil {
			return errs.NewIOError("stat", srcRaw, err)
		}
		plainLen, err := v.contentCodec.DecryptedSize(info.Length)
		if err != nil {
			return err
		}

		r, err := v.OpenRead(joinRaw(srcPlain))
		if err != nil {
			return err
		}
		defer r.Close()

		w, err := v.OpenWrite(dstPath, plainLen)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			return errs.Wrap(err, "copy")
		}
		if err := w.Close(); err != nil {
			return err
		}
		notify(listener, ProgressEvent{Kind: FileProcessed, Path: dstPath})
		return nil
	}

	if err := v.Mkdir(dstPath); err != nil {
		return err
	}
	children, err := v.List(joinRaw(srcPlain))
	if err != nil {
		return err
	}
	for _, child := range children {
		childDst := append(append([]string{}, dstPlain...), child.PlainName())
		if err := v.copyRecursive(child.plainPath, childDst, listener); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a logical file, or a directory and everything beneath it
// (post-order: children before the directory itself).
func (v *Volume) Delete(plainPath string) error {
	return v.DeleteWithProgress(plainPath, nil)
}

// DeleteWithProgress is Delete, reporting FileProcessed/OpComplete events
// as it walks descendants.
func (v *Volume) DeleteWithProgress(plainPath string, listener ProgressListener) error {
	components, err := splitPath(plainPath)
	if err != nil {
		return err
	}
	if err := v.deleteRecursive(components, listener); err != nil {
		return err
	}
	notify(listener, ProgressEvent{Kind: OpComplete})
	return nil
}

func (v *Volume) deleteRecursive(plainPath []string, listener ProgressListener) error {
	encoded, err := v.encodePath(plainPath)
	if err != nil {
		return err
	}
	raw := joinRaw(encoded)

	isDir, err := v.provider.IsDirectory(raw)
	if err != nil {
		return errs.NewIOError("stat", raw, err)
	}
	if isDir {
		children, err := v.List(joinRaw(plainPath))
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := v.deleteRecursive(child.plainPath, listener); err != nil {
				return err
			}
		}
	}
	if err := v.provider.Delete(raw); err != nil {
		return errs.NewIOError("delete", raw, err)
	}
	notify(listener, ProgressEvent{Kind: FileProcessed, Path: raw})
	return nil
}
