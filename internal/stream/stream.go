// Package stream adapts internal/content's block codec to sequential
// io.Reader/io.Writer access over a file's raw ciphertext, the way the
// CLI's open/cat/extract/create commands consume a volume (spec's CLI
// surface is a sequential copy tool, not a random-access mount).
package stream

import (
	"io"

	"encfs/errs"
	"encfs/internal/bufpool"
	"encfs/internal/content"
	"encfs/log"
)

// ReadStream decrypts a file's ciphertext sequentially as it is read.
type ReadStream struct {
	r         io.Reader
	codec     *content.Codec
	headerIV  []byte
	fileIV    []byte
	plainSize int64

	blockIndex uint64
	plainRead  int64
	buf        []byte
	bufOff     int

	scratch *bufpool.Pool // full-block-sized ciphertext scratch space
}

// NewReadStream wraps r, the raw ciphertext of a file whose decrypted
// length is plainSize (typically content.Codec.DecryptedSize(fileSize)).
// An empty file (plainSize == 0) has no stored header and r is never read.
// fileIV is the filename codec's per-file IV (spec §4.2), used to chain the
// first content block's IV to the file's path when externalIVChaining is
// set; pass nil when it is not.
func NewReadStream(r io.Reader, codec *content.Codec, plainSize int64, fileIV []byte) (*ReadStream, error) {
	rs := &ReadStream{
		r:         r,
		codec:     codec,
		fileIV:    fileIV,
		plainSize: plainSize,
		scratch:   bufpool.New(codec.BlockSize() + codec.Overhead()),
	}
	if plainSize == 0 || !codec.HasHeader() {
		return rs, nil
	}

	header := make([]byte, content.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errs.NewCorruptDataError("truncated file header: " + err.Error())
	}
	headerIV, err := codec.DeobfuscateHeaderIV(header)
	if err != nil {
		return nil, err
	}
	rs.headerIV = headerIV
	return rs, nil
}

func (rs *ReadStream) currentPlainBlockLen() int {
	remaining := rs.plainSize - rs.plainRead
	blockSize := int64(rs.codec.BlockSize())
	if remaining >= blockSize {
		return int(blockSize)
	}
	return int(remaining)
}

func (rs *ReadStream) fillBuffer() error {
	plainLen := rs.currentPlainBlockLen()
	if plainLen == 0 {
		return io.EOF
	}
	cipherLen := plainLen + rs.codec.Overhead()

	var ciphertext []byte
	fullBlock := plainLen == rs.codec.BlockSize()
	if fullBlock {
		ciphertext = rs.scratch.Get()
	} else {
		ciphertext = make([]byte, cipherLen)
	}
	if _, err := io.ReadFull(rs.r, ciphertext); err != nil {
		return errs.NewCorruptDataError("truncated ciphertext block: " + err.Error())
	}
	plaintext, err := rs.codec.DecryptBlock(rs.headerIV, rs.blockIndex, ciphertext, plainLen, rs.fileIV)
	if fullBlock {
		rs.scratch.Put(ciphertext)
	}
	if err != nil {
		log.Warn("content block failed to decrypt", log.Int64("blockIndex", int64(rs.blockIndex)), log.Err(err))
		return err
	}
	rs.buf = plaintext
	rs.bufOff = 0
	rs.blockIndex++
	rs.plainRead += int64(plainLen)
	return nil
}

// Read implements io.Reader over the decrypted plaintext.
func (rs *ReadStream) Read(p []byte) (int, error) {
	if len(rs.buf) == rs.bufOff {
		if rs.plainRead >= rs.plainSize {
			return 0, io.EOF
		}
		if err := rs.fillBuffer(); err != nil {
			return 0, err
		}
	}
	n := copy(p, rs.buf[rs.bufOff:])
	rs.bufOff += n
	return n, nil
}

// WriteStream encrypts plaintext sequentially as it is written, buffering
// up to one block before emitting each ciphertext block. Close must be
// called to flush a final partial block.
type WriteStream struct {
	w        io.Writer
	codec    *content.Codec
	headerIV []byte
	fileIV   []byte

	buf        []byte
	blockIndex uint64
	headerSent bool
}

// NewWriteStream wraps w, the destination for a file's raw ciphertext.
// headerIV is the file's freshly generated 8-byte header IV, ignored when
// !useUniqueIV. fileIV is the filename codec's per-file IV (spec §4.2);
// pass nil when externalIVChaining is not in play.
func NewWriteStream(w io.Writer, codec *content.Codec, headerIV, fileIV []byte) *WriteStream {
	return &WriteStream{w: w, codec: codec, headerIV: headerIV, fileIV: fileIV, buf: make([]byte, 0, codec.BlockSize())}
}

func (ws *WriteStream) writeHeaderOnce() error {
	if ws.headerSent {
		return nil
	}
	ws.headerSent = true
	if !ws.codec.HasHeader() {
		return nil
	}
	stored, err := ws.codec.ObfuscateHeaderIV(ws.headerIV)
	if err != nil {
		return err
	}
	if _, err := ws.w.Write(stored); err != nil {
		return errs.NewIOError("write", "", err)
	}
	return nil
}

func (ws *WriteStream) flushBlock(plaintext []byte) error {
	ciphertext, err := ws.codec.EncryptBlock(ws.headerIV, ws.blockIndex, plaintext, ws.fileIV)
	if err != nil {
		return err
	}
	if _, err := ws.w.Write(ciphertext); err != nil {
		return errs.NewIOError("write", "", err)
	}
	ws.blockIndex++
	return nil
}

// Write implements io.Writer over the plaintext.
func (ws *WriteStream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ws.writeHeaderOnce(); err != nil {
		return 0, err
	}

	total := len(p)
	blockSize := ws.codec.BlockSize()
	for len(p) > 0 {
		n := copy(ws.buf[len(ws.buf):cap(ws.buf)], p)
		ws.buf = ws.buf[:len(ws.buf)+n]
		p = p[n:]
		if len(ws.buf) == blockSize {
			if err := ws.flushBlock(ws.buf); err != nil {
				return total - len(p), err
			}
			ws.buf = ws.buf[:0]
		}
	}
	return total, nil
}

// Close flushes any buffered partial final block. An entirely empty file
// (Write never called) writes nothing at all, matching
// content.Codec.EncryptedSize(0) == 0.
func (ws *WriteStream) Close() error {
	if len(ws.buf) == 0 {
		return nil
	}
	if err := ws.writeHeaderOnce(); err != nil {
		return err
	}
	return ws.flushBlock(ws.buf)
}
