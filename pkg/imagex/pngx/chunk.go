package pngx

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"image/png"
	"io"
)

// chunkReader walks the length/type/data/crc framing of a PNG file. Every
// byte of the type and data fields is fed to the running checksum.
type chunkReader struct {
	in  io.Reader
	crc hash.Hash32
	buf [8]byte
}

func newChunkReader(in io.Reader) *chunkReader {
	return &chunkReader{in: in, crc: crc32.NewIEEE()}
}

func (cr *chunkReader) next() (uint32, string, error) {
	if _, err := io.ReadFull(cr.in, cr.buf[:8]); err != nil {
		return 0, "", unexpected(err)
	}
	length := binary.BigEndian.Uint32(cr.buf[:4])
	if length > 0x7fffffff {
		return 0, "", png.FormatError("bad chunk length")
	}
	cr.crc.Reset()
	cr.crc.Write(cr.buf[4:8])
	return length, string(cr.buf[4:8]), nil
}

func (cr *chunkReader) body(n uint32) io.Reader {
	return io.TeeReader(io.LimitReader(cr.in, int64(n)), cr.crc)
}

func (cr *chunkReader) skip(n uint32) error {
	if _, err := io.CopyN(io.Discard, cr.body(n), int64(n)); err != nil {
		return unexpected(err)
	}
	return cr.verifyChecksum()
}

func (cr *chunkReader) verifyChecksum() error {
	if _, err := io.ReadFull(cr.in, cr.buf[:4]); err != nil {
		return unexpected(err)
	}
	if binary.BigEndian.Uint32(cr.buf[:4]) != cr.crc.Sum32() {
		return png.FormatError("invalid checksum")
	}
	return nil
}

// idatReader concatenates the data of consecutive IDAT chunks into the zlib
// stream. Chunks before the first IDAT are checked and skipped.
type idatReader struct {
	cr      *chunkReader
	remain  uint32
	started bool
	done    bool
}

func (ir *idatReader) Read(p []byte) (int, error) {
	for ir.remain == 0 {
		if ir.done {
			return 0, io.EOF
		}
		if ir.started {
			if err := ir.cr.verifyChecksum(); err != nil {
				return 0, err
			}
		}
		length, typ, err := ir.cr.next()
		if err != nil {
			return 0, err
		}
		switch {
		case typ == "IDAT":
			ir.started = true
			ir.remain = length
		case ir.started:
			ir.done = true
			return 0, io.EOF
		case typ == "IEND":
			return 0, png.FormatError("no IDAT chunk")
		default:
			if err := ir.cr.skip(length); err != nil {
				return 0, err
			}
		}
	}

	if uint32(len(p)) > ir.remain {
		p = p[:ir.remain]
	}
	n, err := ir.cr.body(ir.remain).Read(p)
	ir.remain -= uint32(n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
