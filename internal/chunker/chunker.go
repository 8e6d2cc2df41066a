// Package chunker implements a FastCDC-style content-defined chunker: it
// splits a byte stream into variable-sized chunks using a gear-hash
// rolling checksum, so that identical substreams produce identical chunk
// boundaries regardless of surrounding edits.
//
// See https://www.usenix.org/system/files/conference/atc16/atc16-paper-xia.pdf
package chunker

import (
	"errors"
	"io"
	"math/bits"

	"github.com/forgevault/forgevault/internal/keyschedule"
)

// Size constants fixed by the store's format, not tunable knobs.
const (
	minSize    = 256
	normalSize = 8192
	maxSize    = 65535
	readSize   = 8 * 1024
)

// Gear-hash masks over the top bits of the rolling hash. maskS is the
// stricter mask used inside the normal window; maskL is the looser mask
// used past it.
const (
	maskS uint64 = 0xfffe000000000000 // 15 leading ones
	maskL uint64 = 0xffe0000000000000 // 11 leading ones
)

// Chunk is one variable-length piece of the input stream, carrying the
// rolling-hash value at its cut point so callers can derive Depth. The
// hash is zero for hard-cap cuts and for the short final chunk.
type Chunk struct {
	Data []byte
	hash uint64
}

// Depth is the trailing-ones count of the hash at the cut point. It is 0
// for hard-cap cuts and for the short final chunk of a stream.
func (c Chunk) Depth() uint32 {
	return uint32(bits.TrailingZeros64(^c.hash))
}

// Chunker is a pull-based producer of Chunks over a finite io.Reader. It
// owns its read buffer for the lifetime of the stream and releases bytes
// consumed by each cut before reading more.
type Chunker struct {
	r     io.Reader
	table *keyschedule.GearTable
	buf   []byte
	eof   bool
}

// New creates a Chunker reading from r, driven by the given gear table.
func New(r io.Reader, table *keyschedule.GearTable) *Chunker {
	return &Chunker{r: r, table: table}
}

// Next returns the next Chunk, or io.EOF once the stream is exhausted.
func (c *Chunker) Next() (Chunk, error) {
	if err := c.fill(); err != nil {
		return Chunk{}, err
	}
	if len(c.buf) == 0 {
		return Chunk{}, io.EOF
	}

	window := c.buf
	if len(window) > maxSize {
		window = window[:maxSize]
	}

	if len(window) <= minSize {
		c.release(len(window))
		return Chunk{Data: window}, nil
	}

	normalLen := normalSize
	if normalLen > len(window) {
		normalLen = len(window)
	}

	hash := rollingHash(c.table, 0, window[:minSize])
	hash, cut, found := scanForCut(c.table, hash, window[minSize:normalLen], maskS)
	if found {
		total := minSize + cut
		c.release(total)
		return Chunk{Data: window[:total], hash: hash}, nil
	}

	rest := window[normalLen:]
	hash, cutInRest, found := scanForCut(c.table, hash, rest, maskL)
	if found {
		total := normalLen + cutInRest
		c.release(total)
		return Chunk{Data: window[:total], hash: hash}, nil
	}

	c.release(len(window))
	return Chunk{Data: window}, nil
}

// release drops the first n bytes of the buffer, keeping the remainder
// for the next call. The returned Chunk's Data slice aliases the buffer
// as it stood before release, so callers must not retain it across the
// next call to Next.
func (c *Chunker) release(n int) {
	remaining := make([]byte, len(c.buf)-n)
	copy(remaining, c.buf[n:])
	c.buf = remaining
}

// fill ensures the buffer holds at least maxSize bytes, or that the
// stream is exhausted, reading at most readSize bytes per underlying
// Read call and retrying a Read whose error reports Temporary() == true.
func (c *Chunker) fill() error {
	if c.eof {
		return nil
	}
	tmp := make([]byte, readSize)
	for len(c.buf) < maxSize {
		n, err := c.r.Read(tmp)
		if n > 0 {
			c.buf = append(c.buf, tmp[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.eof = true
				return nil
			}
			if isInterrupted(err) {
				continue
			}
			return err
		}
		if n == 0 {
			c.eof = true
			return nil
		}
	}
	return nil
}

func isInterrupted(err error) bool {
	type temporary interface{ Temporary() bool }
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}

// rollingHash feeds buf through the gear hash starting from hash,
// returning the final value without checking for a cut.
func rollingHash(table *keyschedule.GearTable, hash uint64, buf []byte) uint64 {
	for _, b := range buf {
		hash = (hash << 1) + table[b]
	}
	return hash
}

// scanForCut feeds buf through the gear hash byte by byte, starting from
// hash, and reports the byte offset of the first position (1-indexed
// length from the start of buf) whose hash matches mask on its top bits.
func scanForCut(table *keyschedule.GearTable, hash uint64, buf []byte, mask uint64) (finalHash uint64, cut int, found bool) {
	for i, b := range buf {
		hash = (hash << 1) + table[b]
		if hash&mask == 0 {
			return hash, i + 1, true
		}
	}
	return hash, 0, false
}
