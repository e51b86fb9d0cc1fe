// Package entropy provides the cryptographic entropy source of the host.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"io"
)

// Crypto draws 32-bit values from a cryptographic random reader.
type Crypto struct {
	r io.Reader
}

// NewCrypto returns a source backed by crypto/rand.
func NewCrypto() *Crypto {
	return &Crypto{r: rand.Reader}
}

// NewReader returns a source backed by r. It is meant for deterministic tests.
func NewReader(r io.Reader) *Crypto {
	return &Crypto{r: r}
}

// Uint32 returns the next random value. Read failures of the underlying
// reader are not modeled: crypto/rand does not fail, and a short test
// reader yields the bytes it had.
func (c *Crypto) Uint32() uint32 {
	var b [4]byte
	_, _ = io.ReadFull(c.r, b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// Reader exposes the underlying reader, for runtimes that take one
// (for example a WASI random source).
func (c *Crypto) Reader() io.Reader {
	return c.r
}
