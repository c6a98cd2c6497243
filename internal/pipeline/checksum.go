package pipeline

import (
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
)

// checksummer hashes every byte read through it, so the file checksum falls
// out of the same pass that parses the CSV.
type checksummer struct {
	r io.Reader
	h *xxh3.Hasher
}

func newChecksummer(r io.Reader) *checksummer {
	return &checksummer{r: r, h: xxh3.New()}
}

func (c *checksummer) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		// Hasher.Write never errors.
		c.h.Write(p[:n])
	}
	return n, err
}

// Hex returns the 64-bit digest of everything read so far.
func (c *checksummer) Hex() string {
	return fmt.Sprintf("%016x", c.h.Sum64())
}
