package sender

// cursor is an explicit wraparound index into a fixed, read-only payload.
// Keeping the offset arithmetic in one small type makes the circular
// slicing auditable in isolation.
type cursor struct {
	payload []byte
	off     int
}

// next returns the next n bytes of the payload, wrapping circularly when
// the payload is exhausted. Away from the seam the returned slice aliases
// the payload; at the seam the tail and head are joined into a fresh slice
// so that every chunk is exactly n bytes long. The payload must be
// non-empty.
func (c *cursor) next(n int) []byte {
	if rem := len(c.payload) - c.off; n <= rem {
		chunk := c.payload[c.off : c.off+n]
		c.off = (c.off + n) % len(c.payload)
		return chunk
	}
	chunk := make([]byte, 0, n)
	for len(chunk) < n {
		take := n - len(chunk)
		if rem := len(c.payload) - c.off; take > rem {
			take = rem
		}
		chunk = append(chunk, c.payload[c.off:c.off+take]...)
		c.off = (c.off + take) % len(c.payload)
	}
	return chunk
}
