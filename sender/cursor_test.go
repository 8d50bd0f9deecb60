package sender

import (
	"bytes"
	"testing"
)

func TestCursorWrapsAtTheSeam(t *testing.T) {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}
	c := &cursor{payload: payload}
	// 102 chunks of 40 bytes end at offset 4080. The 103rd chunk crosses
	// the seam: it must be the 16-byte tail joined with the 24-byte head.
	var chunk []byte
	for i := 0; i < 103; i++ {
		chunk = c.next(40)
		if len(chunk) != 40 {
			t.Fatalf("chunk %d has length %d, want 40", i+1, len(chunk))
		}
	}
	want := append(append([]byte{}, payload[4080:]...), payload[:24]...)
	if !bytes.Equal(chunk, want) {
		t.Errorf("seam chunk = %v, want %v", chunk, want)
	}
	if c.off != 24 {
		t.Errorf("cursor offset after the seam = %d, want 24", c.off)
	}
}

func TestCursorExactFitWrapsToZero(t *testing.T) {
	c := &cursor{payload: []byte{1, 2, 3, 4}}
	c.next(4)
	if c.off != 0 {
		t.Errorf("cursor offset = %d, want 0", c.off)
	}
	if got := c.next(2); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("chunk after exact fit = %v, want [1 2]", got)
	}
}

func TestCursorChunkLargerThanPayload(t *testing.T) {
	c := &cursor{payload: []byte{1, 2, 3}}
	got := c.next(7)
	want := []byte{1, 2, 3, 1, 2, 3, 1}
	if !bytes.Equal(got, want) {
		t.Errorf("chunk = %v, want %v", got, want)
	}
	if c.off != 1 {
		t.Errorf("cursor offset = %d, want 1", c.off)
	}
}
