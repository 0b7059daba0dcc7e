package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// BlobLogger dumps serialized meta-object sections for inspection.
type BlobLogger interface {
	Log(class, section string, data []byte)
}

type blobLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewBlob creates a BlobLogger writing to w. A nil writer discards everything.
func NewBlob(w io.Writer) BlobLogger {
	return &blobLogger{w: w}
}

const bytesPerLine = 16

// Log writes a header line followed by an offset-prefixed hex dump with an
// ASCII column, 16 bytes per line.
func (b *blobLogger) Log(class, section string, data []byte) {
	if b.w == nil || len(data) == 0 {
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s: %d bytes\n", class, section, len(data))

	const hexdigits = "0123456789abcdef"
	for off := 0; off < len(data); off += bytesPerLine {
		end := min(off+bytesPerLine, len(data))
		fmt.Fprintf(&buf, "%08x ", off)
		for i := off; i < off+bytesPerLine; i++ {
			if i < end {
				buf.WriteByte(' ')
				buf.WriteByte(hexdigits[data[i]>>4])
				buf.WriteByte(hexdigits[data[i]&0x0f])
			} else {
				buf.WriteString("   ")
			}
		}
		buf.WriteString("  |")
		for _, c := range data[off:end] {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			buf.WriteByte(c)
		}
		buf.WriteString("|\n")
	}

	b.mu.Lock()
	_, _ = b.w.Write(buf.Bytes())
	b.mu.Unlock()
}
