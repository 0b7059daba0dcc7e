package metaobject

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Layout pins the binary contract a blob is serialized for. The consuming
// runtime reads the data array and string data in place, so every field here
// must match the runtime the blob is linked against.
type Layout struct {
	// Revision of the data array format: 7 (Qt 5.0 - 5.11) or 8 (Qt 5.12 - 5.15).
	Revision int
	// PointerSize of the target platform in bytes, 4 or 8. It sizes the
	// per-string headers of the string data.
	PointerSize int
	// BigEndian selects the byte order used by MarshalBinary.
	BigEndian bool
}

var (
	// Qt5Rev7 is the layout emitted for Qt 5.0 through 5.11 on 64-bit little endian targets.
	Qt5Rev7 = Layout{Revision: 7, PointerSize: 8}
	// Qt5Rev8 is the layout emitted for Qt 5.12 through 5.15 on 64-bit little endian targets.
	Qt5Rev8 = Layout{Revision: 8, PointerSize: 8}
	// DefaultLayout is used when no layout is configured.
	DefaultLayout = Qt5Rev8
)

// Validate reports unsupported layout parameters.
func (l Layout) Validate() error {
	if l.Revision != 7 && l.Revision != 8 {
		return fmt.Errorf("%w: revision %d (supported: 7, 8)", ErrUnsupportedLayout, l.Revision)
	}
	if l.PointerSize != 4 && l.PointerSize != 8 {
		return fmt.Errorf("%w: pointer size %d (supported: 4, 8)", ErrUnsupportedLayout, l.PointerSize)
	}
	return nil
}

// ByteOrder returns the byte order of the target.
func (l Layout) ByteOrder() binary.ByteOrder {
	if l.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// EnumRecordSize is the number of uint fields per enum record.
func (l Layout) EnumRecordSize() int {
	if l.Revision >= 8 {
		return 5
	}
	return 4
}

// StringHeaderSize is the size in bytes of one string-data header.
func (l Layout) StringHeaderSize() int {
	if l.PointerSize == 4 {
		return 16
	}
	return 24
}

func (l Layout) String() string {
	order := "le"
	if l.BigEndian {
		order = "be"
	}
	return fmt.Sprintf("rev%d/ptr%d/%s", l.Revision, l.PointerSize, order)
}

// ParseLayout parses the form produced by Layout.String, e.g. "rev7/ptr8/le".
// Missing trailing parts fall back to DefaultLayout.
func ParseLayout(s string) (Layout, error) {
	l := DefaultLayout
	for _, part := range strings.Split(strings.ToLower(strings.TrimSpace(s)), "/") {
		switch {
		case part == "":
		case part == "le":
			l.BigEndian = false
		case part == "be":
			l.BigEndian = true
		case strings.HasPrefix(part, "rev"):
			if _, err := fmt.Sscanf(part, "rev%d", &l.Revision); err != nil {
				return Layout{}, fmt.Errorf("%w: bad revision %q", ErrUnsupportedLayout, part)
			}
		case strings.HasPrefix(part, "ptr"):
			if _, err := fmt.Sscanf(part, "ptr%d", &l.PointerSize); err != nil {
				return Layout{}, fmt.Errorf("%w: bad pointer size %q", ErrUnsupportedLayout, part)
			}
		default:
			return Layout{}, fmt.Errorf("%w: unknown layout component %q", ErrUnsupportedLayout, part)
		}
	}
	return l, l.Validate()
}
