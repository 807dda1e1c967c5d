package storage

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"unicode"
)

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Fprintf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

func (e *errWriter) Fprintln(a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, a...)
}

func slotFlagName(f uint8) string {
	switch f {
	case SlotUsed:
		return "USED"
	case SlotFree:
		return "FREE"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", f)
	}
}

// ASCII preview: printable -> itself, else '.'
func asciiPreview(b []byte) string {
	var buf bytes.Buffer
	for _, c := range b {
		r := rune(c)
		if c < unicode.MaxASCII && unicode.IsPrint(r) {
			buf.WriteRune(r)
		} else {
			buf.WriteByte('.')
		}
	}
	return buf.String()
}

// Debug prints the header, slot directory and payload previews to w.
// It reads slots one by one so a corrupt entry is reported, not fatal.
func (p *Page) Debug(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.Fprintf("=== Page %d ===\n", p.PageID())
	ew.Fprintf("pageSize=%d numSlots=%d dirEnd=%d\n", PageSize, p.NumSlots(), p.dirEnd())
	if free, err := p.FreeSpace(); err != nil {
		ew.Fprintf("freeSpace=<error: %v>\n", err)
	} else {
		ew.Fprintf("freeSpace=%d\n", free)
	}

	ew.Fprintln("-- Slots --")
	if p.NumSlots() == 0 {
		ew.Fprintln("(none)")
	}
	const maxPreview = 24
	for i := 0; i < p.NumSlots() && ew.err == nil; i++ {
		s, err := p.Slot(i)
		if err != nil {
			ew.Fprintf("[%d] <error: %v>\n", i, err)
			continue
		}
		data := p.Buf[s.Offset : s.Offset+s.Size]
		if len(data) > maxPreview {
			data = data[:maxPreview]
		}
		ew.Fprintf("[%d] %s off=%d size=%d hex=%s ascii=%q\n",
			i, slotFlagName(s.Flag), s.Offset, s.Size, hex.EncodeToString(data), asciiPreview(data))
	}

	if err := p.Check(); err != nil {
		ew.Fprintf("check: %v\n", err)
	}
	return ew.err
}
