package storage

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tuannm99/microdb/internal/alias/bx"
	"github.com/tuannm99/microdb/internal/dberr"
)

// Slot flags
const (
	SlotFree uint8 = 0
	SlotUsed uint8 = 1
)

var (
	ErrTupleTooLarge = fmt.Errorf("%w: page: tuple larger than page capacity", dberr.ErrValueTooLarge)
	ErrNoSpace       = errors.New("page: not enough free space")
	ErrEmptyTuple    = errors.New("page: empty tuple")
	ErrBadSlot       = fmt.Errorf("%w: page: invalid slot", dberr.ErrNotFound)
	ErrSlotFree      = errors.New("page: slot is free")
	ErrCorruption    = fmt.Errorf("%w: page: corrupt slot directory", dberr.ErrCorruption)
	ErrWrongSize     = errors.New("page: buffer size != PageSize")
)

type Slot struct {
	Flag   uint8
	Offset uint32
	Size   uint32
}

func (s Slot) Used() bool { return s.Flag == SlotUsed }

// +------------------+ 0
// | slot count (u32) |
// | Slot[0..n)       | 9 bytes each
// +------------------+ <-- dirEnd
// |                  |
// |   Free space     |
// |                  |
// +------------------+ <-- lowest payload offset
// |  Tuple Data      |
// |  (grows down)    |
// +------------------+ PageSize (4096)
//
// Free slots keep their payload bytes; a later insert that fits reuses them.
type Page struct {
	Buf []byte
	id  uint32
}

// NewPage zeroes buf and returns an empty page over it.
func NewPage(buf []byte, pageID uint32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongSize
	}
	clear(buf)
	return &Page{Buf: buf, id: pageID}, nil
}

// WrapPage interprets buf as an existing page without touching it.
func WrapPage(buf []byte, pageID uint32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongSize
	}
	return &Page{Buf: buf, id: pageID}, nil
}

func (p *Page) PageID() uint32 { return p.id }

func (p *Page) NumSlots() int {
	return int(bx.U32At(p.Buf, 0))
}

func (p *Page) setNumSlots(n int) {
	bx.PutU32At(p.Buf, 0, uint32(n))
}

func (p *Page) slotOff(idx int) int {
	return PageHeaderSize + idx*SlotSize
}

func (p *Page) dirEnd() int {
	return p.slotOff(p.NumSlots())
}

// ---- slots ----

func (p *Page) maxSlots() int {
	return (PageSize - PageHeaderSize) / SlotSize
}

// Slot returns the directory entry idx after validating it against the
// page bounds.
func (p *Page) Slot(idx int) (Slot, error) {
	n := p.NumSlots()
	if n > p.maxSlots() {
		return Slot{}, fmt.Errorf("%w: slot count %d", ErrCorruption, n)
	}
	if idx < 0 || idx >= n {
		return Slot{}, fmt.Errorf("%w: %d of %d", ErrBadSlot, idx, n)
	}
	o := p.slotOff(idx)
	s := Slot{
		Flag:   p.Buf[o],
		Offset: bx.U32At(p.Buf, o+1),
		Size:   bx.U32At(p.Buf, o+5),
	}
	if s.Flag != SlotFree && s.Flag != SlotUsed {
		return Slot{}, fmt.Errorf("%w: slot %d flag 0x%02x", ErrCorruption, idx, s.Flag)
	}
	end := uint64(s.Offset) + uint64(s.Size)
	if int(s.Offset) < p.dirEnd() || end > PageSize {
		return Slot{}, fmt.Errorf("%w: slot %d off=%d size=%d", ErrCorruption, idx, s.Offset, s.Size)
	}
	return s, nil
}

func (p *Page) putSlot(idx int, s Slot) {
	o := p.slotOff(idx)
	p.Buf[o] = s.Flag
	bx.PutU32At(p.Buf, o+1, s.Offset)
	bx.PutU32At(p.Buf, o+5, s.Size)
}

// lowestOffset is where the payload heap currently ends; PageSize when empty.
func (p *Page) lowestOffset() (int, error) {
	low := PageSize
	for i := 0; i < p.NumSlots(); i++ {
		s, err := p.Slot(i)
		if err != nil {
			return 0, err
		}
		if s.Size > 0 && int(s.Offset) < low {
			low = int(s.Offset)
		}
	}
	return low, nil
}

// FreeSpace is the contiguous gap between the directory and the heap.
func (p *Page) FreeSpace() (int, error) {
	low, err := p.lowestOffset()
	if err != nil {
		return 0, err
	}
	return low - p.dirEnd(), nil
}

// Check validates the whole directory: every entry inside the page and
// no two payloads overlapping.
func (p *Page) Check() error {
	type span struct{ idx, start, end int }

	n := p.NumSlots()
	spans := make([]span, 0, n)
	for i := 0; i < n; i++ {
		s, err := p.Slot(i)
		if err != nil {
			return err
		}
		if s.Size == 0 {
			continue
		}
		spans = append(spans, span{idx: i, start: int(s.Offset), end: int(s.Offset + s.Size)})
	}
	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return fmt.Errorf("%w: slot %d overlaps slot %d", ErrCorruption, spans[i].idx, spans[i-1].idx)
		}
	}
	return nil
}

// ---- tuples (payload) ----

// InsertTuple stores tup in the first free slot large enough for it, or in
// a new slot whose payload sits just below the current heap.
func (p *Page) InsertTuple(tup []byte) (int, error) {
	if len(tup) == 0 {
		return -1, ErrEmptyTuple
	}
	if len(tup) > MaxTupleSize {
		return -1, ErrTupleTooLarge
	}

	n := p.NumSlots()
	for i := 0; i < n; i++ {
		s, err := p.Slot(i)
		if err != nil {
			return -1, err
		}
		if s.Used() || int(s.Size) < len(tup) {
			continue
		}
		copy(p.Buf[s.Offset:], tup)
		p.putSlot(i, Slot{Flag: SlotUsed, Offset: s.Offset, Size: uint32(len(tup))})
		return i, nil
	}

	free, err := p.FreeSpace()
	if err != nil {
		return -1, err
	}
	if free < len(tup)+SlotSize {
		return -1, ErrNoSpace
	}
	low := p.dirEnd() + free
	off := low - len(tup)
	copy(p.Buf[off:], tup)
	p.putSlot(n, Slot{Flag: SlotUsed, Offset: uint32(off), Size: uint32(len(tup))})
	p.setNumSlots(n + 1)
	return n, nil
}

// ReadTuple returns the payload of a used slot. The slice aliases the page.
func (p *Page) ReadTuple(slot int) ([]byte, error) {
	s, err := p.Slot(slot)
	if err != nil {
		return nil, err
	}
	if !s.Used() {
		return nil, ErrSlotFree
	}
	return p.Buf[s.Offset : s.Offset+s.Size], nil
}

func (p *Page) IsUsed(slot int) (bool, error) {
	s, err := p.Slot(slot)
	if err != nil {
		return false, err
	}
	return s.Used(), nil
}

// MarkFree releases a slot. Payload bytes stay where they are.
func (p *Page) MarkFree(slot int) error {
	s, err := p.Slot(slot)
	if err != nil {
		return err
	}
	if !s.Used() {
		return ErrSlotFree
	}
	s.Flag = SlotFree
	p.putSlot(slot, s)
	return nil
}
