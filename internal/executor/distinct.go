package executor

import (
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/tuannm99/microdb/internal/alias/bx"
	"github.com/tuannm99/microdb/internal/record"
)

// distinctSet remembers projected tuples already emitted. Tuples are
// bucketed by hash and confirmed with Record.Equal.
type distinctSet struct {
	seen map[uint64][]record.Record
	buf  [8]byte
}

func newDistinctSet() *distinctSet {
	return &distinctSet{seen: make(map[uint64][]record.Record)}
}

// add reports whether rec was not seen before, and remembers it.
func (d *distinctSet) add(rec record.Record) bool {
	h := d.hash(rec)
	for _, prev := range d.seen[h] {
		if prev.Equal(rec) {
			return false
		}
	}
	d.seen[h] = append(d.seen[h], rec)
	return true
}

func (d *distinctSet) hash(rec record.Record) uint64 {
	x := xxhash.New()
	for _, v := range rec {
		d.buf[0] = byte(v.Type())
		_, _ = x.Write(d.buf[:1])
		switch val := v.(type) {
		case record.Int:
			bx.PutI32(d.buf[:], int32(val))
			_, _ = x.Write(d.buf[:4])
		case record.Double:
			f := float64(val)
			if f == 0 {
				f = 0 // -0 and +0 are equal
			}
			bx.PutU64(d.buf[:], math.Float64bits(f))
			_, _ = x.Write(d.buf[:8])
		case record.Text:
			bx.PutU32(d.buf[:], uint32(len(val)))
			_, _ = x.Write(d.buf[:4])
			_, _ = x.WriteString(string(val))
		}
	}
	return x.Sum64()
}
