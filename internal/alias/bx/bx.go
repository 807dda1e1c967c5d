// stand for bytes helper; every on-disk integer in microdb is little-endian.
package bx

import (
	"encoding/binary"
	"math"
)

var LE = binary.LittleEndian

// --- read ---
func U32(b []byte) uint32  { return LE.Uint32(b) }
func U64(b []byte) uint64  { return LE.Uint64(b) }
func I32(b []byte) int32   { return int32(U32(b)) }
func F64(b []byte) float64 { return math.Float64frombits(U64(b)) }

// --- write ---
func PutU32(b []byte, v uint32)  { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64)  { LE.PutUint64(b, v) }
func PutI32(b []byte, v int32)   { PutU32(b, uint32(v)) }
func PutF64(b []byte, v float64) { PutU64(b, math.Float64bits(v)) }

// --- At (offset), used for page header and slot directory ---
func U32At(b []byte, off int) uint32       { return U32(b[off:]) }
func PutU32At(b []byte, off int, v uint32) { PutU32(b[off:], v) }
