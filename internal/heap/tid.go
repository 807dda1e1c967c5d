package heap

import "fmt"

// TID (Tuple ID) row identity inside of heap file:
// PageID: page index in the table's data file
// Slot  : slot directory index of that page
type TID struct {
	PageID uint32
	Slot   uint16
}

func (id TID) String() string {
	return fmt.Sprintf("(%d,%d)", id.PageID, id.Slot)
}
