package bufferpool

import "container/list"

// lruReplacer orders frames by last access; Evict takes the least recently
// used frame that is evictable (unpinned).
type lruReplacer struct {
	order     *list.List // front = most recently used
	elems     map[int]*list.Element
	evictable map[int]bool
	size      int // number of evictable frames
}

func newLRUReplacer() Replacer {
	return &lruReplacer{
		order:     list.New(),
		elems:     make(map[int]*list.Element),
		evictable: make(map[int]bool),
	}
}

func (r *lruReplacer) RecordAccess(frameID int) {
	if e, ok := r.elems[frameID]; ok {
		r.order.MoveToFront(e)
		return
	}
	r.elems[frameID] = r.order.PushFront(frameID)
}

func (r *lruReplacer) SetEvictable(frameID int, evictable bool) {
	if _, ok := r.elems[frameID]; !ok {
		// Ignore unknown frame.
		return
	}
	if r.evictable[frameID] == evictable {
		return
	}
	r.evictable[frameID] = evictable
	if evictable {
		r.size++
	} else {
		r.size--
	}
}

// Evict returns the victim and stops tracking it.
func (r *lruReplacer) Evict() (int, bool) {
	if r.size == 0 {
		return -1, false
	}
	for e := r.order.Back(); e != nil; e = e.Prev() {
		id := e.Value.(int)
		if r.evictable[id] {
			r.Remove(id)
			return id, true
		}
	}
	return -1, false
}

func (r *lruReplacer) Remove(frameID int) {
	e, ok := r.elems[frameID]
	if !ok {
		return
	}
	if r.evictable[frameID] {
		r.size--
	}
	r.order.Remove(e)
	delete(r.elems, frameID)
	delete(r.evictable, frameID)
}

func (r *lruReplacer) Size() int { return r.size }
