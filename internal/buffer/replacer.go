package buffer

import (
	"container/list"

	"github.com/SolieSoftware/db-engine/internal/page"
)

// Replacer tracks the set of unpinned frames in use-order and picks the
// least-recently-used one as a victim. Capacity is fixed at construction
// to the owning pool's size; Pin/Unpin/Victim are amortized O(1) via an
// ordered list paired with a frame-id -> element map.
type Replacer struct {
	order *list.List
	pos   map[page.FrameID]*list.Element
}

// NewReplacer returns an empty replacer. capacity is informational only;
// the underlying list grows and shrinks with Pin/Unpin.
func NewReplacer(capacity int) *Replacer {
	return &Replacer{
		order: list.New(),
		pos:   make(map[page.FrameID]*list.Element, capacity),
	}
}

// Victim removes and returns the least-recently-used frame, or ok=false if
// no frame is currently evictable.
func (r *Replacer) Victim() (frame page.FrameID, ok bool) {
	back := r.order.Back()
	if back == nil {
		return 0, false
	}
	id := back.Value.(page.FrameID)
	r.order.Remove(back)
	delete(r.pos, id)
	return id, true
}

// Pin removes frameID from eviction candidacy. A no-op if it is not
// currently tracked.
func (r *Replacer) Pin(frameID page.FrameID) {
	if el, ok := r.pos[frameID]; ok {
		r.order.Remove(el)
		delete(r.pos, frameID)
	}
}

// Unpin inserts frameID at the most-recently-used end, moving it there if
// it was already tracked.
func (r *Replacer) Unpin(frameID page.FrameID) {
	if el, ok := r.pos[frameID]; ok {
		r.order.MoveToFront(el)
		return
	}
	r.pos[frameID] = r.order.PushFront(frameID)
}

// Size reports the number of currently evictable frames.
func (r *Replacer) Size() int {
	return r.order.Len()
}
