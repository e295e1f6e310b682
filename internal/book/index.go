package book

import "ironbook/internal/common"

// indexEntry locates a resting order's node without requiring a linear
// scan of its side book: which side and price level it rests on, plus
// a direct handle into that level's FIFO.
type indexEntry struct {
	side  common.Side
	price uint64
	node  *node
}

// orderIndex is a fast order_id -> location map. An id is present iff
// the order it names is currently resting in one of the two side books.
type orderIndex struct {
	entries map[uint32]indexEntry
}

func newOrderIndex() *orderIndex {
	return &orderIndex{entries: make(map[uint32]indexEntry)}
}

func (idx *orderIndex) get(id uint32) (indexEntry, bool) {
	e, ok := idx.entries[id]
	return e, ok
}

func (idx *orderIndex) set(id uint32, e indexEntry) {
	idx.entries[id] = e
}

func (idx *orderIndex) delete(id uint32) {
	delete(idx.entries, id)
}

func (idx *orderIndex) len() int {
	return len(idx.entries)
}
