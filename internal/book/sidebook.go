package book

import "github.com/tidwall/btree"

// SideBook is a price-ordered map of PriceLevel, one per side of the
// book. It supports O(log n) lookup/insert/erase and bidirectional
// traversal, generalized from a float64 price comparator to
// cent-fixed-point uint64 prices.
type SideBook struct {
	tree *btree.BTreeG[*PriceLevel]
}

func newSideBook() *SideBook {
	return &SideBook{
		tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.Price < b.Price
		}),
	}
}

// Get returns the level at price, if any.
func (s *SideBook) Get(price uint64) (*PriceLevel, bool) {
	return s.tree.Get(&PriceLevel{Price: price})
}

// GetOrCreate returns the level at price, creating an empty one first
// if none exists yet.
func (s *SideBook) GetOrCreate(price uint64) *PriceLevel {
	if pl, ok := s.tree.Get(&PriceLevel{Price: price}); ok {
		return pl
	}
	pl := newPriceLevel(price)
	s.tree.Set(pl)
	return pl
}

// Delete erases the level at price, if present.
func (s *SideBook) Delete(price uint64) {
	s.tree.Delete(&PriceLevel{Price: price})
}

// Min returns the lowest-price level.
func (s *SideBook) Min() (*PriceLevel, bool) {
	return s.tree.Min()
}

// Max returns the highest-price level.
func (s *SideBook) Max() (*PriceLevel, bool) {
	return s.tree.Max()
}

// Empty reports whether the book side holds no levels at all.
func (s *SideBook) Empty() bool {
	return s.tree.Len() == 0
}

// Ascend visits every level lowest-price first.
func (s *SideBook) Ascend(fn func(*PriceLevel) bool) {
	s.tree.Scan(fn)
}

// Descend visits every level highest-price first.
func (s *SideBook) Descend(fn func(*PriceLevel) bool) {
	s.tree.Reverse(fn)
}
