// Package book implements the price-time-priority order book: a FIFO
// price level (this file), a price-ordered side book, an order index,
// and the engine that ties them together.
package book

import "ironbook/internal/common"

// node is one resting order inside a PriceLevel's doubly-linked list.
// Head is the most recently added order; tail is the oldest and is
// where matching consumes from. A *node is the opaque handle an
// OrderIndex entry holds for O(1) unlink.
type node struct {
	order      common.Order
	prev, next *node
}

// PriceLevel is a FIFO queue of resting orders at one price.
type PriceLevel struct {
	Price         uint64
	TotalQuantity uint32

	head, tail *node
}

func newPriceLevel(price uint64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Empty reports whether the level holds no resting orders.
func (pl *PriceLevel) Empty() bool {
	return pl.head == nil
}

// PushFront places order at the head (youngest position) and returns
// the handle used to remove or resize it later.
func (pl *PriceLevel) PushFront(order common.Order) *node {
	n := &node{order: order}
	if pl.head == nil {
		pl.head = n
		pl.tail = n
	} else {
		n.next = pl.head
		pl.head.prev = n
		pl.head = n
	}
	pl.TotalQuantity += order.Quantity
	return n
}

// Tail returns the oldest resting order, or nil if the level is empty.
func (pl *PriceLevel) Tail() *node {
	return pl.tail
}

// Remove unlinks n from the level. The four cases — sole element, head,
// tail, and middle — are each handled explicitly.
func (pl *PriceLevel) Remove(n *node) {
	switch {
	case n.prev == nil && n.next == nil:
		pl.head = nil
		pl.tail = nil
	case n.prev == nil:
		pl.head = n.next
		pl.head.prev = nil
	case n.next == nil:
		pl.tail = n.prev
		pl.tail.next = nil
	default:
		n.prev.next = n.next
		n.next.prev = n.prev
	}

	pl.TotalQuantity -= n.order.Quantity
	n.prev = nil
	n.next = nil
}

// ChangeQuantity updates n's resting quantity in place and adjusts the
// level's running total by the delta.
func (pl *PriceLevel) ChangeQuantity(n *node, newQty uint32) {
	if newQty >= n.order.Quantity {
		pl.TotalQuantity += newQty - n.order.Quantity
	} else {
		pl.TotalQuantity -= n.order.Quantity - newQty
	}
	n.order.Quantity = newQty
}

// Clear unlinks every order, leaving the level empty with a zeroed total.
func (pl *PriceLevel) Clear() {
	pl.head = nil
	pl.tail = nil
	pl.TotalQuantity = 0
}

// Orders returns resting orders from tail to head (oldest first), the
// order in which a trade would consume them.
func (pl *PriceLevel) Orders() []common.Order {
	orders := make([]common.Order, 0, 4)
	for n := pl.tail; n != nil; n = n.prev {
		orders = append(orders, n.order)
	}
	return orders
}
